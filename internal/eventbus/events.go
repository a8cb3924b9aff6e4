package eventbus

// Reminder lifecycle event types.
const (
	ReminderScheduled    = "reminder.scheduled"
	ReminderFired        = "reminder.fired"
	ReminderRemoved      = "reminder.removed"
	ConfirmationArmed    = "confirmation.armed"
	ConfirmationAnswered = "confirmation.answered"
	ConfirmationExpired  = "confirmation.expired"
)

// ReminderEvent is the Data of every reminder.* and confirmation.* event.
type ReminderEvent struct {
	ChatID     int64
	ReminderID string
	Kind       string
	Label      string
	Seq        int    // reminder.fired: 1-based firing count
	Reason     string // reminder.removed: "user" or "exhausted"
	Answer     string // confirmation.answered: "yes" or "no"
}
