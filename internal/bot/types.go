package bot

import (
	"context"
	"time"

	"remindbot/internal/confirm"
	"remindbot/internal/eventbus"
	"remindbot/internal/intake"
	"remindbot/internal/reminder"
	"remindbot/internal/task/scheduler"
	"remindbot/pkg/tgui"
	logx "remindbot/pkg/logx"
)

// Config holds the tunables the dispatcher reads on every wizard completion.
type Config struct {
	ConfirmWindow time.Duration
	ActiveMinutes int
	GlassLiters   float64
}

// CallbackAnswerer stops the client-side spinner on a pressed button.
type CallbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackID string, text string) error
}

// Deps are the collaborators wired by the app. Out is normally the notifier
// queue; Sessions, Store and Bus are created when nil.
type Deps struct {
	Log       logx.Logger
	Out       tgui.Sender
	Callbacks CallbackAnswerer
	Scheduler *scheduler.Service
	Mailbox   *Mailbox
	Store     *reminder.Store
	Sessions  *intake.Registry
	Bus       eventbus.Bus
}

// Callback data for confirmation buttons: "conf:yes" and "conf:no".
const (
	confirmPrefix = "conf"
	answerYes     = "yes"
	answerNo      = "no"
)

// Reasons carried by reminder.removed events.
const (
	reasonUser      = "user"
	reasonExhausted = "exhausted"
)

type command struct {
	name    string
	aliases []string
	desc    string
	handle  HandlerFunc
}

// callbackTimeout bounds AnswerCallback, which runs on the dispatcher loop.
const callbackTimeout = 5 * time.Second

// handlerTimeout bounds one update, including the sends it queues.
const handlerTimeout = 15 * time.Second

var _ confirm.Stopper = (*scheduler.Job)(nil)
