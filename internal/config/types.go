package config

// Config is the on-disk configuration. Durations are Go duration strings.
//
// Example (YAML):
//
//	telegram:  { token: "123:abc", poll_timeout: "10s" }
//	logging:   { level: "info", console: true }
//	scheduler: { timezone: "America/El_Salvador" }
//	reminders: { confirm_window: "60s", active_minutes: 960, glass_liters: 0.25 }
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Notifier  NotifierConfig  `json:"notifier"`
	Reminders RemindersConfig `json:"reminders"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
	// AdminChat receives warnings when logging.telegram is enabled.
	AdminChat int64 `json:"admin_chat,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// SchedulerConfig sets the one timezone every reminder time is read in.
type SchedulerConfig struct {
	Timezone string `json:"timezone,omitempty"`
}

// NotifierConfig tunes the outbound queue.
//
// Example:
//
//	"notifier": { "workers": 2, "queue_size": 256, "rate_per_sec": 25, "retry_max": 3, "retry_base": "500ms" }
type NotifierConfig struct {
	Workers       int    `json:"workers"`
	QueueSize     int    `json:"queue_size"`
	RatePerSec    int    `json:"rate_per_sec"`
	RetryMax      int    `json:"retry_max"`
	RetryBase     string `json:"retry_base"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
}

type RemindersConfig struct {
	// ConfirmWindow is how long a "did you take it?" prompt waits before escalating.
	ConfirmWindow string  `json:"confirm_window"`
	ActiveMinutes int     `json:"active_minutes"`
	GlassLiters   float64 `json:"glass_liters"`
}

const DefaultTimezone = "America/El_Salvador"
