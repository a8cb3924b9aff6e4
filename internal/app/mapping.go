package app

import (
	"time"

	"remindbot/internal/bot"
	"remindbot/internal/config"
	"remindbot/internal/notifier"
	"remindbot/internal/task/scheduler"
	logx "remindbot/pkg/logx"
)

const (
	defaultPollTimeout   = 10 * time.Second
	defaultRetryBase     = 500 * time.Millisecond
	defaultRetryMaxDelay = 10 * time.Second
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled && cfg.Telegram.AdminChat != 0,
			ChatID:     cfg.Telegram.AdminChat,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

func mapPollTimeout(cfg *config.Config) (time.Duration, error) {
	return config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, defaultPollTimeout)
}

// mapNotifierConfig fills zero values so an empty notifier section still delivers.
func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	base, err := config.ParseDurationOrDefault("notifier.retry_base", cfg.Notifier.RetryBase, defaultRetryBase)
	if err != nil {
		return notifier.Config{}, err
	}
	maxDelay, err := config.ParseDurationOrDefault("notifier.retry_max_delay", cfg.Notifier.RetryMaxDelay, defaultRetryMaxDelay)
	if err != nil {
		return notifier.Config{}, err
	}
	n := cfg.Notifier
	if n.Workers <= 0 {
		n.Workers = 1
	}
	if n.QueueSize <= 0 {
		n.QueueSize = 256
	}
	if n.RatePerSec <= 0 {
		n.RatePerSec = 20
	}
	if n.RetryMax <= 0 {
		n.RetryMax = 3
	}
	return notifier.Config{
		Workers:       n.Workers,
		QueueSize:     n.QueueSize,
		RatePerSec:    n.RatePerSec,
		RetryMax:      n.RetryMax,
		RetryBase:     base,
		RetryMaxDelay: maxDelay,
	}, nil
}

func mapSchedulerConfig(cfg *config.Config) scheduler.Config {
	return scheduler.Config{Timezone: cfg.Timezone()}
}

// mapBotConfig leaves zeros in place; bot.New and Bot.Apply replace them with defaults.
func mapBotConfig(cfg *config.Config) (bot.Config, error) {
	window, err := config.ParseDurationField("reminders.confirm_window", cfg.Reminders.ConfirmWindow)
	if err != nil {
		return bot.Config{}, err
	}
	return bot.Config{
		ConfirmWindow: window,
		ActiveMinutes: cfg.Reminders.ActiveMinutes,
		GlassLiters:   cfg.Reminders.GlassLiters,
	}, nil
}
