package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMissingToken = errors.New("telegram.token is empty (set it in the file or " + EnvToken + ")")

// Validate checks every field that can be checked without the network.
// The token is checked separately by RequireToken so offline commands can run without one.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	if _, err := ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("notifier.retry_base", cfg.Notifier.RetryBase); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("notifier.retry_max_delay", cfg.Notifier.RetryMaxDelay); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("reminders.confirm_window", cfg.Reminders.ConfirmWindow); err != nil {
		errs = append(errs, err)
	}
	if tz := strings.TrimSpace(cfg.Scheduler.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, fmt.Errorf("scheduler.timezone: %w", err))
		}
	}
	for _, f := range []struct {
		path string
		v    int
	}{
		{"notifier.workers", cfg.Notifier.Workers},
		{"notifier.queue_size", cfg.Notifier.QueueSize},
		{"notifier.rate_per_sec", cfg.Notifier.RatePerSec},
		{"notifier.retry_max", cfg.Notifier.RetryMax},
		{"reminders.active_minutes", cfg.Reminders.ActiveMinutes},
		{"logging.telegram.rate_per_sec", cfg.Logging.Telegram.RatePerSec},
	} {
		if f.v < 0 {
			errs = append(errs, fmt.Errorf("%s: must be >= 0", f.path))
		}
	}
	if cfg.Reminders.ActiveMinutes > 24*60 {
		errs = append(errs, errors.New("reminders.active_minutes: must be <= 1440"))
	}
	if cfg.Reminders.GlassLiters < 0 {
		errs = append(errs, errors.New("reminders.glass_liters: must be >= 0"))
	}
	return errors.Join(errs...)
}

func RequireToken(cfg *Config) error {
	if cfg == nil || strings.TrimSpace(cfg.Telegram.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

// Timezone returns the configured zone name or DefaultTimezone.
func (c *Config) Timezone() string {
	if tz := strings.TrimSpace(c.Scheduler.Timezone); tz != "" {
		return tz
	}
	return DefaultTimezone
}
