package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func noEnv(string) (string, bool) { return "", false }

func TestParseYAML(t *testing.T) {
	t.Parallel()
	p := writeFile(t, t.TempDir(), "config.yaml", `
telegram:
  token: "123:abc"
  poll_timeout: 15s
logging:
  level: debug
  console: true
scheduler:
  timezone: America/El_Salvador
notifier:
  workers: 2
  retry_base: 250ms
reminders:
  confirm_window: 90s
  active_minutes: 900
  glass_liters: 0.3
`)
	m := NewConfigManager(p)
	m.SetEnvLookup(noEnv)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" || cfg.Logging.Level != "debug" || cfg.Notifier.Workers != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Reminders.ActiveMinutes != 900 || cfg.Reminders.GlassLiters != 0.3 {
		t.Fatalf("reminders = %+v", cfg.Reminders)
	}
	if m.Get() != cfg {
		t.Fatal("Load must commit the parsed config")
	}
}

func TestParseRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{"unknown field", "c.json", `{"telegram":{"token":"x","owner_user_ids":[1]}}`, "unknown field"},
		{"trailing data", "c.json", `{"telegram":{}} {}`, "trailing data"},
		{"bad duration", "c.json", `{"reminders":{"confirm_window":"soon"}}`, "reminders.confirm_window"},
		{"bad timezone", "c.yml", "scheduler:\n  timezone: Mars/Base\n", "scheduler.timezone"},
		{"negative workers", "c.json", `{"notifier":{"workers":-1}}`, "notifier.workers"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewConfigManager(writeFile(t, t.TempDir(), tt.file, tt.body))
			m.SetEnvLookup(noEnv)
			_, err := m.Parse()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Parse err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Parallel()
	p := writeFile(t, t.TempDir(), "config.json", `{"telegram":{"token":"from-file"},"scheduler":{"timezone":"UTC"}}`)
	m := NewConfigManager(p)
	env := map[string]string{EnvToken: "from-env", EnvTimezone: "America/Mexico_City"}
	m.SetEnvLookup(func(k string) (string, bool) { v, ok := env[k]; return v, ok })

	cfg, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Telegram.Token != "from-env" || cfg.Timezone() != "America/Mexico_City" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestDefaultsAndToken(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	if cfg.Timezone() != DefaultTimezone {
		t.Fatalf("Timezone = %q", cfg.Timezone())
	}
	if err := RequireToken(cfg); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("RequireToken = %v", err)
	}
	cfg.Telegram.Token = "x"
	if err := RequireToken(cfg); err != nil {
		t.Fatalf("RequireToken = %v", err)
	}
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	t.Setenv("REMINDBOT_TEST_KEEP", "shell")
	dir := t.TempDir()
	p := writeFile(t, dir, ".env", "REMINDBOT_TEST_KEEP=file\nREMINDBOT_TEST_NEW=file\n")
	t.Cleanup(func() { os.Unsetenv("REMINDBOT_TEST_NEW") })

	if err := LoadDotEnv(p, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("REMINDBOT_TEST_KEEP"); got != "shell" {
		t.Fatalf("existing var overwritten: %q", got)
	}
	if got := os.Getenv("REMINDBOT_TEST_NEW"); got != "file" {
		t.Fatalf("new var = %q", got)
	}
}

func TestWatchPublishesValidChanges(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := writeFile(t, dir, "config.json", `{"logging":{"level":"info"}}`)
	m := NewConfigManager(p)
	m.SetEnvLookup(noEnv)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ch := m.Subscribe(4)
	defer m.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Watch(ctx) }()
	time.Sleep(200 * time.Millisecond)

	// An invalid edit is never published.
	writeFile(t, dir, "config.json", `{"logging":{"level":"info"},"bogus":1}`)
	time.Sleep(500 * time.Millisecond)
	writeFile(t, dir, "config.json", `{"logging":{"level":"debug"}}`)

	select {
	case cfg := <-ch:
		if cfg.Logging.Level != "debug" {
			t.Fatalf("published level = %q", cfg.Logging.Level)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload published")
	}
	if m.Get().Logging.Level != "debug" {
		t.Fatal("reload was not committed")
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{Telegram: TelegramConfig{Token: "a"}, Reminders: RemindersConfig{ConfirmWindow: "60s"}}
	newCfg := &Config{Telegram: TelegramConfig{Token: "a"}, Reminders: RemindersConfig{ConfirmWindow: "30s"}, Scheduler: SchedulerConfig{Timezone: "UTC"}}
	changed, _ := SummarizeConfigChange(oldCfg, newCfg)
	if strings.Join(changed, ",") != "scheduler,reminders" {
		t.Fatalf("changed = %v", changed)
	}
}
