// Package scheduler turns recurrence rules into live timers.
//
// Calendar rules (daily, weekly) run on robfig/cron in the configured timezone.
// Bursts and one-shot jobs run on time.AfterFunc. Every firing is handed to an
// Executor, so the caller decides which goroutine runs the callback.
package scheduler
