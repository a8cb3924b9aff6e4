// Package bot is the conversational core: one dispatcher loop that routes
// commands, wizard input, button presses and timer firings.
//
// Reminders, sessions and pending confirmations live in memory only. A process
// restart drops every schedule.
package bot
