// Package logx configures remindbot's structured logging.
//
// Logger is a small value type on top of zerolog:
//   - Console output stays readable (short timestamp + file:line caller)
//   - File output is JSON
//   - An optional Telegram admin-chat sink is filtered by level and rate limited
package logx
