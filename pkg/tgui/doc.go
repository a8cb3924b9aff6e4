// Package tgui provides small chat UI helpers:
//   - keyboard builders (reply options and inline buttons)
//   - callback data helpers (prefix:action:payload)
//   - an HTML-safe message builder
package tgui
