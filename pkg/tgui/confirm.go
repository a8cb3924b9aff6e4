package tgui

import "remindbot/internal/transport"

// YesNo builds a single-row two-button keyboard.
func YesNo(yes, no transport.Button) *transport.Keyboard {
	return NewInline().Row(yes, no).Keyboard()
}
