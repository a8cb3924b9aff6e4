package tgui

import "remindbot/internal/transport"

// Inline is a small builder for inline keyboards.
type Inline struct {
	rows [][]transport.Button
}

func NewInline() *Inline { return &Inline{} }

// Row appends a row of buttons.
func (i *Inline) Row(btn ...transport.Button) *Inline {
	if len(btn) == 0 {
		return i
	}
	i.rows = append(i.rows, append([]transport.Button(nil), btn...))
	return i
}

// Keyboard returns the built inline keyboard.
func (i *Inline) Keyboard() *transport.Keyboard {
	return &transport.Keyboard{Inline: i.rows}
}

// Btn creates a callback button with raw callback data (not encoded).
// Use Data to build "prefix:action:payload".
func Btn(text, data string) transport.Button {
	return transport.Button{Text: text, Data: data}
}

// Grid splits buttons into rows of cols.
func Grid(cols int, buttons []transport.Button) *transport.Keyboard {
	if cols <= 0 {
		cols = 1
	}
	in := NewInline()
	for start := 0; start < len(buttons); start += cols {
		end := start + cols
		if end > len(buttons) {
			end = len(buttons)
		}
		in.Row(buttons[start:end]...)
	}
	return in.Keyboard()
}

// Options builds a one-time reply keyboard with one option per row.
func Options(options ...string) *transport.Keyboard {
	rows := make([][]string, 0, len(options))
	for _, o := range options {
		rows = append(rows, []string{o})
	}
	return &transport.Keyboard{Reply: rows}
}

// OptionGrid builds a reply keyboard with cols options per row, plus trailing
// full-width rows.
func OptionGrid(cols int, options []string, tail ...string) *transport.Keyboard {
	if cols <= 0 {
		cols = 1
	}
	var rows [][]string
	for start := 0; start < len(options); start += cols {
		end := start + cols
		if end > len(options) {
			end = len(options)
		}
		rows = append(rows, append([]string(nil), options[start:end]...))
	}
	for _, t := range tail {
		rows = append(rows, []string{t})
	}
	return &transport.Keyboard{Reply: rows}
}

// RemoveKeyboard hides any reply keyboard on the client.
func RemoveKeyboard() *transport.Keyboard {
	return &transport.Keyboard{Remove: true}
}
