package intake

import (
	"fmt"
	"strings"

	"remindbot/internal/reminder"
	"remindbot/internal/transport"
	"remindbot/pkg/tgui"
)

// Callback data for the delete menu: "del:pick:<reminder id>" and "del:cancel".
const (
	DeletePrefix = "del"
	ActionPick   = "pick"
	ActionCancel = "cancel"
)

const (
	msgPickReminder = "Selecciona el recordatorio que deseas eliminar:"
	msgUseButtons   = "Usa los botones del mensaje anterior para elegir un recordatorio, o envía \"Cancelar\"."
	MsgDeleteAbort  = "No se eliminó ningún recordatorio."
)

// DeleteFlow holds the menu exactly as shown. A pressed id must belong to this
// snapshot; buttons left over from an older menu are rejected.
type DeleteFlow struct {
	items []reminder.Listing
}

func NewDeleteFlow(items []reminder.Listing) *DeleteFlow {
	return &DeleteFlow{items: append([]reminder.Listing(nil), items...)}
}

func (f *DeleteFlow) Kind() Kind { return KindDelete }

func (f *DeleteFlow) Len() int { return len(f.items) }

func (f *DeleteFlow) Prompt() Reply {
	btns := make([]transport.Button, 0, len(f.items)+1)
	for i, it := range f.items {
		label := tgui.TruncRunes(fmt.Sprintf("%d. %s", i+1, it.Label), 40)
		btns = append(btns, tgui.Btn(label, tgui.Data(DeletePrefix, ActionPick, it.ID)))
	}
	kb := tgui.Grid(1, btns)
	kb.Inline = append(kb.Inline, []transport.Button{tgui.Btn(CancelWord, tgui.Data(DeletePrefix, ActionCancel, ""))})
	return Reply{Text: msgPickReminder, Keyboard: kb}
}

// Step handles typed text while the menu is open. Only "Cancelar" ends it.
func (f *DeleteFlow) Step(input string) Result {
	input = strings.TrimSpace(input)
	if isCancel(input) {
		return cancelled(MsgDeleteAbort)
	}
	return next(msgUseButtons, nil)
}

// Select returns the listed reminder whose id was pressed.
func (f *DeleteFlow) Select(payload string) (reminder.Listing, error) {
	if payload != "" {
		for _, it := range f.items {
			if it.ID == payload {
				return it, nil
			}
		}
	}
	return reminder.Listing{}, fmt.Errorf("%w: selection %q", reminder.ErrNotFound, payload)
}
