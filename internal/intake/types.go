// Package intake holds the per-chat wizards that collect reminder requests.
//
// A Flow is a small state machine. Step is a pure function of the current
// state and one input; it never schedules or sends anything itself. The caller
// renders the returned replies and, on Completed, reads the typed draft off
// the concrete flow.
package intake

import (
	"strings"

	"remindbot/internal/transport"
)

type Kind int

const (
	KindMedicine Kind = iota + 1
	KindWater
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindMedicine:
		return "medicine"
	case KindWater:
		return "water"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Reserved inputs.
const (
	CancelWord = "Cancelar"
	DoneWord   = "Listo"
)

const MsgCancelled = "El recordatorio ha sido cancelado."

type Outcome int

const (
	// Continue keeps the session; the replies re-prompt or ask the next question.
	Continue Outcome = iota
	// Cancelled ends the session without side effects.
	Cancelled
	// Completed ends the session; the draft on the flow is ready.
	Completed
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Cancelled:
		return "cancelled"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Reply is one outgoing message.
type Reply struct {
	Text     string
	Keyboard *transport.Keyboard
}

type Result struct {
	Outcome Outcome
	Replies []Reply
}

// Flow is one wizard kind. Implementations are *MedicineFlow, *WaterFlow and *DeleteFlow.
type Flow interface {
	Kind() Kind
	// Prompt is the first message of the wizard.
	Prompt() Reply
	Step(input string) Result
}

func next(text string, kb *transport.Keyboard) Result {
	return Result{Outcome: Continue, Replies: []Reply{{Text: text, Keyboard: kb}}}
}

func cancelled(text string) Result {
	return Result{Outcome: Cancelled, Replies: []Reply{{Text: text, Keyboard: &transport.Keyboard{Remove: true}}}}
}

func isCancel(input string) bool { return strings.EqualFold(input, CancelWord) }
