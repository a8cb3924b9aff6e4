package transport

import "context"

type UpdateKind string

const (
	UpdateMessage  UpdateKind = "message"
	UpdateCallback UpdateKind = "callback"
)

// Update is the only inbound shape the bot core sees.
// Message maps to TextReceived, Callback maps to ButtonPressed.
type Update struct {
	Kind     UpdateKind
	Message  *Message
	Callback *Callback
}

type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromUsername string
	Text         string
}

type Callback struct {
	ID        string
	ChatID    int64
	FromID    int64
	MessageID int
	Data      string
}

type ChatTarget struct {
	ChatID int64
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Button is an inline action button carrying an opaque callback payload.
type Button struct {
	Text string
	Data string
}

// Keyboard describes the optional keyboard attached to an outgoing message.
//
// Exactly one of the following is used, checked in order:
//   - Inline: rows of action buttons (ButtonPressed on tap)
//   - Reply: rows of option labels (tapping sends the label as text)
//   - Remove: hide a previously shown reply keyboard
type Keyboard struct {
	Inline [][]Button
	Reply  [][]string
	Remove bool
}

func (k *Keyboard) IsZero() bool {
	return k == nil || (len(k.Inline) == 0 && len(k.Reply) == 0 && !k.Remove)
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
	Keyboard       *Keyboard
}

type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	AnswerCallback(ctx context.Context, callbackID string, text string) error
}

// BotCommand represents a single bot command menu entry.
type BotCommand struct {
	Command     string
	Description string
}

// CommandMenuUpdater is an optional interface that adapters can implement
// to update platform-specific bot command menus (e.g. Telegram /menu list).
type CommandMenuUpdater interface {
	UpdateMenuCommands(ctx context.Context, cmds []BotCommand) error
}
