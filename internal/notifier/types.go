package notifier

import (
	"context"
	"time"

	"remindbot/internal/transport"
)

// Config controls the async delivery pipeline.
type Config struct {
	Workers       int
	QueueSize     int
	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
}

// Sender delivers one message. The gateway adapter implements it.
type Sender interface {
	SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error)
}

// Message is one queued outbound text.
type Message struct {
	To      transport.ChatTarget
	Text    string
	Options *transport.SendOptions
}

// Event types published on the bus.
const (
	EventSent    = "notifier.sent"
	EventFailed  = "notifier.failed"
	EventDropped = "notifier.dropped"
)

// DeliveryEvent is the Data of notifier.* events.
type DeliveryEvent struct {
	ChatID   int64
	Attempts int
	Error    string
}
