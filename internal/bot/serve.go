package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	logx "remindbot/pkg/logx"
)

// HandlerFunc serves one request on the dispatcher loop.
type HandlerFunc func(ctx context.Context, req *Request) error

// slowRequest is the duration above which a served request is logged at info.
const slowRequest = 750 * time.Millisecond

// serve runs h for req under handlerTimeout. A panic in h is logged with its
// stack and returned as an error; the dispatcher loop keeps running.
func (b *Bot) serve(ctx context.Context, req *Request, h HandlerFunc) (err error) {
	log := req.Logger
	if log.IsZero() {
		log = b.log
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panic", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
			err = fmt.Errorf("panic: %v", r)
		}
		b.logServed(log, req, time.Since(start), err)
	}()
	return h(ctx, req)
}

func (b *Bot) logServed(log logx.Logger, req *Request, took time.Duration, err error) {
	session := "none"
	if f, ok := b.sessions.Get(req.ChatID); ok {
		session = f.Kind().String()
	}
	fields := []logx.Field{
		logx.String("kind", string(req.Update.Kind)),
		logx.String("session", session),
		logx.Duration("took", took),
	}
	switch {
	case err != nil:
		log.Warn("update failed", append(fields, logx.Err(err))...)
	case took >= slowRequest:
		log.Info("update slow", fields...)
	default:
		log.Debug("update served", fields...)
	}
}
