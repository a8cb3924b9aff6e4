package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"remindbot/internal/confirm"
	"remindbot/internal/eventbus"
	"remindbot/internal/intake"
	"remindbot/internal/reminder"
	"remindbot/internal/task/scheduler"
	"remindbot/internal/transport"
	"remindbot/pkg/tgui"
	logx "remindbot/pkg/logx"
)

var (
	ErrNoSender    = errors.New("bot: outbound sender required")
	ErrNoScheduler = errors.New("bot: scheduler required")
)

// Bot is the dispatcher. Every handler, timer firing and confirmation expiry
// runs on the goroutine that calls Run, one at a time.
type Bot struct {
	log  logx.Logger
	out  tgui.Sender
	acks CallbackAnswerer
	bus  eventbus.Bus

	sched    *scheduler.Service
	mb       *Mailbox
	store    *reminder.Store
	sessions *intake.Registry
	confirms *confirm.Tracker

	cfgMu sync.Mutex
	cfg   Config

	commands []command
	byName   map[string]*command
}

func New(cfg Config, d Deps) (*Bot, error) {
	if d.Out == nil {
		return nil, ErrNoSender
	}
	if d.Scheduler == nil {
		return nil, ErrNoScheduler
	}
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	if d.Mailbox == nil {
		d.Mailbox = NewMailbox(0)
	}
	if d.Store == nil {
		d.Store = reminder.NewStore()
	}
	if d.Sessions == nil {
		d.Sessions = intake.NewRegistry()
	}

	b := &Bot{
		log:      d.Log,
		out:      d.Out,
		acks:     d.Callbacks,
		bus:      d.Bus,
		sched:    d.Scheduler,
		mb:       d.Mailbox,
		store:    d.Store,
		sessions: d.Sessions,
	}
	b.cfg = normalize(cfg)
	b.confirms = confirm.New(b.cfg.ConfirmWindow, b.afterFunc, b.onConfirmExpired)
	b.registerCommands()
	return b, nil
}

func normalize(cfg Config) Config {
	if cfg.ConfirmWindow <= 0 {
		cfg.ConfirmWindow = confirm.DefaultWindow
	}
	if cfg.ActiveMinutes <= 0 {
		cfg.ActiveMinutes = reminder.DefaultActiveMinutes
	}
	if cfg.GlassLiters <= 0 {
		cfg.GlassLiters = reminder.DefaultGlass
	}
	return cfg
}

// Apply swaps the tunables. Open confirmations keep the window they were armed with.
func (b *Bot) Apply(cfg Config) {
	cfg = normalize(cfg)
	b.cfgMu.Lock()
	b.cfg = cfg
	b.cfgMu.Unlock()
	b.confirms.SetWindow(cfg.ConfirmWindow)
}

func (b *Bot) config() Config {
	b.cfgMu.Lock()
	defer b.cfgMu.Unlock()
	return b.cfg
}

// Store exposes the reminder registry for status output and shutdown.
func (b *Bot) Store() *reminder.Store { return b.store }

// Run consumes updates and posted work until ctx ends or updates is closed.
func (b *Bot) Run(ctx context.Context, updates <-chan transport.Update) error {
	b.log.Info("dispatcher started")
	defer b.log.Info("dispatcher stopped")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, up)
		case fn := <-b.mb.C():
			b.runPosted(fn)
		}
	}
}

// Shutdown stops every reminder job and open confirmation. Nothing survives a
// restart, so this is the end of every schedule.
func (b *Bot) Shutdown() int {
	b.confirms.StopAll()
	n := b.store.StopAll()
	b.log.Info("reminders stopped", logx.Int("count", n))
	return n
}

func (b *Bot) runPosted(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("posted work panicked", logx.Any("panic", r))
		}
	}()
	fn()
}

func (b *Bot) handleUpdate(ctx context.Context, up transport.Update) {
	req := &Request{Update: up, ReqID: newReqID()}
	switch up.Kind {
	case transport.UpdateMessage:
		if up.Message == nil {
			return
		}
		req.ChatID = up.Message.ChatID
		req.FromID = up.Message.FromID
		req.Text = up.Message.Text
		if cmd, args, ok := parseCommand(up.Message.Text); ok {
			req.Command = cmd
			req.Args = args
		}
	case transport.UpdateCallback:
		if up.Callback == nil {
			return
		}
		req.ChatID = up.Callback.ChatID
		req.FromID = up.Callback.FromID
		req.Command = "cb"
	default:
		return
	}
	req.Logger = b.log.With(
		logx.String("rid", req.ReqID),
		logx.Int64("chat_id", req.ChatID),
		logx.String("cmd", req.Command),
	)
	_ = b.serve(ctx, req, b.route)
}

func (b *Bot) route(ctx context.Context, req *Request) error {
	switch req.Update.Kind {
	case transport.UpdateCallback:
		return b.onCallback(ctx, req)
	case transport.UpdateMessage:
		if req.Command != "" {
			return b.onCommand(ctx, req)
		}
		return b.onText(ctx, req)
	}
	return nil
}

// afterFunc runs confirmation timers through the scheduler so expiry lands
// on the dispatcher loop.
func (b *Bot) afterFunc(name string, d time.Duration, fn func()) confirm.Stopper {
	return b.sched.ScheduleOnce(name, d, func(context.Context, scheduler.Fire) { fn() })
}

func (b *Bot) send(ctx context.Context, chatID int64, m tgui.Message) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := m.Send(ctx, b.out, transport.ChatTarget{ChatID: chatID})
	if err != nil {
		b.log.Warn("send failed", logx.Int64("chat_id", chatID), logx.Err(err))
	}
	return err
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string, kb *transport.Keyboard) error {
	return b.send(ctx, chatID, tgui.Plain(text, kb))
}

func (b *Bot) sendReplies(ctx context.Context, chatID int64, replies []intake.Reply) error {
	var first error
	for _, r := range replies {
		if err := b.sendText(ctx, chatID, r.Text, r.Keyboard); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (b *Bot) publish(typ string, ev eventbus.ReminderEvent) {
	if b.bus == nil {
		return
	}
	b.bus.Publish(eventbus.Event{Type: typ, Data: ev})
}
