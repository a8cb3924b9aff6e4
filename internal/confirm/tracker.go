// Package confirm tracks the "did you take it?" window that follows a medicine reminder.
package confirm

import (
	"fmt"
	"sync"
	"time"
)

const DefaultWindow = 60 * time.Second

type Answer int

const (
	Yes Answer = iota + 1
	No
)

// Pending is an open confirmation. At most one exists per chat.
type Pending struct {
	ChatID     int64
	ReminderID string
	Label      string
	ArmedAt    time.Time
}

// Stopper cancels a timer. *time.Timer and *scheduler.Job both satisfy it.
type Stopper interface {
	Stop() bool
}

// AfterFunc arms a one-shot timer.
type AfterFunc func(name string, d time.Duration, fn func()) Stopper

type slot struct {
	p     Pending
	timer Stopper
	ver   uint64
}

type Tracker struct {
	mu       sync.Mutex
	window   time.Duration
	after    AfterFunc
	onExpire func(Pending)
	now      func() time.Time
	ver      uint64
	pending  map[int64]*slot
}

// New builds a tracker. onExpire runs on whatever goroutine after dispatches to.
func New(window time.Duration, after AfterFunc, onExpire func(Pending)) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	if after == nil {
		after = func(_ string, d time.Duration, fn func()) Stopper { return time.AfterFunc(d, fn) }
	}
	return &Tracker{
		window:   window,
		after:    after,
		onExpire: onExpire,
		now:      time.Now,
		pending:  map[int64]*slot{},
	}
}

func (t *Tracker) Window() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.window
}

// SetWindow changes the window for confirmations armed from now on.
func (t *Tracker) SetWindow(d time.Duration) {
	if d <= 0 {
		return
	}
	t.mu.Lock()
	t.window = d
	t.mu.Unlock()
}

// Arm opens a confirmation for p.ChatID, cancelling any earlier one first.
// It reports whether an earlier confirmation was superseded.
func (t *Tracker) Arm(p Pending) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	old, superseded := t.pending[p.ChatID]
	if superseded && old.timer != nil {
		old.timer.Stop()
	}
	if p.ArmedAt.IsZero() {
		p.ArmedAt = t.now()
	}
	t.ver++
	s := &slot{p: p, ver: t.ver}
	t.pending[p.ChatID] = s

	chatID, ver := p.ChatID, s.ver
	s.timer = t.after(fmt.Sprintf("confirm:%d", chatID), t.window, func() { t.expire(chatID, ver) })
	return superseded
}

// Resolve closes the chat's confirmation because the user answered.
func (t *Tracker) Resolve(chatID int64) (Pending, bool) {
	return t.take(chatID)
}

// Cancel drops the chat's confirmation without notifying anyone.
func (t *Tracker) Cancel(chatID int64) bool {
	_, ok := t.take(chatID)
	return ok
}

func (t *Tracker) Get(chatID int64) (Pending, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.pending[chatID]
	if !ok {
		return Pending{}, false
	}
	return s.p, true
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// StopAll cancels every open confirmation.
func (t *Tracker) StopAll() {
	t.mu.Lock()
	all := t.pending
	t.pending = map[int64]*slot{}
	t.mu.Unlock()
	for _, s := range all {
		if s.timer != nil {
			s.timer.Stop()
		}
	}
}

func (t *Tracker) take(chatID int64) (Pending, bool) {
	t.mu.Lock()
	s, ok := t.pending[chatID]
	if ok {
		delete(t.pending, chatID)
	}
	t.mu.Unlock()
	if !ok {
		return Pending{}, false
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	return s.p, true
}

func (t *Tracker) expire(chatID int64, ver uint64) {
	t.mu.Lock()
	s, ok := t.pending[chatID]
	// A newer Arm or an answer got here first.
	if !ok || s.ver != ver {
		t.mu.Unlock()
		return
	}
	delete(t.pending, chatID)
	t.mu.Unlock()

	if t.onExpire != nil {
		t.onExpire(s.p)
	}
}
