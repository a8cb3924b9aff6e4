package bot

import "sync"

// Mailbox carries work from timer goroutines onto the dispatcher loop.
// Its Post method is the scheduler executor in production.
type Mailbox struct {
	ch   chan func()
	done chan struct{}
	once sync.Once
}

func NewMailbox(size int) *Mailbox {
	if size <= 0 {
		size = 64
	}
	return &Mailbox{ch: make(chan func(), size), done: make(chan struct{})}
}

// Post queues fn for the loop. It blocks while the buffer is full and drops
// fn once the mailbox is closed.
func (m *Mailbox) Post(fn func()) {
	if fn == nil {
		return
	}
	select {
	case <-m.done:
		return
	default:
	}
	select {
	case m.ch <- fn:
	case <-m.done:
	}
}

// Close releases blocked posters. Queued work is discarded.
func (m *Mailbox) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *Mailbox) C() <-chan func() { return m.ch }
