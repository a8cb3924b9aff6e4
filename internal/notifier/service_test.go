package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"remindbot/internal/eventbus"
	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

type recordingSender struct {
	mu       sync.Mutex
	failures int // fail this many calls first
	calls    int
	texts    []string
	block    chan struct{}
}

func (r *recordingSender) SendText(_ context.Context, to transport.ChatTarget, text string, _ *transport.SendOptions) (transport.MessageRef, error) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failures > 0 {
		r.failures--
		return transport.MessageRef{}, errors.New("flood wait")
	}
	r.texts = append(r.texts, text)
	return transport.MessageRef{ChatID: to.ChatID, MessageID: r.calls}, nil
}

func (r *recordingSender) snapshot() (int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls, append([]string(nil), r.texts...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDeliversInOrderPerChat(t *testing.T) {
	t.Parallel()
	rec := &recordingSender{}
	s := New(Config{Workers: 3, RatePerSec: 1000}, rec, logx.Nop(), nil)
	s.Start(context.Background())

	want := []string{"uno", "dos", "tres", "cuatro"}
	for _, txt := range want {
		if _, err := s.SendText(context.Background(), transport.ChatTarget{ChatID: 7}, txt, nil); err != nil {
			t.Fatalf("SendText: %v", err)
		}
	}
	waitFor(t, func() bool { _, got := rec.snapshot(); return len(got) == len(want) })
	_, got := rec.snapshot()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Stop(ctx)
	if err := s.Enqueue(Message{To: transport.ChatTarget{ChatID: 7}, Text: "late"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("Enqueue after Stop = %v", err)
	}
}

func TestRetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	rec := &recordingSender{failures: 2}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(8)
	defer unsub()

	s := New(Config{RatePerSec: 1000, RetryMax: 3, RetryBase: time.Millisecond, RetryMaxDelay: 5 * time.Millisecond}, rec, logx.Nop(), bus)
	s.Start(context.Background())
	defer s.Stop(context.Background())

	if err := s.Enqueue(Message{To: transport.ChatTarget{ChatID: 1}, Text: "hola"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	select {
	case e := <-events:
		if e.Type != EventSent {
			t.Fatalf("event = %s", e.Type)
		}
		if d := e.Data.(DeliveryEvent); d.Attempts != 3 {
			t.Fatalf("attempts = %d, want 3", d.Attempts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery event")
	}
}

func TestGivesUpAfterRetryMax(t *testing.T) {
	t.Parallel()
	rec := &recordingSender{failures: 100}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(8)
	defer unsub()

	s := New(Config{RatePerSec: 1000, RetryMax: 1, RetryBase: time.Millisecond}, rec, logx.Nop(), bus)
	s.Start(context.Background())
	defer s.Stop(context.Background())

	_ = s.Enqueue(Message{To: transport.ChatTarget{ChatID: 1}, Text: "hola"})
	select {
	case e := <-events:
		if e.Type != EventFailed {
			t.Fatalf("event = %s", e.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no failure event")
	}
	if calls, _ := rec.snapshot(); calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestQueueFullAndEmpty(t *testing.T) {
	t.Parallel()
	rec := &recordingSender{block: make(chan struct{})}
	s := New(Config{QueueSize: 1, RatePerSec: 1000}, rec, logx.Nop(), nil)
	s.Start(context.Background())

	to := transport.ChatTarget{ChatID: 3}
	if err := s.Enqueue(Message{To: to, Text: "  "}); !errors.Is(err, ErrEmpty) {
		t.Fatalf("blank text = %v", err)
	}
	// First message is picked up by the worker and blocks; the next fills the queue.
	_ = s.Enqueue(Message{To: to, Text: "a"})
	waitFor(t, func() bool {
		return s.Enqueue(Message{To: to, Text: "b"}) == nil
	})
	if err := s.Enqueue(Message{To: to, Text: "c"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("third Enqueue = %v, want ErrQueueFull", err)
	}
	close(rec.block)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestRetryDelayBounds(t *testing.T) {
	t.Parallel()
	cfg := Config{RetryBase: 100 * time.Millisecond, RetryMaxDelay: time.Second}
	for attempt := 1; attempt <= 6; attempt++ {
		d := retryDelay(cfg, attempt)
		if d <= 0 || d > time.Second {
			t.Fatalf("attempt %d: delay %v out of bounds", attempt, d)
		}
	}
	if d := retryDelay(cfg, 1); d < 70*time.Millisecond || d > 130*time.Millisecond {
		t.Fatalf("first delay %v outside jitter window", d)
	}
}
