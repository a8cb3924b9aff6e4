package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"remindbot/internal/eventbus"
	"remindbot/internal/intake"
	"remindbot/internal/recurrence"
	"remindbot/internal/task/scheduler"
	"remindbot/internal/transport"
	logx "remindbot/pkg/logx"
)

type sent struct {
	chatID int64
	text   string
	opt    *transport.SendOptions
}

type fakeOut struct {
	mu   sync.Mutex
	msgs []sent
}

func (f *fakeOut) SendText(_ context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sent{chatID: to.ChatID, text: text, opt: opt})
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(f.msgs)}, nil
}

func (f *fakeOut) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.msgs...)
}

func (f *fakeOut) last(t *testing.T) sent {
	t.Helper()
	msgs := f.all()
	if len(msgs) == 0 {
		t.Fatal("nothing was sent")
	}
	return msgs[len(msgs)-1]
}

type fakeAcks struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeAcks) AnswerCallback(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeAcks) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return "<none>"
	}
	return f.texts[len(f.texts)-1]
}

type harness struct {
	b    *Bot
	out  *fakeOut
	acks *fakeAcks
	bus  eventbus.Bus
	mb   *Mailbox
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	mb := NewMailbox(16)
	sched := scheduler.New(scheduler.Config{Timezone: "UTC"}, logx.Nop(), scheduler.WithExecutor(mb.Post))
	ctx, cancel := context.WithCancel(context.Background())
	sched.Start(ctx)
	t.Cleanup(func() {
		cancel()
		sched.Stop(context.Background())
		mb.Close()
	})

	h := &harness{out: &fakeOut{}, acks: &fakeAcks{}, bus: eventbus.New(), mb: mb}
	b, err := New(cfg, Deps{Out: h.out, Callbacks: h.acks, Scheduler: sched, Mailbox: mb, Bus: h.bus})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.b = b
	return h
}

func (h *harness) say(chatID int64, lines ...string) {
	for _, s := range lines {
		h.b.handleUpdate(context.Background(), transport.Update{
			Kind:    transport.UpdateMessage,
			Message: &transport.Message{ChatID: chatID, FromID: chatID, Text: s},
		})
	}
}

func (h *harness) press(chatID int64, data string) {
	h.b.handleUpdate(context.Background(), transport.Update{
		Kind:     transport.UpdateCallback,
		Callback: &transport.Callback{ID: "cb1", ChatID: chatID, FromID: chatID, Data: data},
	})
}

func (h *harness) idOf(t *testing.T, chatID int64, label string) string {
	t.Helper()
	for _, it := range h.b.Store().List(chatID) {
		if it.Label == label {
			return it.ID
		}
	}
	t.Fatalf("no reminder %q in chat %d", label, chatID)
	return ""
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

func drain(ch <-chan eventbus.Event) []eventbus.Event {
	var out []eventbus.Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestMedicineWizardSchedulesDaily(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	h.say(42, "/recordar", "Aspirina", "Diaria", "08:30")

	got := h.out.last(t)
	for _, want := range []string{"Recordatorio establecido", "Aspirina", "Diaria", "08:30", "Próximo aviso"} {
		if !strings.Contains(got.text, want) {
			t.Fatalf("summary %q lacks %q", got.text, want)
		}
	}
	if got.opt == nil || got.opt.ParseMode != "HTML" || got.opt.Keyboard == nil || !got.opt.Keyboard.Remove {
		t.Fatalf("summary options = %+v", got.opt)
	}

	items := h.b.Store().List(42)
	if len(items) != 1 || items[0].Label != "Aspirina" || items[0].Rule.Kind != recurrence.KindDaily {
		t.Fatalf("store = %+v", items)
	}
	if items[0].Next.IsZero() {
		t.Fatal("daily reminder has no next occurrence")
	}
	if h.b.sessions.Len() != 0 {
		t.Fatal("session must end on completion")
	}
}

func TestWeeklySummaryListsDaysInWeekOrder(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	h.say(1, "/remind", "Vitamina D", "X veces a la semana", "21:00", "Viernes", "Lunes", "Listo")

	got := h.out.last(t)
	if !strings.Contains(got.text, "Lunes, Viernes") {
		t.Fatalf("summary %q should list days in week order", got.text)
	}
	items := h.b.Store().List(1)
	if len(items) != 1 || items[0].Rule.Days != recurrence.NewDaySet(time.Monday, time.Friday) {
		t.Fatalf("store = %+v", items)
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})

	h.say(5, "/cancelar")
	if got := h.out.last(t).text; got != msgNothingToCancel {
		t.Fatalf("cancel without session = %q", got)
	}

	h.say(5, "/recordar", "Aspirina", "Cancelar")
	got := h.out.last(t)
	if got.text != intake.MsgCancelled || !got.opt.Keyboard.Remove {
		t.Fatalf("typed cancel = %+v", got)
	}

	h.say(5, "/agua", "/cancel")
	if got := h.out.last(t).text; got != intake.MsgCancelled {
		t.Fatalf("command cancel = %q", got)
	}
	if h.b.Store().Len(5) != 0 || h.b.sessions.Len() != 0 {
		t.Fatal("cancel must leave no reminder and no session")
	}
}

func TestTextWithoutSessionAndUnknownCommand(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	h.say(9, "hola")
	if got := h.out.last(t).text; got != msgNoSession {
		t.Fatalf("free text = %q", got)
	}
	h.say(9, "/foo")
	if got := h.out.last(t).text; got != msgUnknownCommand {
		t.Fatalf("unknown command = %q", got)
	}
}

func TestNewCommandReplacesSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	h.say(3, "/recordar", "Aspirina", "/agua", "170", "150")

	items := h.b.Store().List(3)
	if len(items) != 1 || items[0].Rule.Kind != recurrence.KindBurst {
		t.Fatalf("store = %+v, want only the water plan", items)
	}
}

func TestWaterPlanAndBurstExhaustion(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	events, unsub := h.bus.Subscribe(32)
	defer unsub()

	h.say(8, "/agua", "170", "150")
	if got := h.out.last(t).text; !strings.Contains(got, "9 vasos, uno cada 106 minutos") {
		t.Fatalf("plan message = %q", got)
	}
	items := h.b.Store().List(8)
	if len(items) != 1 || items[0].Rule.Times != 9 || items[0].Rule.Every != 106*time.Minute {
		t.Fatalf("store = %+v", items)
	}
	id := items[0].ID

	h.b.onWaterFire(context.Background(), 8, id, 9, scheduler.Fire{Seq: 1})
	if got := h.out.last(t).text; got != "Recordatorio: Es hora de tomar un vaso de agua (1 de 9)." {
		t.Fatalf("first glass = %q", got)
	}
	h.b.onWaterFire(context.Background(), 8, id, 9, scheduler.Fire{Seq: 9, Last: true})
	if got := h.out.last(t).text; got != msgWaterDone {
		t.Fatalf("last glass = %q", got)
	}
	if h.b.Store().Len(8) != 0 {
		t.Fatal("exhausted burst must leave the store")
	}

	var removed bool
	for _, e := range drain(events) {
		if e.Type == eventbus.ReminderRemoved && e.Data.(eventbus.ReminderEvent).Reason == reasonExhausted {
			removed = true
		}
	}
	if !removed {
		t.Fatal("missing reminder.removed(exhausted) event")
	}
}

func TestDeleteByButton(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	h.say(2, "/recordar", "Aspirina", "Diaria", "08:00")
	h.say(2, "/recordar", "Ibuprofeno", "Diaria", "20:00")

	h.say(2, "/eliminar")
	menu := h.out.last(t)
	if menu.opt.Keyboard == nil || len(menu.opt.Keyboard.Inline) != 3 {
		t.Fatalf("menu keyboard = %+v", menu.opt.Keyboard)
	}
	ibuprofeno := h.idOf(t, 2, "Ibuprofeno")
	if got := menu.opt.Keyboard.Inline[1][0].Data; got != "del:pick:"+ibuprofeno {
		t.Fatalf("second button data = %q", got)
	}

	h.press(2, "del:pick:"+ibuprofeno)
	if got := h.out.last(t).text; got != "Recordatorio eliminado: Ibuprofeno." {
		t.Fatalf("removal reply = %q", got)
	}
	items := h.b.Store().List(2)
	if len(items) != 1 || items[0].Label != "Aspirina" {
		t.Fatalf("store = %+v", items)
	}

	// The menu is single-use.
	h.press(2, "del:pick:"+h.idOf(t, 2, "Aspirina"))
	if got := h.acks.last(); got != msgMenuExpired {
		t.Fatalf("stale press toast = %q", got)
	}
	if h.b.Store().Len(2) != 1 {
		t.Fatal("stale press must not delete")
	}
}

func TestDeleteInvalidSelection(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	h.say(4, "/recordar", "Aspirina", "Diaria", "08:00", "/eliminar")

	h.press(4, "del:pick:7")
	if got := h.out.last(t).text; got != msgBadSelection {
		t.Fatalf("unknown id reply = %q", got)
	}
	if h.b.sessions.Len() != 0 {
		t.Fatal("session must end after a bad selection")
	}
	if h.b.Store().Len(4) != 1 {
		t.Fatal("bad selection must not delete")
	}

	h.say(4, "/eliminar")
	h.press(4, "del:cancel")
	if got := h.out.last(t).text; got != intake.MsgDeleteAbort {
		t.Fatalf("cancel reply = %q", got)
	}

	h.say(6, "/eliminar")
	if got := h.out.last(t).text; got != msgNoReminders {
		t.Fatalf("empty delete = %q", got)
	}
}

func TestDeleteUsesMenuSnapshot(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	h.say(7, "/recordar", "A", "Diaria", "08:00")
	h.say(7, "/recordar", "B", "Diaria", "09:00")
	h.say(7, "/eliminar")

	a, b := h.idOf(t, 7, "A"), h.idOf(t, 7, "B")
	if _, err := h.b.Store().RemoveByID(7, a); err != nil {
		t.Fatalf("RemoveByID: %v", err)
	}

	// "B" is still removed by its own button after the store shifted.
	h.press(7, "del:pick:"+b)
	if got := h.out.last(t).text; got != "Recordatorio eliminado: B." {
		t.Fatalf("reply = %q", got)
	}
	if h.b.Store().Len(7) != 0 {
		t.Fatal("store should be empty")
	}
}

func TestDeleteFromOlderMenuTargetsLabelledReminder(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	h.say(8, "/recordar", "X", "Diaria", "08:00")
	h.say(8, "/recordar", "Y", "Diaria", "09:00")
	h.say(8, "/recordar", "Z", "Diaria", "10:00")
	x, y, z := h.idOf(t, 8, "X"), h.idOf(t, 8, "Y"), h.idOf(t, 8, "Z")

	// Two menus are shown; only the second one owns the session.
	h.say(8, "/eliminar")
	old := h.out.last(t).opt.Keyboard
	h.say(8, "/eliminar")
	h.press(8, "del:pick:"+x)

	// A third menu lists Y and Z. The first menu's "2. Y" button is tapped.
	h.say(8, "/eliminar")
	h.press(8, old.Inline[1][0].Data)
	if got := h.out.last(t).text; got != "Recordatorio eliminado: Y." {
		t.Fatalf("reply = %q", got)
	}
	items := h.b.Store().List(8)
	if len(items) != 1 || items[0].ID != z {
		t.Fatalf("store = %+v, want only Z", items)
	}

	// An id that is not on the open menu never deletes anything.
	h.say(8, "/eliminar")
	h.press(8, "del:pick:"+y)
	if got := h.out.last(t).text; got != msgBadSelection {
		t.Fatalf("foreign id reply = %q", got)
	}
	if h.b.Store().Len(8) != 1 {
		t.Fatal("foreign id must not delete")
	}
}

func TestMedicineFireAndConfirm(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{ConfirmWindow: time.Hour})
	h.say(11, "/recordar", "Aspirina", "Diaria", "08:30")
	id := h.b.Store().List(11)[0].ID

	h.b.onMedicineFire(context.Background(), 11, id, "Aspirina", scheduler.Fire{Seq: 1})
	got := h.out.last(t)
	if got.text != "Recordatorio: Es hora de tomar tu medicina Aspirina." {
		t.Fatalf("notification = %q", got.text)
	}
	kb := got.opt.Keyboard
	if kb == nil || len(kb.Inline) != 1 || kb.Inline[0][0].Data != "conf:yes" || kb.Inline[0][1].Data != "conf:no" {
		t.Fatalf("confirmation keyboard = %+v", kb)
	}
	if h.b.confirms.Len() != 1 {
		t.Fatal("firing must arm a confirmation")
	}

	h.press(11, "conf:yes")
	if got := h.out.last(t).text; !strings.Contains(got, "tomaste tu medicina Aspirina") {
		t.Fatalf("yes ack = %q", got)
	}
	if h.b.confirms.Len() != 0 {
		t.Fatal("answer must close the confirmation")
	}

	h.press(11, "conf:no")
	if got := h.acks.last(); got != msgConfirmGone {
		t.Fatalf("late answer toast = %q", got)
	}
}

func TestFireAfterDeleteIsSilent(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	h.say(12, "/recordar", "Aspirina", "Diaria", "08:30")
	id := h.b.Store().List(12)[0].ID
	h.say(12, "/eliminar")
	h.press(12, "del:pick:"+id)

	before := len(h.out.all())
	h.b.onMedicineFire(context.Background(), 12, id, "Aspirina", scheduler.Fire{Seq: 1})
	if after := len(h.out.all()); after != before {
		t.Fatalf("deleted reminder still notified (%d -> %d messages)", before, after)
	}
}

func TestConfirmationExpiresOnLoop(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{ConfirmWindow: 20 * time.Millisecond})
	events, unsub := h.bus.Subscribe(32)
	defer unsub()
	h.say(13, "/recordar", "Aspirina", "Diaria", "08:30")
	id := h.b.Store().List(13)[0].ID

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.b.Run(ctx, make(chan transport.Update)) }()

	h.mb.Post(func() {
		h.b.onMedicineFire(ctx, 13, id, "Aspirina", scheduler.Fire{Seq: 1})
	})
	want := "No recibí tu confirmación. Recuerda tomar tu medicina Aspirina."
	waitFor(t, func() bool {
		for _, m := range h.out.all() {
			if m.text == want {
				return true
			}
		}
		return false
	})

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}

	var expired bool
	for _, e := range drain(events) {
		if e.Type == eventbus.ConfirmationExpired {
			expired = true
		}
	}
	if !expired {
		t.Fatal("missing confirmation.expired event")
	}
}

func TestCommandMenu(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	menu := h.b.CommandMenu()
	if len(menu) != 7 {
		t.Fatalf("menu has %d entries", len(menu))
	}
	for _, c := range menu {
		if strings.HasPrefix(c.Command, "/") || c.Description == "" {
			t.Fatalf("bad entry %+v", c)
		}
		if c.Command == "remind" || c.Command == "list" {
			t.Fatalf("alias %q leaked into the menu", c.Command)
		}
	}
}

func TestParseCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		cmd  string
		args int
		ok   bool
	}{
		{"/recordar", "/recordar", 0, true},
		{"  /Recordar@MiBot ahora  ", "/recordar", 1, true},
		{"hola", "", 0, false},
		{"/", "", 0, false},
	}
	for _, tt := range tests {
		cmd, args, ok := parseCommand(tt.in)
		if cmd != tt.cmd || len(args) != tt.args || ok != tt.ok {
			t.Fatalf("parseCommand(%q) = %q, %v, %v", tt.in, cmd, args, ok)
		}
	}
}

func TestServeRecoversPanic(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	err := h.b.serve(context.Background(), &Request{ChatID: 1}, func(context.Context, *Request) error { panic("boom") })
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v", err)
	}

	// The chat keeps working after a panicking update.
	h.say(1, "/recordar")
	if h.b.sessions.Len() != 1 {
		t.Fatal("wizard did not start after a recovered panic")
	}
}

func TestServeSetsDeadline(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Config{})
	var left time.Duration
	err := h.b.serve(context.Background(), &Request{}, func(ctx context.Context, _ *Request) error {
		dl, ok := ctx.Deadline()
		if !ok {
			return errors.New("no deadline")
		}
		left = time.Until(dl)
		return nil
	})
	if err != nil || left <= 0 || left > handlerTimeout {
		t.Fatalf("err = %v, time left = %v", err, left)
	}
}
