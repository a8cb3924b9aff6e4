package tgui

import (
	"context"
	"strings"
	"testing"

	"remindbot/internal/transport"
)

func TestTruncRunes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Paracetamol", 0, ""},
		{"Paracetamol", 20, "Paracetamol"},
		{"Paracetamol", 11, "Paracetamol"},
		{"Paracetamol", 6, "Parac…"},
		{"ñandú", 3, "ña…"},
		{"abc", 1, "…"},
	}
	for _, tt := range tests {
		if got := TruncRunes(tt.in, tt.n); got != tt.want {
			t.Fatalf("TruncRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestDataRoundTrip(t *testing.T) {
	t.Parallel()
	d := Data("del", "pick", "3")
	if d != "del:pick:3" || !ValidData(d) {
		t.Fatalf("Data = %q", d)
	}
	p, a, payload, ok := ParseData(d)
	if !ok || p != "del" || a != "pick" || payload != "3" {
		t.Fatalf("ParseData = %q %q %q %v", p, a, payload, ok)
	}
	if got := Data("conf", "yes", ""); got != "conf:yes" {
		t.Fatalf("Data without payload = %q", got)
	}
	for _, bad := range []string{"", "conf", ":yes", "conf:"} {
		if _, _, _, ok := ParseData(bad); ok {
			t.Fatalf("ParseData(%q) accepted", bad)
		}
	}
	if ValidData(strings.Repeat("x", MaxCallbackDataLen+1)) {
		t.Fatal("oversized data accepted")
	}
}

func TestKeyboards(t *testing.T) {
	t.Parallel()
	g := OptionGrid(3, []string{"Lunes", "Martes", "Miércoles", "Jueves"}, "Listo", "Cancelar")
	if len(g.Reply) != 4 || len(g.Reply[0]) != 3 || len(g.Reply[1]) != 1 || g.Reply[3][0] != "Cancelar" {
		t.Fatalf("OptionGrid = %v", g.Reply)
	}
	o := Options("Diario", "Semanal")
	if len(o.Reply) != 2 || o.Reply[1][0] != "Semanal" {
		t.Fatalf("Options = %v", o.Reply)
	}
	grid := Grid(2, []transport.Button{Btn("1", "a"), Btn("2", "b"), Btn("3", "c")})
	if len(grid.Inline) != 2 || len(grid.Inline[1]) != 1 {
		t.Fatalf("Grid = %v", grid.Inline)
	}
	yn := YesNo(Btn("Sí", "conf:yes"), Btn("No", "conf:no"))
	if len(yn.Inline) != 1 || yn.Inline[0][1].Data != "conf:no" {
		t.Fatalf("YesNo = %v", yn.Inline)
	}
	if !RemoveKeyboard().Remove {
		t.Fatal("RemoveKeyboard must set Remove")
	}
}

type captureSender struct {
	text string
	opt  *transport.SendOptions
}

func (c *captureSender) SendText(_ context.Context, _ transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	c.text, c.opt = text, opt
	return transport.MessageRef{}, nil
}

func TestBuilderEscapesAndSends(t *testing.T) {
	t.Parallel()
	m := New().
		Title("💊", "Recordatorios").
		KV("Ibuprofeno <400mg>", "08:00").
		Blank().
		Bullets("uno", "  ", "dos").
		HTML(JoinH(" ", B("a&b"), I("c"), Code("d"))).
		Build()

	want := "💊 <b>Recordatorios</b>\n" +
		"• <b>Ibuprofeno &lt;400mg&gt;</b>: 08:00\n" +
		"\n" +
		"• uno\n" +
		"• dos\n" +
		"<b>a&amp;b</b> <i>c</i> <code>d</code>"
	if m.Text != want {
		t.Fatalf("text = %q\nwant %q", m.Text, want)
	}

	var s captureSender
	if _, err := m.Send(context.Background(), &s, transport.ChatTarget{ChatID: 1}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if s.opt == nil || s.opt.ParseMode != "HTML" || !s.opt.DisablePreview {
		t.Fatalf("opts = %+v", s.opt)
	}

	p := Plain("hola", nil)
	if p.Opt.ParseMode != "" || p.Text != "hola" {
		t.Fatalf("Plain = %+v", p)
	}
}
