package bot

import (
	"context"
	"fmt"
	"strings"

	"remindbot/internal/intake"
	"remindbot/internal/transport"
	"remindbot/pkg/tgui"
	logx "remindbot/pkg/logx"
)

const (
	msgNoSession       = "Entrada no válida. Usa /recordar o /agua para crear un recordatorio, o /ayuda para ver los comandos."
	msgUnknownCommand  = "Comando no reconocido. Usa /ayuda para ver los comandos disponibles."
	msgNothingToCancel = "No hay ninguna operación en curso."
	msgNoReminders     = "No tienes recordatorios activos. Usa /recordar o /agua para crear uno."
)

func (b *Bot) registerCommands() {
	b.commands = []command{
		{name: "/start", desc: "Mostrar la bienvenida", handle: b.cmdHelp},
		{name: "/ayuda", aliases: []string{"/help"}, desc: "Ver los comandos disponibles", handle: b.cmdHelp},
		{name: "/recordar", aliases: []string{"/remind"}, desc: "Crear un recordatorio de medicina", handle: b.cmdRemind},
		{name: "/agua", aliases: []string{"/water"}, desc: "Calcular y programar tu consumo de agua", handle: b.cmdWater},
		{name: "/recordatorios", aliases: []string{"/list"}, desc: "Ver tus recordatorios activos", handle: b.cmdList},
		{name: "/eliminar", aliases: []string{"/delete"}, desc: "Eliminar un recordatorio", handle: b.cmdDelete},
		{name: "/cancelar", aliases: []string{"/cancel"}, desc: "Cancelar la operación en curso", handle: b.cmdCancel},
	}
	b.byName = make(map[string]*command, len(b.commands)*2)
	for i := range b.commands {
		c := &b.commands[i]
		b.byName[c.name] = c
		for _, a := range c.aliases {
			b.byName[a] = c
		}
	}
}

// CommandMenu is the list published to the client's command menu. Aliases are left out.
func (b *Bot) CommandMenu() []transport.BotCommand {
	out := make([]transport.BotCommand, 0, len(b.commands))
	for _, c := range b.commands {
		out = append(out, transport.BotCommand{Command: strings.TrimPrefix(c.name, "/"), Description: c.desc})
	}
	return out
}

func (b *Bot) onCommand(ctx context.Context, req *Request) error {
	c, ok := b.byName[req.Command]
	if !ok {
		return b.sendText(ctx, req.ChatID, msgUnknownCommand, nil)
	}
	return c.handle(ctx, req)
}

func (b *Bot) cmdHelp(ctx context.Context, req *Request) error {
	mb := tgui.New().
		Title("👋", "Recordatorios de medicina y agua").
		Line("Te aviso cuando toca tu medicina y te ayudo a tomar suficiente agua.").
		Blank()
	for _, c := range b.commands {
		mb.HTML(tgui.JoinH(" ", tgui.Code(c.name), tgui.Esc(c.desc)))
	}
	return b.send(ctx, req.ChatID, mb.Build())
}

func (b *Bot) cmdRemind(ctx context.Context, req *Request) error {
	return b.startFlow(ctx, req, intake.NewMedicineFlow())
}

func (b *Bot) cmdWater(ctx context.Context, req *Request) error {
	return b.startFlow(ctx, req, intake.NewWaterFlow())
}

func (b *Bot) cmdList(ctx context.Context, req *Request) error {
	items := b.store.List(req.ChatID)
	if len(items) == 0 {
		return b.sendText(ctx, req.ChatID, msgNoReminders, nil)
	}
	mb := tgui.New().Title("📋", "Tus recordatorios")
	for i, it := range items {
		mb.Blank().
			HTML(tgui.JoinH(" ", tgui.Esc(fmt.Sprintf("%d.", i+1)), tgui.B(it.Label), tgui.I("("+it.Kind.String()+")"))).
			Line("   " + it.Rule.String()).
			Line("   Próximo aviso: " + b.formatTime(it.Next))
	}
	return b.send(ctx, req.ChatID, mb.Build())
}

func (b *Bot) cmdDelete(ctx context.Context, req *Request) error {
	items := b.store.List(req.ChatID)
	if len(items) == 0 {
		b.sessions.End(req.ChatID)
		return b.sendText(ctx, req.ChatID, msgNoReminders, nil)
	}
	return b.startFlow(ctx, req, intake.NewDeleteFlow(items))
}

func (b *Bot) cmdCancel(ctx context.Context, req *Request) error {
	f, ok := b.sessions.Get(req.ChatID)
	if !ok {
		return b.sendText(ctx, req.ChatID, msgNothingToCancel, nil)
	}
	b.sessions.EndIf(req.ChatID, f)
	text := intake.MsgCancelled
	if f.Kind() == intake.KindDelete {
		text = intake.MsgDeleteAbort
	}
	return b.sendText(ctx, req.ChatID, text, tgui.RemoveKeyboard())
}

// startFlow installs f as the chat's only session and sends its first prompt.
func (b *Bot) startFlow(ctx context.Context, req *Request, f intake.Flow) error {
	if prev := b.sessions.Start(req.ChatID, f); prev != nil {
		req.Logger.Debug("session replaced", logx.String("previous", prev.Kind().String()), logx.String("next", f.Kind().String()))
	}
	p := f.Prompt()
	return b.sendText(ctx, req.ChatID, p.Text, p.Keyboard)
}

// onText feeds free text to the chat's session.
func (b *Bot) onText(ctx context.Context, req *Request) error {
	f, ok := b.sessions.Get(req.ChatID)
	if !ok {
		if strings.TrimSpace(req.Text) == intake.CancelWord {
			return b.sendText(ctx, req.ChatID, msgNothingToCancel, tgui.RemoveKeyboard())
		}
		return b.sendText(ctx, req.ChatID, msgNoSession, nil)
	}

	res := f.Step(req.Text)
	err := b.sendReplies(ctx, req.ChatID, res.Replies)
	switch res.Outcome {
	case intake.Cancelled:
		b.sessions.EndIf(req.ChatID, f)
	case intake.Completed:
		b.sessions.EndIf(req.ChatID, f)
		return b.finish(ctx, req, f)
	}
	return err
}
