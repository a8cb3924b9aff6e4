package bot

import (
	"context"
	"errors"
	"fmt"

	"remindbot/internal/eventbus"
	"remindbot/internal/intake"
	"remindbot/internal/reminder"
	"remindbot/pkg/tgui"
)

const (
	msgBadSelection = "Selección inválida."
	msgRemoved      = "Recordatorio eliminado: %s."
	msgMenuExpired  = "Este menú ya no está activo."
	msgConfirmGone  = "Esta confirmación ya no está activa."
	msgTookIt       = "¡Muy bien! Registré que tomaste tu medicina %s."
	msgNotYet       = "De acuerdo. No olvides tomar tu medicina %s lo antes posible."
)

// onCallback routes "prefix:action:payload" button data and always answers
// the callback so the client stops its spinner.
func (b *Bot) onCallback(ctx context.Context, req *Request) error {
	cb := req.Update.Callback
	prefix, action, payload, ok := tgui.ParseData(cb.Data)
	req.Payload = payload
	if ok {
		req.Command = "cb:" + prefix + ":" + action
	}

	var (
		toast string
		err   error
	)
	switch {
	case !ok:
		toast = msgMenuExpired
	case prefix == intake.DeletePrefix:
		toast, err = b.onDeleteButton(ctx, req, action, payload)
	case prefix == confirmPrefix:
		toast, err = b.onConfirmButton(ctx, req, action)
	default:
		toast = msgMenuExpired
	}
	b.answer(ctx, cb.ID, toast)
	return err
}

func (b *Bot) answer(ctx context.Context, callbackID, text string) {
	if b.acks == nil || callbackID == "" {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, callbackTimeout)
	defer cancel()
	_ = b.acks.AnswerCallback(cctx, callbackID, text)
}

// onDeleteButton resolves the pressed id against the menu snapshot held by
// the chat's delete session. The session ends whatever the outcome.
func (b *Bot) onDeleteButton(ctx context.Context, req *Request, action, payload string) (string, error) {
	f, ok := b.sessions.Get(req.ChatID)
	df, isDelete := f.(*intake.DeleteFlow)
	if !ok || !isDelete {
		return msgMenuExpired, nil
	}
	b.sessions.EndIf(req.ChatID, df)

	switch action {
	case intake.ActionCancel:
		return "", b.sendText(ctx, req.ChatID, intake.MsgDeleteAbort, nil)
	case intake.ActionPick:
	default:
		return msgBadSelection, b.sendText(ctx, req.ChatID, msgBadSelection, nil)
	}

	picked, err := df.Select(payload)
	if err != nil {
		return msgBadSelection, b.sendText(ctx, req.ChatID, msgBadSelection, nil)
	}
	spec, err := b.store.RemoveByID(req.ChatID, picked.ID)
	if errors.Is(err, reminder.ErrNotFound) {
		// Burst ran out between the menu and the tap.
		return msgBadSelection, b.sendText(ctx, req.ChatID, msgBadSelection, nil)
	}
	if err != nil {
		return "", err
	}
	if p, open := b.confirms.Get(req.ChatID); open && p.ReminderID == spec.ID {
		b.confirms.Cancel(req.ChatID)
	}

	ev := eventFor(spec)
	ev.Reason = reasonUser
	b.publish(eventbus.ReminderRemoved, ev)
	return "", b.sendText(ctx, req.ChatID, fmt.Sprintf(msgRemoved, spec.Label), nil)
}

func (b *Bot) onConfirmButton(ctx context.Context, req *Request, action string) (string, error) {
	if action != answerYes && action != answerNo {
		return msgConfirmGone, nil
	}
	p, ok := b.confirms.Resolve(req.ChatID)
	if !ok {
		return msgConfirmGone, nil
	}
	b.publish(eventbus.ConfirmationAnswered, eventbus.ReminderEvent{
		ChatID:     p.ChatID,
		ReminderID: p.ReminderID,
		Kind:       reminder.Medicine.String(),
		Label:      p.Label,
		Answer:     action,
	})
	text := msgTookIt
	if action == answerNo {
		text = msgNotYet
	}
	return "", b.sendText(ctx, req.ChatID, fmt.Sprintf(text, p.Label), nil)
}
