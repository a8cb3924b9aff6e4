package bot

import (
	"context"
	"fmt"
	"time"

	"remindbot/internal/confirm"
	"remindbot/internal/eventbus"
	"remindbot/internal/intake"
	"remindbot/internal/recurrence"
	"remindbot/internal/reminder"
	"remindbot/internal/task/scheduler"
	"remindbot/pkg/tgui"
	logx "remindbot/pkg/logx"
)

const (
	msgScheduleFailed = "No se pudo programar el recordatorio."
	msgMedicineDue    = "Recordatorio: Es hora de tomar tu medicina %s."
	msgWaterDue       = "Recordatorio: Es hora de tomar un vaso de agua (%d de %d)."
	msgWaterDone      = "¡Completaste tu meta de agua de hoy!"
	msgWaterFollowUp  = "Te avisaré cada vez que toque un vaso."
	msgConfirmExpired = "No recibí tu confirmación. Recuerda tomar tu medicina %s."

	btnTookIt = "Sí, ya la tomé"
	btnNotYet = "Todavía no"
)

// finish turns a completed wizard into a live reminder.
func (b *Bot) finish(ctx context.Context, req *Request, f intake.Flow) error {
	switch f := f.(type) {
	case *intake.MedicineFlow:
		return b.finishMedicine(ctx, req, f)
	case *intake.WaterFlow:
		return b.finishWater(ctx, req, f)
	default:
		return fmt.Errorf("no completion for %s flow", f.Kind())
	}
}

func (b *Bot) finishMedicine(ctx context.Context, req *Request, f *intake.MedicineFlow) error {
	rule, err := recurrence.Resolve(f.Frequency, f.At, f.Days)
	if err != nil {
		return b.scheduleFailed(ctx, req, err)
	}

	chatID, id, label := req.ChatID, reminder.NewID(), f.Name
	job, err := b.sched.ScheduleRecurring("med:"+id, rule, func(ctx context.Context, fire scheduler.Fire) {
		b.onMedicineFire(ctx, chatID, id, label, fire)
	})
	if err != nil {
		return b.scheduleFailed(ctx, req, err)
	}
	spec, err := b.store.Add(chatID, reminder.Spec{ID: id, Kind: reminder.Medicine, Label: label, Rule: rule}, job)
	if err != nil {
		job.Stop()
		return b.scheduleFailed(ctx, req, err)
	}
	b.publish(eventbus.ReminderScheduled, eventFor(spec))

	mb := tgui.New().
		Title("💊", "Recordatorio establecido").
		KV("Medicina", label).
		KV("Frecuencia", f.Frequency.String()).
		KV("Hora", f.At.String())
	if f.Frequency == recurrence.WeeklyOnDays {
		mb.KV("Días", f.Days.String())
	}
	mb.KV("Próximo aviso", b.formatTime(job.Next())).Keyboard(tgui.RemoveKeyboard())
	return b.send(ctx, chatID, mb.Build())
}

func (b *Bot) finishWater(ctx context.Context, req *Request, f *intake.WaterFlow) error {
	cfg := b.config()
	plan, err := reminder.PlanWater(f.HeightCm, f.WeightLb, cfg.GlassLiters, cfg.ActiveMinutes)
	if err != nil {
		return b.scheduleFailed(ctx, req, err)
	}
	rule, err := plan.Rule()
	if err != nil {
		return b.scheduleFailed(ctx, req, err)
	}

	chatID, id, total := req.ChatID, reminder.NewID(), plan.Glasses
	job, err := b.sched.ScheduleRecurring("water:"+id, rule, func(ctx context.Context, fire scheduler.Fire) {
		b.onWaterFire(ctx, chatID, id, total, fire)
	})
	if err != nil {
		return b.scheduleFailed(ctx, req, err)
	}
	label := fmt.Sprintf("Agua: %d vasos", total)
	spec, err := b.store.Add(chatID, reminder.Spec{ID: id, Kind: reminder.Water, Label: label, Rule: rule}, job)
	if err != nil {
		job.Stop()
		return b.scheduleFailed(ctx, req, err)
	}
	b.publish(eventbus.ReminderScheduled, eventFor(spec))

	m := tgui.New().
		Title("💧", "Plan de hidratación").
		Line(plan.String()).
		Line(msgWaterFollowUp).
		KV("Próximo aviso", b.formatTime(job.Next())).
		Keyboard(tgui.RemoveKeyboard()).
		Build()
	return b.send(ctx, chatID, m)
}

// scheduleFailed tells the user and hands err to the request log.
func (b *Bot) scheduleFailed(ctx context.Context, req *Request, err error) error {
	_ = b.sendText(ctx, req.ChatID, msgScheduleFailed, tgui.RemoveKeyboard())
	return fmt.Errorf("schedule reminder: %w", err)
}

func (b *Bot) onMedicineFire(ctx context.Context, chatID int64, id, label string, fire scheduler.Fire) {
	spec, ok := b.store.Get(chatID, id)
	if !ok {
		return
	}
	kb := tgui.YesNo(
		tgui.Btn(btnTookIt, tgui.Data(confirmPrefix, answerYes, "")),
		tgui.Btn(btnNotYet, tgui.Data(confirmPrefix, answerNo, "")),
	)
	_ = b.sendText(ctx, chatID, fmt.Sprintf(msgMedicineDue, label), kb)

	ev := eventFor(spec)
	ev.Seq = fire.Seq
	b.publish(eventbus.ReminderFired, ev)

	if b.confirms.Arm(confirm.Pending{ChatID: chatID, ReminderID: id, Label: label}) {
		b.log.Debug("confirmation superseded", logx.Int64("chat_id", chatID), logx.String("reminder_id", id))
	}
	b.publish(eventbus.ConfirmationArmed, eventFor(spec))
}

func (b *Bot) onWaterFire(ctx context.Context, chatID int64, id string, total int, fire scheduler.Fire) {
	spec, ok := b.store.Get(chatID, id)
	if !ok {
		return
	}
	_ = b.sendText(ctx, chatID, fmt.Sprintf(msgWaterDue, fire.Seq, total), nil)

	ev := eventFor(spec)
	ev.Seq = fire.Seq
	b.publish(eventbus.ReminderFired, ev)

	if !fire.Last {
		return
	}
	if spec, err := b.store.RemoveByID(chatID, id); err == nil {
		ev := eventFor(spec)
		ev.Reason = reasonExhausted
		b.publish(eventbus.ReminderRemoved, ev)
	}
	_ = b.sendText(ctx, chatID, msgWaterDone, nil)
}

// onConfirmExpired runs on the loop when nobody answered in time.
func (b *Bot) onConfirmExpired(p confirm.Pending) {
	_ = b.sendText(context.Background(), p.ChatID, fmt.Sprintf(msgConfirmExpired, p.Label), nil)
	b.publish(eventbus.ConfirmationExpired, eventbus.ReminderEvent{
		ChatID:     p.ChatID,
		ReminderID: p.ReminderID,
		Kind:       reminder.Medicine.String(),
		Label:      p.Label,
	})
}

// formatTime renders t as "Lunes 20/05/2024 08:30" in the scheduler timezone.
func (b *Bot) formatTime(t time.Time) string {
	if t.IsZero() {
		return "sin próximo aviso"
	}
	t = t.In(b.sched.Location())
	return recurrence.DayName(t.Weekday()) + " " + t.Format("02/01/2006 15:04")
}

func eventFor(s reminder.Spec) eventbus.ReminderEvent {
	return eventbus.ReminderEvent{ChatID: s.ChatID, ReminderID: s.ID, Kind: s.Kind.String(), Label: s.Label}
}
