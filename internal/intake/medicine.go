package intake

import (
	"fmt"
	"strings"

	"remindbot/internal/recurrence"
	"remindbot/internal/transport"
	"remindbot/internal/validate"
	"remindbot/pkg/tgui"
)

type medState int

const (
	awaitingName medState = iota
	awaitingFrequency
	awaitingTime
	awaitingDays
	medDone
)

const (
	msgAskName       = "Por favor, ingresa el nombre de la medicina."
	msgEmptyName     = "El nombre no puede estar vacío. Por favor, ingresa el nombre de la medicina."
	msgBadFrequency  = "Por favor, selecciona una opción válida: Diaria, X veces a la semana."
	msgAskTime       = "Por favor, ingresa la hora de la notificación (formato 24h, por ejemplo, 14:00)."
	msgBadTime       = "Por favor, ingresa una hora válida en formato 24h (por ejemplo, 14:00)."
	msgAskDays       = "Por favor, selecciona los días de la semana para el recordatorio. Envía \"Listo\" cuando hayas terminado."
	msgBadDay        = "Por favor, selecciona un día válido o envía \"Listo\" cuando hayas terminado."
	msgNoDaysYet     = "Selecciona al menos un día antes de enviar \"Listo\"."
	msgDayRegistered = "Día %s registrado. Puedes seleccionar más días o enviar \"Listo\" cuando hayas terminado."
)

// MedicineFlow collects name, frequency, time and (for weekly) days.
type MedicineFlow struct {
	state medState

	Name      string
	Frequency recurrence.Frequency
	At        recurrence.TimeOfDay
	Days      recurrence.DaySet
}

func NewMedicineFlow() *MedicineFlow { return &MedicineFlow{} }

func (f *MedicineFlow) Kind() Kind { return KindMedicine }

func (f *MedicineFlow) Prompt() Reply {
	return Reply{Text: msgAskName, Keyboard: tgui.Options(CancelWord)}
}

// Done reports whether the draft is complete.
func (f *MedicineFlow) Done() bool { return f.state == medDone }

func (f *MedicineFlow) Step(input string) Result {
	input = strings.TrimSpace(input)
	if f.state == medDone {
		return Result{Outcome: Completed}
	}
	if isCancel(input) {
		return cancelled(MsgCancelled)
	}

	switch f.state {
	case awaitingName:
		name, err := validate.NonEmpty(input)
		if err != nil {
			return next(msgEmptyName, tgui.Options(CancelWord))
		}
		f.Name = name
		f.state = awaitingFrequency
		return next("Nombre de la medicina registrado: "+name+". Ahora, por favor selecciona la frecuencia.", frequencyKeyboard())

	case awaitingFrequency:
		freq, err := validate.ParseFrequency(input)
		if err != nil {
			return next(msgBadFrequency, frequencyKeyboard())
		}
		f.Frequency = freq
		f.state = awaitingTime
		return next(msgAskTime, tgui.Options(CancelWord))

	case awaitingTime:
		at, err := validate.ParseTimeOfDay(input)
		if err != nil {
			return next(msgBadTime, tgui.Options(CancelWord))
		}
		f.At = at
		if f.Frequency == recurrence.WeeklyOnDays {
			f.state = awaitingDays
			return next(msgAskDays, daysKeyboard())
		}
		f.state = medDone
		return Result{Outcome: Completed}

	case awaitingDays:
		if strings.EqualFold(input, DoneWord) {
			if f.Days.Empty() {
				return next(msgNoDaysYet, daysKeyboard())
			}
			f.state = medDone
			return Result{Outcome: Completed}
		}
		d, err := validate.ParseWeekday(input)
		if err != nil {
			return next(msgBadDay, daysKeyboard())
		}
		f.Days = f.Days.Add(d)
		return next(fmt.Sprintf(msgDayRegistered, recurrence.DayName(d)), daysKeyboard())
	}
	return Result{Outcome: Continue}
}

func frequencyKeyboard() *transport.Keyboard {
	return tgui.Options(recurrence.LabelDaily, recurrence.LabelWeekly, CancelWord)
}

func daysKeyboard() *transport.Keyboard {
	return tgui.OptionGrid(2, recurrence.DayNames(), DoneWord, CancelWord)
}
