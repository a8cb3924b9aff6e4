package intake

import (
	"strings"

	"remindbot/internal/validate"
	"remindbot/pkg/tgui"
)

type waterState int

const (
	awaitingHeight waterState = iota
	awaitingWeight
	waterDone
)

const (
	msgAskHeight = "Por favor, ingresa tu estatura en centímetros (por ejemplo, 170)."
	msgBadHeight = "Por favor, ingresa una estatura válida en centímetros, entre 50 y 272."
	msgAskWeight = "Ahora ingresa tu peso en libras (por ejemplo, 150)."
	msgBadWeight = "Por favor, ingresa un peso válido en libras, entre 2 y 1400."
)

// WaterFlow collects height and weight for the hydration plan.
type WaterFlow struct {
	state waterState

	HeightCm float64
	WeightLb float64
}

func NewWaterFlow() *WaterFlow { return &WaterFlow{} }

func (f *WaterFlow) Kind() Kind { return KindWater }

func (f *WaterFlow) Prompt() Reply {
	return Reply{Text: msgAskHeight, Keyboard: tgui.Options(CancelWord)}
}

func (f *WaterFlow) Done() bool { return f.state == waterDone }

func (f *WaterFlow) Step(input string) Result {
	input = strings.TrimSpace(input)
	if f.state == waterDone {
		return Result{Outcome: Completed}
	}
	if isCancel(input) {
		return cancelled(MsgCancelled)
	}

	switch f.state {
	case awaitingHeight:
		v, err := validate.ParsePositiveNumber(input, validate.HeightCm)
		if err != nil {
			return next(msgBadHeight, tgui.Options(CancelWord))
		}
		f.HeightCm = v
		f.state = awaitingWeight
		return next(msgAskWeight, tgui.Options(CancelWord))

	case awaitingWeight:
		v, err := validate.ParsePositiveNumber(input, validate.WeightLb)
		if err != nil {
			return next(msgBadWeight, tgui.Options(CancelWord))
		}
		f.WeightLb = v
		f.state = waterDone
		return Result{Outcome: Completed}
	}
	return Result{Outcome: Continue}
}
