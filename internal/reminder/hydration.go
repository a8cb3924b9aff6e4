package reminder

import (
	"errors"
	"fmt"
	"math"
	"time"

	"remindbot/internal/recurrence"
)

const (
	KgPerLb      = 0.45359237
	LitersPerKg  = 0.033
	DefaultGlass = 0.25 // liters
	// DefaultActiveMinutes is a 16 hour waking day.
	DefaultActiveMinutes = 960
)

var ErrBadPlanInput = errors.New("hydration plan needs positive inputs")

// WaterPlan is the daily intake split into evenly spaced glasses.
type WaterPlan struct {
	HeightCm float64
	WeightLb float64
	Liters   float64
	Glasses  int
	Interval time.Duration
}

// PlanWater computes liters = lb * 0.45359237 * 0.033, glasses = ceil(liters/glass)
// and interval = floor(activeMinutes/glasses) minutes.
func PlanWater(heightCm, weightLb, glassLiters float64, activeMinutes int) (WaterPlan, error) {
	if weightLb <= 0 {
		return WaterPlan{}, ErrBadPlanInput
	}
	if glassLiters <= 0 {
		glassLiters = DefaultGlass
	}
	if activeMinutes <= 0 {
		activeMinutes = DefaultActiveMinutes
	}
	liters := weightLb * KgPerLb * LitersPerKg
	glasses := int(math.Ceil(liters / glassLiters))
	if glasses < 1 {
		glasses = 1
	}
	minutes := activeMinutes / glasses
	if minutes < 1 {
		minutes = 1
	}
	return WaterPlan{
		HeightCm: heightCm,
		WeightLb: weightLb,
		Liters:   liters,
		Glasses:  glasses,
		Interval: time.Duration(minutes) * time.Minute,
	}, nil
}

// Rule is the burst that delivers the plan.
func (p WaterPlan) Rule() (recurrence.Rule, error) {
	return recurrence.Burst(p.Interval, p.Glasses)
}

func (p WaterPlan) String() string {
	return fmt.Sprintf("Debes tomar %.2f litros de agua al día: %d vasos, uno cada %d minutos.",
		p.Liters, p.Glasses, int(p.Interval/time.Minute))
}
