package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrNoDays       = errors.New("weekly rule needs at least one day")
	ErrBadTime      = errors.New("time of day out of range")
	ErrBadFrequency = errors.New("unknown frequency")
	ErrBadBurst     = errors.New("burst needs a positive interval and count")
)

type Kind int

const (
	KindDaily Kind = iota + 1
	KindWeekly
	KindBurst
)

// Rule describes when a reminder fires, independent of the timer backing it.
//
//   - KindDaily: every day at At
//   - KindWeekly: at At on each day in Days
//   - KindBurst: every Every, exactly Times times
type Rule struct {
	Kind  Kind
	At    TimeOfDay
	Days  DaySet
	Every time.Duration
	Times int
}

// Five-field cron, Dow 0-6 with Sunday = 0.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Resolve turns a completed wizard draft into a Rule.
func Resolve(freq Frequency, at TimeOfDay, days DaySet) (Rule, error) {
	if !at.Valid() {
		return Rule{}, fmt.Errorf("%w: %s", ErrBadTime, at)
	}
	switch freq {
	case Daily:
		return Rule{Kind: KindDaily, At: at}, nil
	case WeeklyOnDays:
		if days.Empty() {
			return Rule{}, ErrNoDays
		}
		return Rule{Kind: KindWeekly, At: at, Days: days}, nil
	default:
		return Rule{}, fmt.Errorf("%w: %d", ErrBadFrequency, int(freq))
	}
}

// Burst builds a bounded evenly spaced rule.
func Burst(every time.Duration, times int) (Rule, error) {
	if every <= 0 || times <= 0 {
		return Rule{}, ErrBadBurst
	}
	return Rule{Kind: KindBurst, Every: every, Times: times}, nil
}

// Cron renders calendar rules as a cron spec ("M H * * dow").
func (r Rule) Cron() (string, error) {
	if !r.At.Valid() {
		return "", fmt.Errorf("%w: %s", ErrBadTime, r.At)
	}
	switch r.Kind {
	case KindDaily:
		return fmt.Sprintf("%d %d * * *", r.At.Minute, r.At.Hour), nil
	case KindWeekly:
		if r.Days.Empty() {
			return "", ErrNoDays
		}
		return fmt.Sprintf("%d %d * * %s", r.At.Minute, r.At.Hour, r.Days.cronDow()), nil
	default:
		return "", fmt.Errorf("rule kind %d has no cron form", int(r.Kind))
	}
}

// Schedule parses the cron form of r.
func (r Rule) Schedule() (cron.Schedule, error) {
	spec, err := r.Cron()
	if err != nil {
		return nil, err
	}
	return parser.Parse(spec)
}

// Next returns the first occurrence strictly after now, evaluated in loc.
// When today's slot has already passed it rolls forward to the next matching day.
// For bursts it is the first trigger counted from now.
func (r Rule) Next(now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if r.Kind == KindBurst {
		if r.Every <= 0 {
			return time.Time{}, ErrBadBurst
		}
		return now.In(loc).Add(r.Every), nil
	}
	sched, err := r.Schedule()
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(now.In(loc)), nil
}

// String is the human readable summary used in chat messages.
func (r Rule) String() string {
	switch r.Kind {
	case KindDaily:
		return "todos los días a las " + r.At.String()
	case KindWeekly:
		return fmt.Sprintf("los días %s a las %s", r.Days, r.At)
	case KindBurst:
		return fmt.Sprintf("cada %d minutos, %d veces", int(r.Every/time.Minute), r.Times)
	default:
		return "regla desconocida"
	}
}
