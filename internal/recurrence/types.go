package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the cadence picked in the medicine wizard.
type Frequency int

const (
	Daily Frequency = iota + 1
	WeeklyOnDays
)

// Labels shown on the wizard keyboard.
const (
	LabelDaily  = "Diaria"
	LabelWeekly = "X veces a la semana"
)

func (f Frequency) String() string {
	switch f {
	case Daily:
		return LabelDaily
	case WeeklyOnDays:
		return LabelWeekly
	default:
		return "desconocida"
	}
}

// TimeOfDay is a wall-clock time in the scheduler timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Weekday names in week order starting Monday. Index i maps to weekOrder[i].
var dayNames = [...]string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"}

var weekOrder = [...]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// DayNames returns the seven weekday labels, Monday first.
func DayNames() []string { return append([]string(nil), dayNames[:]...) }

// DayName returns the label for d.
func DayName(d time.Weekday) string {
	for i, w := range weekOrder {
		if w == d {
			return dayNames[i]
		}
	}
	return d.String()
}

// LookupDay maps a label to time.Weekday. Matching ignores case and accents.
func LookupDay(name string) (time.Weekday, bool) {
	key := fold(name)
	for i, n := range dayNames {
		if fold(n) == key {
			return weekOrder[i], true
		}
	}
	return 0, false
}

func fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u").Replace(s)
}

// DaySet is a set of weekdays. Adding a day twice is a no-op.
type DaySet uint8

func NewDaySet(days ...time.Weekday) DaySet {
	var s DaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

func (s DaySet) Add(d time.Weekday) DaySet {
	if d < time.Sunday || d > time.Saturday {
		return s
	}
	return s | 1<<uint(d)
}

func (s DaySet) Has(d time.Weekday) bool { return s&(1<<uint(d)) != 0 }
func (s DaySet) Empty() bool             { return s == 0 }

func (s DaySet) Len() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Days returns the members in Go weekday order (Sunday = 0 first).
func (s DaySet) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// Names returns the member labels in display order (Monday first).
func (s DaySet) Names() []string {
	out := make([]string, 0, 7)
	for i, d := range weekOrder {
		if s.Has(d) {
			out = append(out, dayNames[i])
		}
	}
	return out
}

func (s DaySet) String() string { return strings.Join(s.Names(), ", ") }

// cronDow renders the set as a cron day-of-week list. Sunday = 0.
func (s DaySet) cronDow() string {
	days := s.Days()
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = fmt.Sprint(int(d))
	}
	return strings.Join(parts, ",")
}
