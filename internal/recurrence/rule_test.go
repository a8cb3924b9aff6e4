package recurrence

import (
	"errors"
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	t.Parallel()
	at := TimeOfDay{Hour: 8, Minute: 30}
	tests := []struct {
		name    string
		freq    Frequency
		days    DaySet
		cron    string
		wantErr error
	}{
		{name: "daily", freq: Daily, cron: "30 8 * * *"},
		{name: "daily ignores days", freq: Daily, days: NewDaySet(time.Monday), cron: "30 8 * * *"},
		{name: "weekly", freq: WeeklyOnDays, days: NewDaySet(time.Friday, time.Monday), cron: "30 8 * * 1,5"},
		{name: "weekly sunday is zero", freq: WeeklyOnDays, days: NewDaySet(time.Sunday, time.Saturday), cron: "30 8 * * 0,6"},
		{name: "weekly without days", freq: WeeklyOnDays, wantErr: ErrNoDays},
		{name: "unknown frequency", freq: Frequency(9), wantErr: ErrBadFrequency},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r, err := Resolve(tt.freq, at, tt.days)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			got, err := r.Cron()
			if err != nil {
				t.Fatalf("Cron: %v", err)
			}
			if got != tt.cron {
				t.Fatalf("Cron = %q, want %q", got, tt.cron)
			}
		})
	}
}

func TestResolveRejectsBadTime(t *testing.T) {
	t.Parallel()
	if _, err := Resolve(Daily, TimeOfDay{Hour: 24}, 0); !errors.Is(err, ErrBadTime) {
		t.Fatalf("expected ErrBadTime, got %v", err)
	}
}

func TestDaySetOrderIndependent(t *testing.T) {
	t.Parallel()
	a := NewDaySet(time.Wednesday, time.Monday, time.Wednesday)
	b := NewDaySet(time.Monday).Add(time.Wednesday)
	if a != b {
		t.Fatalf("sets differ: %v vs %v", a.Days(), b.Days())
	}
	if a.Len() != 2 {
		t.Fatalf("Len = %d, want 2", a.Len())
	}
	if got := NewDaySet(time.Sunday, time.Monday).String(); got != "Lunes, Domingo" {
		t.Fatalf("String = %q", got)
	}
}

func TestLookupDay(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want time.Weekday
		ok   bool
	}{
		{"Lunes", time.Monday, true},
		{"miércoles", time.Wednesday, true},
		{"MIERCOLES", time.Wednesday, true},
		{" Sábado ", time.Saturday, true},
		{"Domingo", time.Sunday, true},
		{"Funday", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := LookupDay(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Fatalf("LookupDay(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	for _, name := range DayNames() {
		d, ok := LookupDay(name)
		if !ok || DayName(d) != name {
			t.Fatalf("round trip failed for %q", name)
		}
	}
}

func TestNextRollsForward(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("CST", -6*3600)
	daily := Rule{Kind: KindDaily, At: TimeOfDay{Hour: 8, Minute: 30}}

	// Wednesday 2024-05-15.
	before := time.Date(2024, 5, 15, 7, 0, 0, 0, loc)
	after := time.Date(2024, 5, 15, 9, 0, 0, 0, loc)

	got, err := daily.Next(before, loc)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if want := time.Date(2024, 5, 15, 8, 30, 0, 0, loc); !got.Equal(want) {
		t.Fatalf("Next before slot = %v, want %v", got, want)
	}
	got, _ = daily.Next(after, loc)
	if want := time.Date(2024, 5, 16, 8, 30, 0, 0, loc); !got.Equal(want) {
		t.Fatalf("Next after slot = %v, want %v", got, want)
	}

	weekly := Rule{Kind: KindWeekly, At: TimeOfDay{Hour: 8, Minute: 30}, Days: NewDaySet(time.Monday, time.Wednesday)}
	got, _ = weekly.Next(after, loc)
	if want := time.Date(2024, 5, 20, 8, 30, 0, 0, loc); !got.Equal(want) {
		t.Fatalf("weekly Next = %v, want %v (Monday)", got, want)
	}
	if got.Weekday() != time.Monday {
		t.Fatalf("weekday = %v", got.Weekday())
	}
}

func TestNextUsesLocation(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC-6", -6*3600)
	r := Rule{Kind: KindDaily, At: TimeOfDay{Hour: 8}}
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC) // 06:00 local
	got, err := r.Next(now, loc)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.Hour() != 8 || got.Day() != 15 {
		t.Fatalf("Next = %v, want 08:00 same day in loc", got)
	}
}

func TestBurst(t *testing.T) {
	t.Parallel()
	if _, err := Burst(0, 3); !errors.Is(err, ErrBadBurst) {
		t.Fatalf("expected ErrBadBurst, got %v", err)
	}
	r, err := Burst(106*time.Minute, 9)
	if err != nil {
		t.Fatalf("Burst: %v", err)
	}
	if _, err := r.Cron(); err == nil {
		t.Fatal("burst rule must not have a cron form")
	}
	if got := r.String(); got != "cada 106 minutos, 9 veces" {
		t.Fatalf("String = %q", got)
	}
}
