package occupancy

import (
	"errors"
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return tod
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestTicksPerDay(t *testing.T) {
	if TicksPerDay != 288 {
		t.Fatalf("expected 288 ticks per day, got %d", TicksPerDay)
	}
}

func TestComputeDivisor_FullSingleDay(t *testing.T) {
	window := TimeWindow{
		StartDate: day(2021, time.January, 1),
		EndDate:   day(2021, time.January, 1),
		StartTime: mustTime(t, "00:00"),
		EndTime:   mustTime(t, "23:59"),
	}
	divisor, err := ComputeDivisor(window, DatasetBounds{})
	if err != nil {
		t.Fatalf("compute divisor: %v", err)
	}
	if divisor.Days != 1 || divisor.TicksPerDay != 289 || divisor.Value() != 289 {
		t.Fatalf("unexpected divisor: %+v value=%d", divisor, divisor.Value())
	}
}

func TestComputeDivisor_DefaultsFromBounds(t *testing.T) {
	bounds := DatasetBounds{MinDate: day(2021, time.March, 1), MaxDate: day(2021, time.March, 3)}
	divisor, err := ComputeDivisor(TimeWindow{}, bounds)
	if err != nil {
		t.Fatalf("compute divisor: %v", err)
	}
	if divisor.Value() != 3*289 {
		t.Fatalf("expected %d, got %d", 3*289, divisor.Value())
	}
}

func TestComputeDivisor_MonotonicInDateRange(t *testing.T) {
	start := day(2021, time.January, 1)
	previous := 0
	for days := 0; days < 40; days++ {
		window := TimeWindow{StartDate: start, EndDate: start.AddDate(0, 0, days)}
		divisor, err := ComputeDivisor(window, DatasetBounds{})
		if err != nil {
			t.Fatalf("compute divisor (%d days): %v", days, err)
		}
		if divisor.Value() < previous {
			t.Fatalf("divisor decreased at %d days: %d < %d", days, divisor.Value(), previous)
		}
		previous = divisor.Value()
	}

	two, err := ComputeDivisor(TimeWindow{StartDate: start, EndDate: day(2021, time.January, 2)}, DatasetBounds{})
	if err != nil {
		t.Fatalf("compute divisor: %v", err)
	}
	if two.Value() != 578 {
		t.Fatalf("expected 578 for two days, got %d", two.Value())
	}
}

func TestComputeDivisor_TimeOfDayRange(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		ticks int
	}{
		{name: "business hours", start: "08:00", end: "18:00", ticks: 122},
		{name: "same minute", start: "12:00", end: "12:00", ticks: 2},
		{name: "partial tick", start: "08:00", end: "08:14", ticks: 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			window := TimeWindow{
				StartDate: day(2021, time.January, 1),
				EndDate:   day(2021, time.January, 1),
				StartTime: mustTime(t, tc.start),
				EndTime:   mustTime(t, tc.end),
			}
			divisor, err := ComputeDivisor(window, DatasetBounds{})
			if err != nil {
				t.Fatalf("compute divisor: %v", err)
			}
			if divisor.TicksPerDay != tc.ticks {
				t.Fatalf("expected %d ticks, got %d", tc.ticks, divisor.TicksPerDay)
			}
		})
	}
}

func TestComputeDivisor_InvalidWindow(t *testing.T) {
	cases := []struct {
		name   string
		window TimeWindow
		bounds DatasetBounds
	}{
		{
			name: "end time before start time",
			window: TimeWindow{
				StartDate: day(2021, time.January, 1),
				EndDate:   day(2021, time.January, 1),
				StartTime: mustTime(t, "12:00"),
				EndTime:   mustTime(t, "08:00"),
			},
		},
		{
			name:   "end date before start date",
			window: TimeWindow{StartDate: day(2021, time.January, 2), EndDate: day(2021, time.January, 1)},
		},
		{
			name:   "no bounds",
			window: TimeWindow{EndDate: day(2021, time.January, 1)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeDivisor(tc.window, tc.bounds)
			if !errors.Is(err, ErrInvalidWindow) {
				t.Fatalf("expected ErrInvalidWindow, got %v", err)
			}
		})
	}
}

func TestDivisorCache_RecomputesOnChange(t *testing.T) {
	var cache DivisorCache
	first := ResolvedWindow{
		StartDate: day(2021, time.January, 1),
		EndDate:   day(2021, time.January, 1),
		StartTime: StartOfDay(),
		EndTime:   EndOfDay(),
	}
	divisor, err := cache.Get(first)
	if err != nil {
		t.Fatalf("get divisor: %v", err)
	}
	if divisor.Value() != 289 {
		t.Fatalf("expected 289, got %d", divisor.Value())
	}

	// Same window in another location resolves to the same cache entry.
	same := first
	same.StartDate = first.StartDate.In(time.FixedZone("X", 3600))
	again, err := cache.Get(same)
	if err != nil || again != divisor {
		t.Fatalf("expected cached divisor, got %+v err=%v", again, err)
	}

	second := first
	second.EndDate = day(2021, time.January, 2)
	widened, err := cache.Get(second)
	if err != nil {
		t.Fatalf("get divisor: %v", err)
	}
	if widened.Value() != 578 {
		t.Fatalf("expected 578 after window change, got %d", widened.Value())
	}

	invalid := first
	invalid.StartTime = mustTime(t, "12:00")
	invalid.EndTime = mustTime(t, "08:00")
	if _, err := cache.Get(invalid); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	kept, err := cache.Get(second)
	if err != nil || kept.Value() != 578 {
		t.Fatalf("expected previous divisor to survive invalid window, got %+v err=%v", kept, err)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod := mustTime(t, "07:45")
	if tod.MinutesSinceMidnight() != 465 || tod.String() != "07:45" {
		t.Fatalf("unexpected time of day: %d %s", tod.MinutesSinceMidnight(), tod)
	}
	if _, err := ParseTimeOfDay("25:00"); !errors.Is(err, ErrInvalidTimeOfDay) {
		t.Fatalf("expected ErrInvalidTimeOfDay, got %v", err)
	}
	if (TimeOfDay{}).IsSet() {
		t.Fatalf("zero time of day must be unset")
	}
}

func TestResolvedWindowContains(t *testing.T) {
	window := ResolvedWindow{
		StartDate: day(2021, time.January, 1),
		EndDate:   day(2021, time.January, 2),
		StartTime: mustTime(t, "08:00"),
		EndTime:   mustTime(t, "10:00"),
	}
	cases := []struct {
		at   time.Time
		want bool
	}{
		{at: time.Date(2021, time.January, 1, 8, 0, 0, 0, time.UTC), want: true},
		{at: time.Date(2021, time.January, 2, 10, 0, 0, 0, time.UTC), want: true},
		{at: time.Date(2021, time.January, 2, 10, 5, 0, 0, time.UTC), want: false},
		{at: time.Date(2021, time.January, 3, 9, 0, 0, 0, time.UTC), want: false},
		{at: time.Date(2020, time.December, 31, 9, 0, 0, 0, time.UTC), want: false},
	}
	for _, tc := range cases {
		if got := window.Contains(tc.at); got != tc.want {
			t.Fatalf("contains %s: expected %v, got %v", tc.at, tc.want, got)
		}
	}
}
