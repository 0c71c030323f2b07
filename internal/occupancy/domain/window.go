package occupancy

import (
	"fmt"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	timeOfDayLayout = "15:04"

	minutesPerDay = 24 * 60
)

// TimeOfDay is a wall-clock time at minute precision. The zero value is unset.
type TimeOfDay struct {
	minutes int
	set     bool
}

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, hour, minute)
	}
	return TimeOfDay{minutes: hour*60 + minute, set: true}, nil
}

// ParseTimeOfDay parses an HH:MM string.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parsed, err := time.Parse(timeOfDayLayout, value)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return NewTimeOfDay(parsed.Hour(), parsed.Minute())
}

// StartOfDay is 00:00.
func StartOfDay() TimeOfDay { return TimeOfDay{minutes: 0, set: true} }

// EndOfDay is 23:59, the last selectable minute of a day.
func EndOfDay() TimeOfDay { return TimeOfDay{minutes: minutesPerDay - 1, set: true} }

// IsSet reports whether the time was provided.
func (t TimeOfDay) IsSet() bool { return t.set }

// MinutesSinceMidnight returns the minute of day.
func (t TimeOfDay) MinutesSinceMidnight() int { return t.minutes }

// String formats the time as HH:MM, or "" when unset.
func (t TimeOfDay) String() string {
	if !t.set {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", t.minutes/60, t.minutes%60)
}

func (t TimeOfDay) or(fallback TimeOfDay) TimeOfDay {
	if t.set {
		return t
	}
	return fallback
}

// TimeWindow is the date range and daily time range selected by the user.
// Zero dates and unset times fall back to the dataset bounds and the whole day.
type TimeWindow struct {
	StartDate time.Time
	EndDate   time.Time
	StartTime TimeOfDay
	EndTime   TimeOfDay
}

// ResolvedWindow is a TimeWindow with every default applied.
// Dates are UTC midnights; times are always set.
type ResolvedWindow struct {
	StartDate time.Time
	EndDate   time.Time
	StartTime TimeOfDay
	EndTime   TimeOfDay
}

// ParseDate parses a YYYY-MM-DD date into a UTC midnight.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidWindow, value)
	}
	return parsed, nil
}

// FormatDate formats a date as YYYY-MM-DD.
func FormatDate(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(dateLayout)
}

// Resolve applies the dataset bounds and whole-day defaults and validates ordering.
func (w TimeWindow) Resolve(bounds DatasetBounds) (ResolvedWindow, error) {
	start := w.StartDate
	if start.IsZero() {
		start = bounds.MinDate
	}
	end := w.EndDate
	if end.IsZero() {
		end = bounds.MaxDate
	}
	if start.IsZero() || end.IsZero() {
		return ResolvedWindow{}, fmt.Errorf("%w: unbounded date range", ErrInvalidWindow)
	}

	resolved := ResolvedWindow{
		StartDate: truncateToDay(start),
		EndDate:   truncateToDay(end),
		StartTime: w.StartTime.or(StartOfDay()),
		EndTime:   w.EndTime.or(EndOfDay()),
	}
	if err := resolved.Validate(); err != nil {
		return ResolvedWindow{}, err
	}
	return resolved, nil
}

// Validate checks date and time ordering.
func (w ResolvedWindow) Validate() error {
	if w.EndDate.Before(w.StartDate) {
		return fmt.Errorf("%w: end date %s before start date %s", ErrInvalidWindow, FormatDate(w.EndDate), FormatDate(w.StartDate))
	}
	if w.EndTime.MinutesSinceMidnight() < w.StartTime.MinutesSinceMidnight() {
		return fmt.Errorf("%w: end time %s before start time %s", ErrInvalidWindow, w.EndTime, w.StartTime)
	}
	return nil
}

// DayCount returns the number of calendar days covered, inclusive.
func (w ResolvedWindow) DayCount() int {
	return 1 + wholeDaysBetween(w.StartDate, w.EndDate)
}

// Equal reports whether two resolved windows describe the same range.
func (w ResolvedWindow) Equal(other ResolvedWindow) bool {
	return w.StartDate.Equal(other.StartDate) &&
		w.EndDate.Equal(other.EndDate) &&
		w.StartTime == other.StartTime &&
		w.EndTime == other.EndTime
}

// Contains reports whether t falls on a covered day and inside the daily time range.
func (w ResolvedWindow) Contains(t time.Time) bool {
	t = t.UTC()
	day := truncateToDay(t)
	if day.Before(w.StartDate) || day.After(w.EndDate) {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= w.StartTime.MinutesSinceMidnight() && minute <= w.EndTime.MinutesSinceMidnight()
}

func wholeDaysBetween(start, end time.Time) int {
	return int(truncateToDay(end).Sub(truncateToDay(start)).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
