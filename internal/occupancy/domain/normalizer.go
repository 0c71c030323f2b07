package occupancy

import "fmt"

// Divisor is the number of ticks a window is normalized against.
type Divisor struct {
	Days        int
	TicksPerDay int
}

// Value returns the total tick count.
func (d Divisor) Value() int { return d.Days * d.TicksPerDay }

// Validate ensures the divisor can be divided by.
func (d Divisor) Validate() error {
	if d.Days <= 0 || d.TicksPerDay <= 0 {
		return fmt.Errorf("%w: %d days x %d ticks", ErrInvalidDivisor, d.Days, d.TicksPerDay)
	}
	return nil
}

// ComputeDivisor resolves the window against the dataset bounds and returns its tick count.
func ComputeDivisor(window TimeWindow, bounds DatasetBounds) (Divisor, error) {
	resolved, err := window.Resolve(bounds)
	if err != nil {
		return Divisor{}, err
	}
	return DivisorFor(resolved)
}

// DivisorFor computes the tick count of an already resolved window.
func DivisorFor(window ResolvedWindow) (Divisor, error) {
	if err := window.Validate(); err != nil {
		return Divisor{}, err
	}
	minutes := window.EndTime.MinutesSinceMidnight() - window.StartTime.MinutesSinceMidnight()
	tickMinutes := int(TickLength.Minutes())
	return Divisor{
		Days:        window.DayCount(),
		TicksPerDay: minutes/tickMinutes + TickBoundaryPadding,
	}, nil
}

// DivisorCache keeps the divisor of the last resolved window.
// It is not safe for concurrent use.
type DivisorCache struct {
	window  ResolvedWindow
	divisor Divisor
	valid   bool
}

// Get returns the divisor for window, recomputing it only when the window changed.
func (c *DivisorCache) Get(window ResolvedWindow) (Divisor, error) {
	if c.valid && c.window.Equal(window) {
		return c.divisor, nil
	}
	divisor, err := DivisorFor(window)
	if err != nil {
		return Divisor{}, err
	}
	c.window = window
	c.divisor = divisor
	c.valid = true
	return divisor, nil
}
