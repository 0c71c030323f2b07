package occupancy

import "time"

// TickLength is the sampling granularity of charge point status.
const TickLength = 5 * time.Minute

// TicksPerDay is the number of sampling ticks in a calendar day.
const TicksPerDay = int(24 * time.Hour / TickLength)

// TickBoundaryPadding is added to the per-day tick count of every window.
// A full day (00:00-23:59) therefore normalizes to 289 ticks instead of 288;
// published scores depend on this value.
const TickBoundaryPadding = 2

// TickStart truncates t to the start of its sampling tick.
func TickStart(t time.Time) time.Time {
	return t.Truncate(TickLength)
}
