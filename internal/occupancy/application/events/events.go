package events

import (
	"time"

	occupancy "chargepoint-occupancy/internal/occupancy/domain"
)

// ScoringPassCompleted is emitted after every location of a pass has been scored.
type ScoringPassCompleted struct {
	Window     occupancy.ResolvedWindow
	Aggregator occupancy.AggregatorKind
	Divisor    occupancy.Divisor
	Records    int
	Locations  int
	Duration   time.Duration
	OccurredAt time.Time
}

// ScoringPassFailed is emitted when a pass is aborted. The previous result stays current.
type ScoringPassFailed struct {
	Window     occupancy.TimeWindow
	Aggregator occupancy.AggregatorKind
	Err        error
	OccurredAt time.Time
}

// SamplesIngested is emitted after status samples have been stored.
type SamplesIngested struct {
	ChargePoints int
	Samples      int
	OccurredAt   time.Time
}
