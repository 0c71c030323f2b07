package occupancy

import "fmt"

// AggregatorKind selects how status counts are turned into one score.
type AggregatorKind int

const (
	AggregatorUnrecognized AggregatorKind = iota
	AggregatorAverageUsage
	AggregatorAvailable
	AggregatorFullyOccupied
	AggregatorPartiallyOccupied
	AggregatorOutOfService
	AggregatorOutOfContact
)

type aggregator struct {
	name  string
	score func(StatusCounts) float64
	// inverted strategies report 100 minus the percentage of score.
	inverted bool
}

var aggregators = map[AggregatorKind]aggregator{
	AggregatorAverageUsage:      {name: "average-usage", score: averageUsage},
	AggregatorAvailable:         {name: "available", score: averageUsage, inverted: true},
	AggregatorFullyOccupied:     {name: "fully-occupied", score: func(c StatusCounts) float64 { return float64(c.FullyOccupied) }},
	AggregatorPartiallyOccupied: {name: "partially-occupied", score: func(c StatusCounts) float64 { return float64(c.PartiallyOccupied) }},
	AggregatorOutOfService:      {name: "out-of-service", score: func(c StatusCounts) float64 { return float64(c.OutOfService) }},
	AggregatorOutOfContact:      {name: "out-of-contact", score: func(c StatusCounts) float64 { return float64(c.OutOfContact) }},
}

// fallbackAggregator scores kinds outside the table.
var fallbackAggregator = aggregator{
	name:  "unrecognized",
	score: func(c StatusCounts) float64 { return float64(c.Total()) },
}

// partial occupancy weighs half of full occupancy.
func averageUsage(c StatusCounts) float64 {
	return float64(c.FullyOccupied) + float64(c.PartiallyOccupied)/2
}

func (k AggregatorKind) strategy() aggregator {
	if a, ok := aggregators[k]; ok {
		return a
	}
	return fallbackAggregator
}

// AggregatorKinds lists the selectable kinds in display order.
func AggregatorKinds() []AggregatorKind {
	return []AggregatorKind{
		AggregatorAverageUsage,
		AggregatorAvailable,
		AggregatorFullyOccupied,
		AggregatorPartiallyOccupied,
		AggregatorOutOfService,
		AggregatorOutOfContact,
	}
}

// ParseAggregatorKind maps a wire name to its kind. Unknown names return
// AggregatorUnrecognized together with ErrUnknownAggregatorKind; the kind is still
// usable and scores with the sum of all counts.
func ParseAggregatorKind(name string) (AggregatorKind, error) {
	for _, kind := range AggregatorKinds() {
		if aggregators[kind].name == name {
			return kind, nil
		}
	}
	return AggregatorUnrecognized, fmt.Errorf("%w: %q", ErrUnknownAggregatorKind, name)
}

// String returns the wire name of the kind.
func (k AggregatorKind) String() string { return k.strategy().name }

// IsKnown reports whether the kind has its own scoring strategy.
func (k AggregatorKind) IsKnown() bool {
	_, ok := aggregators[k]
	return ok
}

// Inverted reports whether percentages of this kind are reported as 100 - p.
func (k AggregatorKind) Inverted() bool { return k.strategy().inverted }

// Score applies the kind's strategy to one record's counts.
func (k AggregatorKind) Score(counts StatusCounts) float64 {
	return k.strategy().score(counts)
}

// MarshalText implements encoding.TextMarshaler.
func (k AggregatorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
