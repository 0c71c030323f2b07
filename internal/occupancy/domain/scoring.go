package occupancy

// ScoreGroup returns the percentage score of one location group.
// Record scores are averaged, normalized by the divisor and, for inverted kinds,
// reported as 100 minus the percentage. Results are not clamped: values outside
// [0, 100] indicate counts that exceed the window.
func ScoreGroup(group []ChargePointRecord, divisor Divisor, kind AggregatorKind) (float64, error) {
	if len(group) == 0 {
		return 0, ErrEmptyGroup
	}
	if err := divisor.Validate(); err != nil {
		return 0, err
	}

	strategy := kind.strategy()
	var sum float64
	for _, record := range group {
		sum += strategy.score(record.Counts)
	}
	mean := sum / float64(len(group))

	percentage := mean / float64(divisor.Value()) * 100
	if strategy.inverted {
		percentage = 100 - percentage
	}
	return percentage, nil
}

// StatusBreakdown is the share of the window one record spent in each status.
type StatusBreakdown struct {
	RecordID          string
	Category          Category
	FullyOccupied     float64
	PartiallyOccupied float64
	OutOfService      float64
	OutOfContact      float64
}

// Breakdown returns per-record status percentages of the window, regardless of aggregator.
func Breakdown(group []ChargePointRecord, divisor Divisor) ([]StatusBreakdown, error) {
	if err := divisor.Validate(); err != nil {
		return nil, err
	}
	total := float64(divisor.Value())
	ratio := func(count int) float64 { return float64(count) / total * 100 }

	out := make([]StatusBreakdown, 0, len(group))
	for _, record := range group {
		out = append(out, StatusBreakdown{
			RecordID:          record.ID,
			Category:          record.Category,
			FullyOccupied:     ratio(record.Counts.FullyOccupied),
			PartiallyOccupied: ratio(record.Counts.PartiallyOccupied),
			OutOfService:      ratio(record.Counts.OutOfService),
			OutOfContact:      ratio(record.Counts.OutOfContact),
		})
	}
	return out, nil
}
