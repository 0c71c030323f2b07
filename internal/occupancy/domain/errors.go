package occupancy

import "errors"

var (
	// ErrInvalidWindow is returned when a window ends before it starts or cannot be resolved.
	ErrInvalidWindow = errors.New("occupancy: invalid window")
	// ErrEmptyGroup is returned when a location group without records reaches scoring.
	ErrEmptyGroup = errors.New("occupancy: empty location group")
	// ErrUnknownAggregatorKind is returned when an aggregator name is not recognized.
	ErrUnknownAggregatorKind = errors.New("occupancy: unknown aggregator kind")
	// ErrInvalidDivisor is returned when a normalization divisor is not positive.
	ErrInvalidDivisor = errors.New("occupancy: invalid divisor")
	// ErrNegativeCount is returned when a status count is negative.
	ErrNegativeCount = errors.New("occupancy: negative status count")
	// ErrInvalidTimeOfDay is returned when a wall-clock time is out of range or malformed.
	ErrInvalidTimeOfDay = errors.New("occupancy: invalid time of day")
	// ErrNoData is returned when the dataset holds no samples.
	ErrNoData = errors.New("occupancy: no data")
	// ErrEmptyChargePointID is returned when a charge point or sample has no id.
	ErrEmptyChargePointID = errors.New("occupancy: empty charge point id")
	// ErrEmptyCategory is returned when a charge point has no charge type.
	ErrEmptyCategory = errors.New("occupancy: empty charge type")
	// ErrInvalidSampleTime is returned when a sample has no timestamp.
	ErrInvalidSampleTime = errors.New("occupancy: invalid sample time")
	// ErrInvalidStatus is returned when a sample status is unsupported.
	ErrInvalidStatus = errors.New("occupancy: invalid status")
	// ErrUnknownChargePoint is returned when a sample references an unregistered charge point.
	ErrUnknownChargePoint = errors.New("occupancy: unknown charge point")
)
