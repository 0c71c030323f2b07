package occupancy

import "time"

// Category is the charging technology of a charge point.
type Category string

const (
	CategoryStandardType2 Category = "StandardType2"
	CategoryServices      Category = "Services"
	CategoryComboCCS      Category = "ComboCCS"
	CategoryFastAC43      Category = "FastAC43"
	CategoryCHAdeMO       Category = "CHAdeMO"
)

// DefaultCategories lists the charge types known to the map.
func DefaultCategories() []Category {
	return []Category{
		CategoryStandardType2,
		CategoryServices,
		CategoryComboCCS,
		CategoryFastAC43,
		CategoryCHAdeMO,
	}
}

// Location is the physical position of a charge point.
type Location struct {
	Longitude float64
	Latitude  float64
}

// StatusCounts holds the number of ticks a point spent in each counted status.
// Ticks in which the point was available are not counted.
type StatusCounts struct {
	FullyOccupied     int
	PartiallyOccupied int
	OutOfService      int
	OutOfContact      int
}

// Total returns the number of counted ticks.
func (c StatusCounts) Total() int {
	return c.FullyOccupied + c.PartiallyOccupied + c.OutOfService + c.OutOfContact
}

// Validate rejects negative counts.
func (c StatusCounts) Validate() error {
	if c.FullyOccupied < 0 || c.PartiallyOccupied < 0 || c.OutOfService < 0 || c.OutOfContact < 0 {
		return ErrNegativeCount
	}
	return nil
}

// ChargePoint is a registered charge point.
type ChargePoint struct {
	ID       string
	Location Location
	Category Category
	Address  string
}

// Validate checks the identity fields of a charge point.
func (p ChargePoint) Validate() error {
	if p.ID == "" {
		return ErrEmptyChargePointID
	}
	if p.Category == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Record builds the status summary of the point for counts.
func (p ChargePoint) Record(counts StatusCounts) ChargePointRecord {
	return ChargePointRecord{
		ID:       p.ID,
		Location: p.Location,
		Category: p.Category,
		Address:  p.Address,
		Counts:   counts,
	}
}

// ChargePointRecord is the status summary of one charge point over a query window.
type ChargePointRecord struct {
	ID       string
	Location Location
	Category Category
	Address  string
	Counts   StatusCounts
}

// DatasetBounds is the first and last sample date held by a data source.
type DatasetBounds struct {
	MinDate time.Time
	MaxDate time.Time
}

// Status is the state a charge point reported for one tick.
type Status string

const (
	StatusAvailable         Status = "available"
	StatusFullyOccupied     Status = "fully_occupied"
	StatusPartiallyOccupied Status = "partially_occupied"
	StatusOutOfService      Status = "out_of_service"
	StatusOutOfContact      Status = "out_of_contact"
)

// IsValid checks if the status is one of the supported values.
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusFullyOccupied, StatusPartiallyOccupied, StatusOutOfService, StatusOutOfContact:
		return true
	default:
		return false
	}
}

// Add counts one tick in status s.
func (c *StatusCounts) Add(s Status) {
	switch s {
	case StatusFullyOccupied:
		c.FullyOccupied++
	case StatusPartiallyOccupied:
		c.PartiallyOccupied++
	case StatusOutOfService:
		c.OutOfService++
	case StatusOutOfContact:
		c.OutOfContact++
	}
}

// StatusSample is one tick of status reported by a charge point.
type StatusSample struct {
	ChargePointID string
	SampledAt     time.Time
	Status        Status
}

// Validate checks the sample and aligns its timestamp to the tick start in UTC.
func (s StatusSample) Validate() (StatusSample, error) {
	if s.ChargePointID == "" {
		return s, ErrEmptyChargePointID
	}
	if s.SampledAt.IsZero() {
		return s, ErrInvalidSampleTime
	}
	if !s.Status.IsValid() {
		return s, ErrInvalidStatus
	}
	s.SampledAt = TickStart(s.SampledAt.UTC())
	return s, nil
}
