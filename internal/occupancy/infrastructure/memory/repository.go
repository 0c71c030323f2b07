package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	occupancy "chargepoint-occupancy/internal/occupancy/domain"
)

type sampleKey struct {
	chargePointID string
	at            int64
}

// Repository keeps charge points and status samples in memory for demo/testing.
type Repository struct {
	mu      sync.RWMutex
	order   []string
	points  map[string]occupancy.ChargePoint
	samples map[sampleKey]occupancy.Status
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		points:  make(map[string]occupancy.ChargePoint),
		samples: make(map[sampleKey]occupancy.Status),
	}
}

// UpsertChargePoints registers or updates charge points.
func (r *Repository) UpsertChargePoints(ctx context.Context, points []occupancy.ChargePoint) error {
	_ = ctx
	for _, point := range points {
		if err := point.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, point := range points {
		if _, ok := r.points[point.ID]; !ok {
			r.order = append(r.order, point.ID)
		}
		r.points[point.ID] = point
	}
	return nil
}

// InsertSamples stores samples; a later sample for the same tick replaces the earlier one.
func (r *Repository) InsertSamples(ctx context.Context, samples []occupancy.StatusSample) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	aligned := make([]occupancy.StatusSample, 0, len(samples))
	for _, sample := range samples {
		valid, err := sample.Validate()
		if err != nil {
			return err
		}
		if _, ok := r.points[valid.ChargePointID]; !ok {
			return fmt.Errorf("%w: %s", occupancy.ErrUnknownChargePoint, valid.ChargePointID)
		}
		aligned = append(aligned, valid)
	}
	for _, sample := range aligned {
		r.samples[sampleKey{chargePointID: sample.ChargePointID, at: sample.SampledAt.Unix()}] = sample.Status
	}
	return nil
}

// MissingChargePoints returns the ids that are not registered.
func (r *Repository) MissingChargePoints(ctx context.Context, ids []string) ([]string, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string
	for _, id := range ids {
		if _, ok := r.points[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// LoadRecords counts samples per status for every registered point inside window.
// Points without samples in the window are returned with zero counts.
func (r *Repository) LoadRecords(ctx context.Context, window occupancy.ResolvedWindow) ([]occupancy.ChargePointRecord, error) {
	_ = ctx
	if err := window.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]*occupancy.StatusCounts, len(r.points))
	for key, status := range r.samples {
		if !window.Contains(time.Unix(key.at, 0)) {
			continue
		}
		c := counts[key.chargePointID]
		if c == nil {
			c = &occupancy.StatusCounts{}
			counts[key.chargePointID] = c
		}
		c.Add(status)
	}

	records := make([]occupancy.ChargePointRecord, 0, len(r.order))
	for _, id := range r.order {
		var c occupancy.StatusCounts
		if found := counts[id]; found != nil {
			c = *found
		}
		records = append(records, r.points[id].Record(c))
	}
	return records, nil
}

// DatasetBounds returns the dates of the first and last sample.
func (r *Repository) DatasetBounds(ctx context.Context) (occupancy.DatasetBounds, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.samples) == 0 {
		return occupancy.DatasetBounds{}, occupancy.ErrNoData
	}
	var minAt, maxAt int64
	first := true
	for key := range r.samples {
		if first || key.at < minAt {
			minAt = key.at
		}
		if first || key.at > maxAt {
			maxAt = key.at
		}
		first = false
	}
	return occupancy.DatasetBounds{
		MinDate: dayOf(time.Unix(minAt, 0)),
		MaxDate: dayOf(time.Unix(maxAt, 0)),
	}, nil
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
