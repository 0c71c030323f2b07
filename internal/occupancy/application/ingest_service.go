package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"chargepoint-occupancy/internal/occupancy/application/eventbus"
	"chargepoint-occupancy/internal/occupancy/application/events"
	occupancy "chargepoint-occupancy/internal/occupancy/domain"
)

// SampleStore persists charge points and their status samples.
type SampleStore interface {
	UpsertChargePoints(ctx context.Context, points []occupancy.ChargePoint) error
	InsertSamples(ctx context.Context, samples []occupancy.StatusSample) error
	// MissingChargePoints returns the ids that are not registered.
	MissingChargePoints(ctx context.Context, ids []string) ([]string, error)
}

// IngestBatch is one delivery from the status feed.
type IngestBatch struct {
	ChargePoints []occupancy.ChargePoint
	Samples      []occupancy.StatusSample
}

// ErrEmptyBatch is returned when a batch carries neither points nor samples.
var ErrEmptyBatch = errors.New("ingest: empty batch")

// IngestService validates and stores status feed batches.
type IngestService struct {
	store SampleStore
	bus   eventbus.Bus
	clock Clock
}

// NewIngestService constructs an IngestService.
func NewIngestService(store SampleStore, bus eventbus.Bus, clock Clock) (*IngestService, error) {
	if store == nil {
		return nil, errors.New("ingest service: nil sample store")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &IngestService{store: store, bus: bus, clock: clock}, nil
}

// Ingest stores the batch. Samples may reference points registered in the same
// batch; a sample for any other unregistered point rejects the whole batch
// before anything is written.
func (s *IngestService) Ingest(ctx context.Context, batch IngestBatch) error {
	if len(batch.ChargePoints) == 0 && len(batch.Samples) == 0 {
		return ErrEmptyBatch
	}
	for _, point := range batch.ChargePoints {
		if err := point.Validate(); err != nil {
			return err
		}
	}
	samples := make([]occupancy.StatusSample, 0, len(batch.Samples))
	for _, sample := range batch.Samples {
		valid, err := sample.Validate()
		if err != nil {
			return err
		}
		samples = append(samples, valid)
	}

	if err := s.checkReferences(ctx, batch.ChargePoints, samples); err != nil {
		return err
	}

	if err := s.store.UpsertChargePoints(ctx, batch.ChargePoints); err != nil {
		return err
	}
	if err := s.store.InsertSamples(ctx, samples); err != nil {
		return err
	}

	if s.bus == nil {
		return nil
	}
	return s.bus.Publish(ctx, events.SamplesIngested{
		ChargePoints: len(batch.ChargePoints),
		Samples:      len(samples),
		OccurredAt:   s.clock.Now(),
	})
}

func (s *IngestService) checkReferences(ctx context.Context, points []occupancy.ChargePoint, samples []occupancy.StatusSample) error {
	inBatch := make(map[string]struct{}, len(points))
	for _, point := range points {
		inBatch[point.ID] = struct{}{}
	}
	seen := make(map[string]struct{})
	var ids []string
	for _, sample := range samples {
		if _, ok := inBatch[sample.ChargePointID]; ok {
			continue
		}
		if _, ok := seen[sample.ChargePointID]; ok {
			continue
		}
		seen[sample.ChargePointID] = struct{}{}
		ids = append(ids, sample.ChargePointID)
	}
	if len(ids) == 0 {
		return nil
	}

	missing, err := s.store.MissingChargePoints(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", occupancy.ErrUnknownChargePoint, strings.Join(missing, ", "))
	}
	return nil
}
