package application

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"testing"
	"time"

	"chargepoint-occupancy/internal/occupancy/application/eventbus"
	"chargepoint-occupancy/internal/occupancy/application/events"
	occupancy "chargepoint-occupancy/internal/occupancy/domain"
	"chargepoint-occupancy/internal/occupancy/infrastructure/memory"
)

var (
	locationA = occupancy.Location{Longitude: -6.26, Latitude: 53.35}
	locationB = occupancy.Location{Longitude: -8.47, Latitude: 51.9}
	dayOne    = time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type failingSource struct {
	err error
}

func (s failingSource) LoadRecords(context.Context, occupancy.ResolvedWindow) ([]occupancy.ChargePointRecord, error) {
	return nil, s.err
}

func (s failingSource) DatasetBounds(context.Context) (occupancy.DatasetBounds, error) {
	return occupancy.DatasetBounds{MinDate: dayOne, MaxDate: dayOne}, nil
}

type staticSource struct {
	records []occupancy.ChargePointRecord
}

func (s staticSource) LoadRecords(context.Context, occupancy.ResolvedWindow) ([]occupancy.ChargePointRecord, error) {
	return s.records, nil
}

func (s staticSource) DatasetBounds(context.Context) (occupancy.DatasetBounds, error) {
	return occupancy.DatasetBounds{MinDate: dayOne, MaxDate: dayOne}, nil
}

func ticks(id string, from, count int, status occupancy.Status) []occupancy.StatusSample {
	samples := make([]occupancy.StatusSample, 0, count)
	for i := from; i < from+count; i++ {
		samples = append(samples, occupancy.StatusSample{
			ChargePointID: id,
			SampledAt:     dayOne.Add(time.Duration(i) * occupancy.TickLength),
			Status:        status,
		})
	}
	return samples
}

func seededRepository(t *testing.T) *memory.Repository {
	t.Helper()
	repo := memory.NewRepository()
	ctx := context.Background()
	points := []occupancy.ChargePoint{
		{ID: "cp-1", Location: locationA, Category: occupancy.CategoryComboCCS, Address: "Dame St"},
		{ID: "cp-2", Location: locationA, Category: occupancy.CategoryCHAdeMO, Address: "Dame St"},
		{ID: "cp-3", Location: locationB, Category: occupancy.CategoryStandardType2, Address: "Patrick St"},
	}
	if err := repo.UpsertChargePoints(ctx, points); err != nil {
		t.Fatalf("upsert points: %v", err)
	}
	var samples []occupancy.StatusSample
	samples = append(samples, ticks("cp-1", 0, 100, occupancy.StatusFullyOccupied)...)
	samples = append(samples, ticks("cp-1", 100, 20, occupancy.StatusPartiallyOccupied)...)
	samples = append(samples, ticks("cp-2", 0, 50, occupancy.StatusFullyOccupied)...)
	samples = append(samples, ticks("cp-3", 0, 10, occupancy.StatusOutOfService)...)
	if err := repo.InsertSamples(ctx, samples); err != nil {
		t.Fatalf("insert samples: %v", err)
	}
	return repo
}

func newService(t *testing.T, source RecordSource, bus eventbus.Bus) *ScoringService {
	t.Helper()
	svc, err := NewScoringService(source, bus, fixedClock{now: dayOne.Add(48 * time.Hour)}, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new scoring service: %v", err)
	}
	return svc
}

func allTypes() occupancy.ChargeTypeSelection {
	return occupancy.NewChargeTypeSelection(occupancy.DefaultCategories()...)
}

func scoreAt(t *testing.T, result *ScoringResult, location occupancy.Location) float64 {
	t.Helper()
	for _, loc := range result.Locations {
		if loc.Location == location {
			return loc.Score
		}
	}
	t.Fatalf("location %v not scored", location)
	return 0
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScoringService_Score(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	var completed []events.ScoringPassCompleted
	eventbus.On(bus, func(_ context.Context, evt events.ScoringPassCompleted) error {
		completed = append(completed, evt)
		return nil
	})
	svc := newService(t, seededRepository(t), bus)

	result, err := svc.Score(context.Background(), ScoringRequest{
		Selection:  allTypes(),
		Aggregator: occupancy.AggregatorAverageUsage,
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.Divisor.Value() != 289 {
		t.Fatalf("expected divisor 289, got %d", result.Divisor.Value())
	}
	if result.Records != 3 || len(result.Locations) != 2 {
		t.Fatalf("unexpected result size: records=%d locations=%d", result.Records, len(result.Locations))
	}
	if got, want := scoreAt(t, result, locationA), 80.0/289*100; !near(got, want) {
		t.Fatalf("location A: expected %v, got %v", want, got)
	}
	if got := scoreAt(t, result, locationB); got != 0 {
		t.Fatalf("location B: expected 0, got %v", got)
	}
	if result.Locations[0].Points != 2 || len(result.Locations[0].Categories) != 2 {
		t.Fatalf("unexpected location A summary: %+v", result.Locations[0])
	}
	if len(completed) != 1 || completed[0].Locations != 2 {
		t.Fatalf("expected one completion event, got %+v", completed)
	}
	if last, ok := svc.LastResult(); !ok || last != result {
		t.Fatalf("expected last result to be the completed pass")
	}
}

func TestScoringService_AvailableAndFallback(t *testing.T) {
	svc := newService(t, seededRepository(t), nil)
	ctx := context.Background()

	available, err := svc.Score(ctx, ScoringRequest{Selection: allTypes(), Aggregator: occupancy.AggregatorAvailable})
	if err != nil {
		t.Fatalf("score available: %v", err)
	}
	if got := scoreAt(t, available, locationB); got != 100 {
		t.Fatalf("expected idle location to be fully available, got %v", got)
	}

	fallback, err := svc.Score(ctx, ScoringRequest{Selection: allTypes(), Aggregator: occupancy.AggregatorUnrecognized})
	if err != nil {
		t.Fatalf("score fallback: %v", err)
	}
	if got, want := scoreAt(t, fallback, locationB), 10.0/289*100; !near(got, want) {
		t.Fatalf("expected fallback sum score %v, got %v", want, got)
	}
}

func TestScoringService_FilterAndEmptySelection(t *testing.T) {
	svc := newService(t, seededRepository(t), nil)
	ctx := context.Background()

	onlyCCS := occupancy.SelectOnly(occupancy.DefaultCategories(), []occupancy.Category{occupancy.CategoryComboCCS})
	result, err := svc.Score(ctx, ScoringRequest{Selection: onlyCCS, Aggregator: occupancy.AggregatorAverageUsage})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(result.Locations) != 1 {
		t.Fatalf("expected only location A, got %d locations", len(result.Locations))
	}
	if got, want := scoreAt(t, result, locationA), 110.0/289*100; !near(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	none := occupancy.SelectOnly(occupancy.DefaultCategories(), nil)
	empty, err := svc.Score(ctx, ScoringRequest{Selection: none, Aggregator: occupancy.AggregatorAverageUsage})
	if err != nil {
		t.Fatalf("empty selection must not fail: %v", err)
	}
	if len(empty.Locations) != 0 || empty.Records != 0 {
		t.Fatalf("expected empty pass, got %+v", empty)
	}
}

func TestScoringService_InvalidWindowKeepsLastResult(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	var failed []events.ScoringPassFailed
	eventbus.On(bus, func(_ context.Context, evt events.ScoringPassFailed) error {
		failed = append(failed, evt)
		return nil
	})
	svc := newService(t, seededRepository(t), bus)
	ctx := context.Background()

	good, err := svc.Score(ctx, ScoringRequest{Selection: allTypes(), Aggregator: occupancy.AggregatorAverageUsage})
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	noon, _ := occupancy.ParseTimeOfDay("12:00")
	eight, _ := occupancy.ParseTimeOfDay("08:00")
	_, err = svc.Score(ctx, ScoringRequest{
		Window:     occupancy.TimeWindow{StartTime: noon, EndTime: eight},
		Selection:  allTypes(),
		Aggregator: occupancy.AggregatorAverageUsage,
	})
	if !errors.Is(err, occupancy.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if len(failed) != 1 || !errors.Is(failed[0].Err, occupancy.ErrInvalidWindow) {
		t.Fatalf("expected one failure event, got %+v", failed)
	}
	if last, ok := svc.LastResult(); !ok || last != good {
		t.Fatalf("failed pass replaced the last valid result")
	}
}

func TestScoringService_SourceError(t *testing.T) {
	boom := errors.New("boom")
	svc := newService(t, failingSource{err: boom}, nil)
	if _, err := svc.Score(context.Background(), ScoringRequest{Selection: allTypes()}); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
	if _, ok := svc.LastResult(); ok {
		t.Fatalf("expected no last result")
	}
}

func TestScoringService_NegativeCountsAbortPass(t *testing.T) {
	source := &staticSource{records: []occupancy.ChargePointRecord{
		{ID: "cp-1", Location: locationA, Category: occupancy.CategoryComboCCS, Counts: occupancy.StatusCounts{FullyOccupied: 10}},
	}}
	bus := eventbus.NewInMemoryBus()
	var failed []events.ScoringPassFailed
	eventbus.On(bus, func(_ context.Context, evt events.ScoringPassFailed) error {
		failed = append(failed, evt)
		return nil
	})
	svc := newService(t, source, bus)
	ctx := context.Background()
	req := ScoringRequest{Selection: allTypes(), Aggregator: occupancy.AggregatorAvailable}

	good, err := svc.Score(ctx, req)
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	source.records = []occupancy.ChargePointRecord{
		{ID: "cp-1", Location: locationA, Category: occupancy.CategoryComboCCS, Counts: occupancy.StatusCounts{FullyOccupied: -50}},
	}
	if _, err := svc.Score(ctx, req); !errors.Is(err, occupancy.ErrNegativeCount) {
		t.Fatalf("expected ErrNegativeCount, got %v", err)
	}
	if len(failed) != 1 || !errors.Is(failed[0].Err, occupancy.ErrNegativeCount) {
		t.Fatalf("expected one failure event, got %+v", failed)
	}
	if last, ok := svc.LastResult(); !ok || last != good {
		t.Fatalf("failed pass replaced the last valid result")
	}
	if _, _, err := svc.Records(ctx, req); !errors.Is(err, occupancy.ErrNegativeCount) {
		t.Fatalf("expected records to reject negative counts, got %v", err)
	}
}

func TestScoringService_Breakdown(t *testing.T) {
	svc := newService(t, seededRepository(t), nil)
	ctx := context.Background()

	result, err := svc.Breakdown(ctx, ScoringRequest{Selection: allTypes()}, locationA)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(result.Rows) != 2 || result.Address != "Dame St" {
		t.Fatalf("unexpected breakdown: %+v", result)
	}
	if got, want := result.Rows[0].FullyOccupied, 100.0/289*100; !near(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got, want := result.Rows[0].PartiallyOccupied, 20.0/289*100; !near(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, err := svc.Breakdown(ctx, ScoringRequest{Selection: allTypes()}, occupancy.Location{}); !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestScoringService_ScoreFunc(t *testing.T) {
	svc := newService(t, seededRepository(t), nil)
	scoreOf := svc.ScoreFunc(occupancy.Divisor{Days: 1, TicksPerDay: 100}, occupancy.AggregatorFullyOccupied)
	score, err := scoreOf([]occupancy.ChargePointRecord{{Counts: occupancy.StatusCounts{FullyOccupied: 25}}})
	if err != nil || score != 25 {
		t.Fatalf("expected 25, got %v err=%v", score, err)
	}
	if _, err := scoreOf(nil); !errors.Is(err, occupancy.ErrEmptyGroup) {
		t.Fatalf("expected ErrEmptyGroup, got %v", err)
	}
}
