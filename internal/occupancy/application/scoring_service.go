package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"chargepoint-occupancy/internal/observability/metrics"
	"chargepoint-occupancy/internal/occupancy/application/eventbus"
	"chargepoint-occupancy/internal/occupancy/application/events"
	occupancy "chargepoint-occupancy/internal/occupancy/domain"
)

// RecordSource loads charge point status summaries for a window.
type RecordSource interface {
	LoadRecords(ctx context.Context, window occupancy.ResolvedWindow) ([]occupancy.ChargePointRecord, error)
	DatasetBounds(ctx context.Context) (occupancy.DatasetBounds, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now in UTC.
type SystemClock struct{}

// Now returns current time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ScoringRequest carries the session state read by one scoring pass.
type ScoringRequest struct {
	Window     occupancy.TimeWindow
	Selection  occupancy.ChargeTypeSelection
	Aggregator occupancy.AggregatorKind
}

// LocationScore is the score of one location group.
type LocationScore struct {
	Location   occupancy.Location
	Address    string
	Categories []occupancy.Category
	Points     int
	Score      float64
}

// ScoringResult is the outcome of one scoring pass.
type ScoringResult struct {
	Window     occupancy.ResolvedWindow
	Bounds     occupancy.DatasetBounds
	Divisor    occupancy.Divisor
	Aggregator occupancy.AggregatorKind
	Records    int
	Locations  []LocationScore
	ComputedAt time.Time
}

// BreakdownResult lists per-record status shares at one location.
type BreakdownResult struct {
	Window   occupancy.ResolvedWindow
	Divisor  occupancy.Divisor
	Location occupancy.Location
	Address  string
	Rows     []occupancy.StatusBreakdown
}

// ErrLocationNotFound is returned when no filtered record sits at the requested location.
var ErrLocationNotFound = errors.New("occupancy: location not found")

// ScoringService runs scoring passes against a record source.
// A failed pass leaves the last successful result in place.
type ScoringService struct {
	source RecordSource
	bus    eventbus.Bus
	clock  Clock
	logger *log.Logger

	mu    sync.Mutex
	cache occupancy.DivisorCache
	last  *ScoringResult
}

// NewScoringService constructs a ScoringService.
func NewScoringService(source RecordSource, bus eventbus.Bus, clock Clock, logger *log.Logger) (*ScoringService, error) {
	if source == nil {
		return nil, errors.New("scoring service: nil record source")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ScoringService{source: source, bus: bus, clock: clock, logger: logger}, nil
}

// Bounds returns the dataset date bounds.
func (s *ScoringService) Bounds(ctx context.Context) (occupancy.DatasetBounds, error) {
	return s.source.DatasetBounds(ctx)
}

// Records resolves the window and returns the records kept by the selection.
func (s *ScoringService) Records(ctx context.Context, req ScoringRequest) (occupancy.ResolvedWindow, []occupancy.ChargePointRecord, error) {
	window, _, records, err := s.load(ctx, req)
	return window, records, err
}

// Score runs one scoring pass: filter, group, normalize and score every location.
func (s *ScoringService) Score(ctx context.Context, req ScoringRequest) (*ScoringResult, error) {
	start := s.clock.Now()
	result, err := s.score(ctx, req)
	duration := s.clock.Now().Sub(start)
	if err != nil {
		metrics.ObserveScoringPass(metrics.ResultError, duration)
		s.logger.Printf("scoring pass: aborted: %v", err)
		s.publish(ctx, events.ScoringPassFailed{
			Window:     req.Window,
			Aggregator: req.Aggregator,
			Err:        err,
			OccurredAt: s.clock.Now(),
		})
		return nil, err
	}

	metrics.ObserveScoringPass(metrics.ResultSuccess, duration)
	metrics.SetScoredLocations(len(result.Locations))
	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	s.publish(ctx, events.ScoringPassCompleted{
		Window:     result.Window,
		Aggregator: result.Aggregator,
		Divisor:    result.Divisor,
		Records:    result.Records,
		Locations:  len(result.Locations),
		Duration:   duration,
		OccurredAt: result.ComputedAt,
	})
	return result, nil
}

func (s *ScoringService) score(ctx context.Context, req ScoringRequest) (*ScoringResult, error) {
	if !req.Aggregator.IsKnown() {
		metrics.IncUnknownAggregator()
		s.logger.Printf("scoring pass: unknown aggregator, scoring with sum of counts")
	}

	window, bounds, records, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	divisor, err := s.divisor(window)
	if err != nil {
		return nil, err
	}

	scoreOf := s.ScoreFunc(divisor, req.Aggregator)
	groups := occupancy.GroupByLocation(records)
	locations := make([]LocationScore, 0, len(groups))
	for _, group := range groups {
		score, err := scoreOf(group.Records)
		if err != nil {
			return nil, fmt.Errorf("score location %v: %w", group.Location, err)
		}
		locations = append(locations, LocationScore{
			Location:   group.Location,
			Address:    group.Address(),
			Categories: categoriesOf(group.Records),
			Points:     len(group.Records),
			Score:      score,
		})
	}

	return &ScoringResult{
		Window:     window,
		Bounds:     bounds,
		Divisor:    divisor,
		Aggregator: req.Aggregator,
		Records:    len(records),
		Locations:  locations,
		ComputedAt: s.clock.Now(),
	}, nil
}

// Breakdown returns the per-record status shares of the records at location.
func (s *ScoringService) Breakdown(ctx context.Context, req ScoringRequest, location occupancy.Location) (*BreakdownResult, error) {
	window, _, records, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	divisor, err := s.divisor(window)
	if err != nil {
		return nil, err
	}

	for _, group := range occupancy.GroupByLocation(records) {
		if group.Location != location {
			continue
		}
		rows, err := occupancy.Breakdown(group.Records, divisor)
		if err != nil {
			return nil, err
		}
		return &BreakdownResult{
			Window:   window,
			Divisor:  divisor,
			Location: location,
			Address:  group.Address(),
			Rows:     rows,
		}, nil
	}
	return nil, ErrLocationNotFound
}

// ScoreFunc returns the per-group scoring callback handed to the spatial layer.
func (s *ScoringService) ScoreFunc(divisor occupancy.Divisor, kind occupancy.AggregatorKind) func([]occupancy.ChargePointRecord) (float64, error) {
	return func(group []occupancy.ChargePointRecord) (float64, error) {
		return occupancy.ScoreGroup(group, divisor, kind)
	}
}

// LastResult returns the most recent successful pass.
func (s *ScoringService) LastResult() (*ScoringResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.last != nil
}

func (s *ScoringService) load(ctx context.Context, req ScoringRequest) (occupancy.ResolvedWindow, occupancy.DatasetBounds, []occupancy.ChargePointRecord, error) {
	bounds, err := s.source.DatasetBounds(ctx)
	switch {
	case errors.Is(err, occupancy.ErrNoData) && !req.Window.StartDate.IsZero() && !req.Window.EndDate.IsZero():
		// an explicit date range is still scored against an empty dataset
	case err != nil:
		return occupancy.ResolvedWindow{}, occupancy.DatasetBounds{}, nil, err
	}
	window, err := req.Window.Resolve(bounds)
	if err != nil {
		return occupancy.ResolvedWindow{}, bounds, nil, err
	}
	records, err := s.source.LoadRecords(ctx, window)
	if err != nil {
		return window, bounds, nil, err
	}
	for _, record := range records {
		if err := record.Counts.Validate(); err != nil {
			return window, bounds, nil, fmt.Errorf("record %s: %w", record.ID, err)
		}
	}
	return window, bounds, occupancy.FilterByChargeType(records, req.Selection), nil
}

func (s *ScoringService) divisor(window occupancy.ResolvedWindow) (occupancy.Divisor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Get(window)
}

func (s *ScoringService) publish(ctx context.Context, event any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Printf("scoring pass: publish error: %v", err)
	}
}

func categoriesOf(records []occupancy.ChargePointRecord) []occupancy.Category {
	seen := make(map[occupancy.Category]struct{}, len(records))
	out := make([]occupancy.Category, 0, len(records))
	for _, record := range records {
		if _, ok := seen[record.Category]; ok {
			continue
		}
		seen[record.Category] = struct{}{}
		out = append(out, record.Category)
	}
	return out
}
