package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chargepoint-occupancy/internal/occupancy/application"
	occupancy "chargepoint-occupancy/internal/occupancy/domain"
)

var errBadRequest = errors.New("bad request")

// RequestParser turns query parameters into scoring requests.
type RequestParser struct {
	catalog     []occupancy.Category
	defaultKind occupancy.AggregatorKind
}

// NewRequestParser builds a parser for the configured catalog.
func NewRequestParser(cfg application.Config) RequestParser {
	return RequestParser{catalog: cfg.Catalog(), defaultKind: cfg.DefaultKind()}
}

// Parse reads start_date, end_date, start_time, end_time, aggregator and charge_types.
// An absent charge_types includes the whole catalog; an unknown aggregator name is
// passed through as AggregatorUnrecognized and scored with the fallback strategy.
func (p RequestParser) Parse(r *http.Request) (application.ScoringRequest, error) {
	query := r.URL.Query()
	var req application.ScoringRequest

	var err error
	if req.Window.StartDate, err = optionalDate(query.Get("start_date")); err != nil {
		return req, err
	}
	if req.Window.EndDate, err = optionalDate(query.Get("end_date")); err != nil {
		return req, err
	}
	if req.Window.StartTime, err = optionalTime(query.Get("start_time")); err != nil {
		return req, err
	}
	if req.Window.EndTime, err = optionalTime(query.Get("end_time")); err != nil {
		return req, err
	}

	req.Aggregator = p.defaultKind
	if name := strings.TrimSpace(query.Get("aggregator")); name != "" {
		// unknown names keep AggregatorUnrecognized
		req.Aggregator, _ = occupancy.ParseAggregatorKind(name)
	}

	if _, ok := query["charge_types"]; ok {
		req.Selection = occupancy.SelectOnly(p.catalog, splitCategories(query.Get("charge_types")))
	} else {
		req.Selection = occupancy.NewChargeTypeSelection(p.catalog...)
	}
	return req, nil
}

func optionalDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	return occupancy.ParseDate(value)
}

func optionalTime(value string) (occupancy.TimeOfDay, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return occupancy.TimeOfDay{}, nil
	}
	return occupancy.ParseTimeOfDay(value)
}

func splitCategories(value string) []occupancy.Category {
	var out []occupancy.Category
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, occupancy.Category(part))
		}
	}
	return out
}

func parseLocation(r *http.Request) (occupancy.Location, error) {
	query := r.URL.Query()
	longitude, err := strconv.ParseFloat(query.Get("longitude"), 64)
	if err != nil {
		return occupancy.Location{}, fmt.Errorf("%w: longitude is required", errBadRequest)
	}
	latitude, err := strconv.ParseFloat(query.Get("latitude"), 64)
	if err != nil {
		return occupancy.Location{}, fmt.Errorf("%w: latitude is required", errBadRequest)
	}
	return occupancy.Location{Longitude: longitude, Latitude: latitude}, nil
}
