package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"chargepoint-occupancy/internal/observability/metrics"
	"chargepoint-occupancy/internal/occupancy/application"
	occupancy "chargepoint-occupancy/internal/occupancy/domain"
)

// IngestHandler accepts status feed batches.
type IngestHandler struct {
	service *application.IngestService
	logger  *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service *application.IngestService, logger *log.Logger) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("status ingest: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{service: service, logger: logger}, nil
}

// ServeHTTP handles POST /ingest/status-samples.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.fail(w, start, "read", err, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.fail(w, start, "decode", err, "invalid json", http.StatusBadRequest)
		return
	}
	batch, err := req.toBatch()
	if err != nil {
		h.fail(w, start, "invalid", err, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := h.service.Ingest(r.Context(), batch); err != nil {
		if isPayloadError(err) {
			h.fail(w, start, "invalid", err, "invalid payload", http.StatusBadRequest)
			return
		}
		h.fail(w, start, "store", err, "insert error", http.StatusInternalServerError)
		return
	}

	metrics.ObserveIngest(metrics.ResultSuccess, time.Since(start))
	metrics.AddIngestSamples(len(batch.Samples))
	writeJSON(w, http.StatusOK, map[string]any{
		"charge_points": len(batch.ChargePoints),
		"samples":       len(batch.Samples),
	})
}

func (h *IngestHandler) fail(w http.ResponseWriter, start time.Time, reason string, err error, message string, status int) {
	h.logger.Printf("status ingest: %s error: %v", reason, err)
	metrics.IncIngestError(reason)
	metrics.ObserveIngest(metrics.ResultError, time.Since(start))
	http.Error(w, message, status)
}

func isPayloadError(err error) bool {
	for _, target := range []error{
		application.ErrEmptyBatch,
		occupancy.ErrEmptyChargePointID,
		occupancy.ErrEmptyCategory,
		occupancy.ErrInvalidSampleTime,
		occupancy.ErrInvalidStatus,
		occupancy.ErrUnknownChargePoint,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type ingestRequest struct {
	ChargePoints []ingestChargePoint `json:"charge_points"`
	Samples      []ingestSample      `json:"samples"`
}

type ingestChargePoint struct {
	ID              string  `json:"id"`
	Longitude       float64 `json:"longitude"`
	Latitude        float64 `json:"latitude"`
	ChargePointType string  `json:"charge_point_type"`
	Address         string  `json:"address"`
}

type ingestSample struct {
	ChargePointID string `json:"charge_point_id"`
	TS            int64  `json:"ts"`
	Status        string `json:"status"`
}

func (r ingestRequest) toBatch() (application.IngestBatch, error) {
	batch := application.IngestBatch{
		ChargePoints: make([]occupancy.ChargePoint, 0, len(r.ChargePoints)),
		Samples:      make([]occupancy.StatusSample, 0, len(r.Samples)),
	}
	for _, point := range r.ChargePoints {
		batch.ChargePoints = append(batch.ChargePoints, occupancy.ChargePoint{
			ID:       point.ID,
			Location: occupancy.Location{Longitude: point.Longitude, Latitude: point.Latitude},
			Category: occupancy.Category(point.ChargePointType),
			Address:  point.Address,
		})
	}
	for _, sample := range r.Samples {
		ts, err := parseTimestamp(sample.TS)
		if err != nil {
			return batch, err
		}
		batch.Samples = append(batch.Samples, occupancy.StatusSample{
			ChargePointID: sample.ChargePointID,
			SampledAt:     ts,
			Status:        occupancy.Status(sample.Status),
		})
	}
	return batch, nil
}

func parseTimestamp(value int64) (time.Time, error) {
	if value <= 0 {
		return time.Time{}, errors.New("invalid ts")
	}
	// Accept milliseconds or seconds.
	if value > 1_000_000_000_000 {
		return time.UnixMilli(value).UTC(), nil
	}
	return time.Unix(value, 0).UTC(), nil
}
