package http

import (
	"errors"
	"log"
	"net/http"

	"chargepoint-occupancy/internal/occupancy/application"
	occupancy "chargepoint-occupancy/internal/occupancy/domain"
)

// QueryHandler serves charge point, date bound and scoring queries.
type QueryHandler struct {
	service *application.ScoringService
	parser  RequestParser
	logger  *log.Logger
}

// NewQueryHandler constructs a QueryHandler.
func NewQueryHandler(service *application.ScoringService, parser RequestParser, logger *log.Logger) (*QueryHandler, error) {
	if service == nil {
		return nil, errors.New("occupancy query handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &QueryHandler{service: service, parser: parser, logger: logger}, nil
}

// ServeHTTP routes GET /charge_points, /date_interval and /api/v1/occupancy/{scores,breakdown,last}.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/charge_points":
		h.handleChargePoints(w, r)
	case "/date_interval":
		h.handleDateInterval(w, r)
	case "/api/v1/occupancy/scores":
		h.handleScores(w, r)
	case "/api/v1/occupancy/breakdown":
		h.handleBreakdown(w, r)
	case "/api/v1/occupancy/last":
		h.handleLast(w)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *QueryHandler) handleChargePoints(w http.ResponseWriter, r *http.Request) {
	req, err := h.parser.Parse(r)
	if err != nil {
		writeError(w, err)
		return
	}
	_, records, err := h.service.Records(r.Context(), req)
	if err != nil {
		h.logFailure("charge points", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChargePointDTOs(records))
}

func (h *QueryHandler) handleDateInterval(w http.ResponseWriter, r *http.Request) {
	bounds, err := h.service.Bounds(r.Context())
	if err != nil {
		h.logFailure("date interval", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dateIntervalDTO{
		Min: occupancy.FormatDate(bounds.MinDate),
		Max: occupancy.FormatDate(bounds.MaxDate),
	})
}

func (h *QueryHandler) handleScores(w http.ResponseWriter, r *http.Request) {
	req, err := h.parser.Parse(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.service.Score(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScoresDTO(result))
}

func (h *QueryHandler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	location, err := parseLocation(r)
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := h.parser.Parse(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.service.Breakdown(r.Context(), req, location)
	if err != nil {
		h.logFailure("breakdown", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownDTO(result))
}

func (h *QueryHandler) handleLast(w http.ResponseWriter) {
	result, ok := h.service.LastResult()
	if !ok {
		http.Error(w, "no scoring pass yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toScoresDTO(result))
}

func (h *QueryHandler) logFailure(action string, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		h.logger.Printf("occupancy query: %s error: %v", action, err)
	}
}
