package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"chargepoint-occupancy/internal/audit"
	"chargepoint-occupancy/internal/auth"
	"chargepoint-occupancy/internal/observability/metrics"
	"chargepoint-occupancy/internal/occupancy/application"
	occupancy "chargepoint-occupancy/internal/occupancy/domain"
)

const exportPathPrefix = "/api/v1/occupancy/export."

type exportFormat struct {
	contentType string
	build       func(title string, result *application.ScoringResult) ([]byte, error)
}

var exportFormats = map[string]exportFormat{
	"xlsx": {contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", build: BuildScoresXLSX},
	"pdf":  {contentType: "application/pdf", build: BuildScoresPDF},
}

// ExportHandler serves scoring reports as xlsx or pdf.
type ExportHandler struct {
	service     *application.ScoringService
	parser      RequestParser
	title       string
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewExportHandler constructs an ExportHandler. auditLogger may be nil.
func NewExportHandler(service *application.ScoringService, parser RequestParser, title string, auditLogger audit.Logger, logger *log.Logger) (*ExportHandler, error) {
	if service == nil {
		return nil, errors.New("occupancy export handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ExportHandler{service: service, parser: parser, title: title, auditLogger: auditLogger, logger: logger}, nil
}

// ServeHTTP handles GET /api/v1/occupancy/export.{xlsx,pdf}.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, exportPathPrefix)
	format, ok := exportFormats[name]
	if !strings.HasPrefix(r.URL.Path, exportPathPrefix) || !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	start := time.Now()
	req, err := h.parser.Parse(r)
	if err != nil {
		metrics.ObserveExport(name, metrics.ResultError, time.Since(start))
		writeError(w, err)
		return
	}
	result, err := h.service.Score(r.Context(), req)
	if err != nil {
		metrics.ObserveExport(name, metrics.ResultError, time.Since(start))
		writeError(w, err)
		return
	}
	data, err := format.build(h.title, result)
	if err != nil {
		metrics.ObserveExport(name, metrics.ResultError, time.Since(start))
		h.logger.Printf("occupancy export: build %s error: %v", name, err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport(name, metrics.ResultSuccess, time.Since(start))
	h.audit(r, name, result)

	w.Header().Set("Content-Type", format.contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(result, name)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ExportHandler) audit(r *http.Request, format string, result *application.ScoringResult) {
	if h.auditLogger == nil {
		return
	}
	metadata, _ := json.Marshal(map[string]any{
		"format":     format,
		"aggregator": result.Aggregator.String(),
		"start_date": occupancy.FormatDate(result.Window.StartDate),
		"end_date":   occupancy.FormatDate(result.Window.EndDate),
		"locations":  len(result.Locations),
	})
	err := h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "occupancy.export",
		ResourceType: "occupancy_report",
		ResourceID:   format,
		Metadata:     metadata,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		h.logger.Printf("occupancy export: audit error: %v", err)
	}
}

func exportFilename(result *application.ScoringResult, ext string) string {
	return fmt.Sprintf("occupancy-%s-%s-%s.%s",
		result.Aggregator,
		occupancy.FormatDate(result.Window.StartDate),
		occupancy.FormatDate(result.Window.EndDate),
		ext,
	)
}
