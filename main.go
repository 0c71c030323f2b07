package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chargepoint-occupancy/internal/audit"
	"chargepoint-occupancy/internal/auth"
	"chargepoint-occupancy/internal/observability/metrics"
	"chargepoint-occupancy/internal/occupancy/application"
	"chargepoint-occupancy/internal/occupancy/application/eventbus"
	"chargepoint-occupancy/internal/occupancy/application/events"
	occupancy "chargepoint-occupancy/internal/occupancy/domain"
	occupancyrepo "chargepoint-occupancy/internal/occupancy/infrastructure/postgres"
	occupancyhttp "chargepoint-occupancy/internal/occupancy/interfaces/http"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	occupancyCfg, err := application.LoadConfig()
	if err != nil {
		logger.Fatalf("occupancy config error: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)
	repo := occupancyrepo.NewRepository(db)

	bus := eventbus.NewInMemoryBus()
	eventbus.On(bus, func(_ context.Context, evt events.ScoringPassCompleted) error {
		logger.Printf("scoring pass completed: aggregator=%s window=%s..%s divisor=%d records=%d locations=%d duration=%s",
			evt.Aggregator, occupancy.FormatDate(evt.Window.StartDate), occupancy.FormatDate(evt.Window.EndDate),
			evt.Divisor.Value(), evt.Records, evt.Locations, evt.Duration)
		return nil
	})
	eventbus.On(bus, func(_ context.Context, evt events.ScoringPassFailed) error {
		logger.Printf("scoring pass failed: aggregator=%s err=%v", evt.Aggregator, evt.Err)
		return nil
	})
	eventbus.On(bus, func(_ context.Context, evt events.SamplesIngested) error {
		logger.Printf("status samples ingested: charge_points=%d samples=%d", evt.ChargePoints, evt.Samples)
		return nil
	})

	scoringService, err := application.NewScoringService(repo, bus, application.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("scoring service error: %v", err)
	}
	ingestService, err := application.NewIngestService(repo, bus, application.SystemClock{})
	if err != nil {
		logger.Fatalf("ingest service error: %v", err)
	}

	parser := occupancyhttp.NewRequestParser(occupancyCfg)
	queryHandler, err := occupancyhttp.NewQueryHandler(scoringService, parser, logger)
	if err != nil {
		logger.Fatalf("query handler error: %v", err)
	}
	exportHandler, err := occupancyhttp.NewExportHandler(scoringService, parser, occupancyCfg.ReportTitle, auditRepo, logger)
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}
	ingestHandler, err := occupancyhttp.NewIngestHandler(ingestService, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics", "/charge_points", "/date_interval"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	ingestAuth := auth.NewIngestAuthMiddleware([]byte(cfg.IngestSecret), time.Duration(cfg.IngestSkewSeconds)*time.Second)
	ingestAuth.OnReject = func(r *http.Request, err error) {
		metrics.IncIngestError("auth")
		logger.Printf("status ingest: rejected %s: %v", r.RemoteAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ingest/status-samples", ingestAuth.Wrap(ingestHandler))
	mux.Handle("/charge_points", queryHandler)
	mux.Handle("/date_interval", queryHandler)
	mux.Handle("/api/v1/occupancy/scores", queryHandler)
	mux.Handle("/api/v1/occupancy/breakdown", queryHandler)
	mux.Handle("/api/v1/occupancy/last", queryHandler)
	mux.Handle("/api/v1/occupancy/export.xlsx", exportHandler)
	mux.Handle("/api/v1/occupancy/export.pdf", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL       string
	HTTPAddr          string
	ReadHeaderTimeout time.Duration
	JWTSecret         string
	IngestSecret      string
	IngestSkewSeconds int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		ReadHeaderTimeout: getenvDuration("HTTP_READ_HEADER_TIMEOUT", 10*time.Second),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestSecret:      getenvDefault("INGEST_HMAC_SECRET", ""),
		IngestSkewSeconds: getenvIntDefault("INGEST_MAX_SKEW_SECONDS", 300),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
