// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dashboard provides the Tekton ops dashboard metrics service.
//
// This package contains the Service type that coordinates all components:
// the bounded series store, the backend collector, the live stream broker,
// the optional InfluxDB export sink, HTTP routing, and observability
// infrastructure.
//
// # Usage
//
//	cfg := dashboard.Config{Port: 8080}
//	svc, err := dashboard.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc.Run()
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ckoons/Tekton-sub001/services/dashboard/collector"
	"github.com/ckoons/Tekton-sub001/services/dashboard/export"
	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
	"github.com/ckoons/Tekton-sub001/services/dashboard/observability"
	"github.com/ckoons/Tekton-sub001/services/dashboard/routes"
	"github.com/ckoons/Tekton-sub001/services/dashboard/stream"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the dashboard service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and should
// only be called once per instance.
type Service interface {
	// Run starts the HTTP server and background workers, and blocks until
	// a shutdown signal or a fatal error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds dashboard service configuration options.
//
// # Description
//
// Centralizes all configuration for the service. Values can be populated
// from environment variables, config files, or programmatically for
// testing. All fields have sensible defaults.
//
// # Examples
//
//	// Minimal config (uses all defaults)
//	cfg := Config{}
//
//	// Custom port with InfluxDB export
//	cfg := Config{
//	    Port:        8080,
//	    InfluxURL:   "http://localhost:8086",
//	    InfluxToken: "...",
//	}
type Config struct {
	// Port is the HTTP server port. Default: 8080
	Port int

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "tekton-otel-collector:4317"
	OTelEndpoint string

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string

	// StoreCapacity is the per-channel sample retention bound.
	// Default: metrics.DefaultCapacity (50)
	StoreCapacity int

	// CollectorConfigPath points at the collector's YAML target file.
	// If empty or missing, the built-in core targets are used and config
	// hot-reload is disabled.
	CollectorConfigPath string

	// CollectorIntervalSeconds overrides the poll cadence when > 0.
	CollectorIntervalSeconds int

	// InfluxURL enables the export sink when set.
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string

	// APIToken guards the mutating endpoints when non-empty.
	APIToken string

	// EnableMetrics enables Prometheus metrics registration.
	// Default: true
	EnableMetrics bool
}

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "tekton-otel-collector:4317"
	}
	if cfg.StoreCapacity == 0 {
		cfg.StoreCapacity = metrics.DefaultCapacity
	}
	cfg.EnableMetrics = true
	return cfg
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
type service struct {
	config        Config
	router        *gin.Engine
	store         *metrics.Store
	broker        *stream.Broker
	collector     *collector.Collector
	watcher       *collector.ConfigWatcher
	sink          *export.Sink
	startedAt     time.Time
	tracerCleanup func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a dashboard Service with the given configuration.
//
// # Description
//
// Initializes all components in dependency order:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Initializes Prometheus metrics
//  4. Creates the series store and stream broker
//  5. Creates the backend collector (with config hot-reload when a file
//     is configured)
//  6. Creates the InfluxDB export sink if configured
//  7. Sets up HTTP routes
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//
// # Outputs
//
//   - Service: Ready-to-run dashboard service
//   - error: Non-nil if initialization fails
//
// # Limitations
//
//   - The export sink requires InfluxDB to become healthy during startup;
//     a configured-but-unreachable InfluxDB fails construction.
func New(cfg Config) (Service, error) {
	s := &service{
		config:    applyConfigDefaults(cfg),
		startedAt: time.Now(),
	}

	// Initialize OpenTelemetry tracer
	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	// Initialize Prometheus metrics. Guarded so repeated construction in
	// tests does not hit duplicate registration.
	if s.config.EnableMetrics && observability.DefaultMetrics == nil {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for dashboard")
	}

	// Series store with eviction instrumentation.
	s.store = metrics.New(metrics.Config{
		Capacity: s.config.StoreCapacity,
		OnEvict: func(channel string, evicted int) {
			if m := observability.DefaultMetrics; m != nil {
				m.RecordEviction(channel, evicted)
			}
		},
	})

	// Live stream broker with drop instrumentation.
	s.broker = stream.NewBroker(stream.WithDropHandler(func(subscriberID string) {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordStreamDrop(subscriberID)
		}
	}))

	if err := s.initCollector(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize collector: %w", err)
	}

	if err := s.initExportSink(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize export sink: %w", err)
	}

	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and background workers.
//
// # Description
//
// Blocks until SIGINT/SIGTERM or a fatal component error, then shuts down
// gracefully: the HTTP server drains in-flight requests, the collector
// finishes its probes, the broker closes every subscription, and the export
// sink flushes its last events.
func (s *service) Run() error {
	defer s.cleanup()

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}

	s.collector.Start(ctx)
	if s.watcher != nil {
		go s.watcher.Start(ctx)
	}
	if s.sink != nil {
		if err := s.sink.Start(ctx); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting dashboard server", "port", s.config.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down dashboard server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	s.collector.Stop()
	s.broker.Close()
	if s.sink != nil {
		s.sink.Close()
	}

	return err
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// initTracer initializes OpenTelemetry distributed tracing.
//
// # Description
//
// Sets up an OTLP trace exporter sending spans to the configured collector.
// The gRPC connection is lazy, so an unreachable collector does not block
// startup; spans are dropped until it appears.
//
// # Limitations
//
//   - Uses an insecure gRPC connection (appropriate for internal networks)
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("dashboard-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initCollector builds the backend collector from file config when present,
// built-in defaults otherwise, and wires the config hot-reload watcher.
func (s *service) initCollector() error {
	cfg := collector.DefaultConfig()

	watchPath := ""
	if s.config.CollectorConfigPath != "" {
		if _, err := os.Stat(s.config.CollectorConfigPath); err == nil {
			loaded, err := collector.LoadConfig(s.config.CollectorConfigPath)
			if err != nil {
				return err
			}
			cfg = loaded
			watchPath = s.config.CollectorConfigPath
		} else {
			slog.Warn("Collector config file not found, using built-in targets",
				"path", s.config.CollectorConfigPath)
		}
	}

	if s.config.CollectorIntervalSeconds > 0 {
		cfg.IntervalSeconds = s.config.CollectorIntervalSeconds
	}

	col, err := collector.New(cfg, s.store, s.broker)
	if err != nil {
		return err
	}
	s.collector = col

	if watchPath != "" {
		watcher, err := collector.NewConfigWatcher(watchPath, col)
		if err != nil {
			slog.Warn("Collector config watcher unavailable, hot reload disabled",
				"path", watchPath, "error", err)
			return nil
		}
		s.watcher = watcher
	}

	return nil
}

// initExportSink builds the InfluxDB sink when configured.
func (s *service) initExportSink() error {
	if s.config.InfluxURL == "" {
		slog.Info("InfluxDB URL not configured, export sink disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sink, err := export.NewSink(ctx, export.Config{
		URL:    s.config.InfluxURL,
		Token:  s.config.InfluxToken,
		Org:    s.config.InfluxOrg,
		Bucket: s.config.InfluxBucket,
	}, s.broker)
	if err != nil {
		return err
	}
	s.sink = sink

	return nil
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("dashboard-service"))

	routes.SetupRoutes(s.router, routes.Deps{
		Store:          s.store,
		Broker:         s.broker,
		StatusProvider: s.collector,
		APIToken:       s.config.APIToken,
		StartedAt:      s.startedAt,
	})
}

// cleanup releases resources on Run exit or failed construction.
func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
