package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"icuboard/internal/config"
	"icuboard/internal/dataset"
	apierrors "icuboard/internal/errors"
	"icuboard/internal/exporter"
	"icuboard/internal/infrastructure"
	"icuboard/internal/middleware"
	"icuboard/internal/services"
	handlers "icuboard/internal/transport/http"
	ws "icuboard/internal/websocket"
)

const (
	AppName = "icuboard"
	Version = infrastructure.ServiceVersion
)

// Application wires configuration, services, and the HTTP server.
type Application struct {
	Config *config.Config
	Paths  *config.Paths
	Logger *slog.Logger

	Router *chi.Mux
	Server *http.Server

	OTelProviders *infrastructure.OTelProviders
	WebSocketHub  *ws.Hub

	Store          *dataset.Store
	DatasetService *services.DatasetService
	ExplainService *services.ExplainService
	HealthService  *services.HealthService
}

// NewApplication builds a fully wired application from the environment.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := infrastructure.NewLogger(cfg.Logging)
	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(logger, cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices constructs the service graph in dependency order.
func (a *Application) initializeServices() {
	hub := ws.NewHub(a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	a.Store = dataset.NewStore(a.Config.Dataset, a.Paths, a.Logger)

	a.DatasetService = services.NewDatasetService(
		a.Store,
		exporter.NewCSVWriter(a.Paths, a.Logger),
		exporter.NewXLSXWriter(a.Logger),
		hub,
		a.Logger,
	)

	a.ExplainService = services.NewExplainService(a.Config.Explain, a.Logger)

	a.HealthService = services.NewHealthService(a.DatasetService, a.ExplainService, a.Logger)
}

// setupRouter assembles the middleware chain and mounts the API.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware first so the websocket upgrade is not wrapped by
	// anything that buffers the ResponseWriter.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.HandleFunc("/ws", ws.Handler(a.WebSocketHub, a.Config.WebSocket, a.Logger))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Metrics(a.OTelProviders))
		r.Use(middleware.StructuredLogger(a.Logger))
		r.Use(middleware.Recoverer(a.Logger))
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.CORS(a.corsConfig()))
		r.Use(middleware.Compress(5))
		r.Use(middleware.StripSlashes)
		r.Use(chimiddleware.Timeout(a.Config.Server.RequestTimeout))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(middleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes mounts the API handlers.
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	r.Route("/api", func(r chi.Router) {
		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/healthz", healthHandler.Routes())

		datasetHandler := handlers.NewDatasetHandler(a.DatasetService, a.Logger, errorHandler)
		r.Mount("/dataset", datasetHandler.Routes())

		explainHandler := handlers.NewExplainHandler(a.ExplainService, a.Logger, errorHandler)
		r.Mount("/explain", explainHandler.Routes())
	})
}

func (a *Application) corsConfig() middleware.CORSConfig {
	cfg := middleware.CORSConfig{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
	if a.Config.Security.EnableCORS {
		cfg.AllowedOrigins = a.Config.Security.AllowedOrigins
	}
	return cfg
}

// createServer builds the HTTP server around the router.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.ListenAddr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start launches the HTTP server and kicks off the initial data loads in
// the background, so the server answers health checks while the dataset
// is still being read.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.String("addr", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	go func() {
		if _, err := a.DatasetService.Reload(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "initial dataset load failed",
				slog.String("error", err.Error()))
		}
	}()

	go func() {
		if err := a.ExplainService.Load(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "classifier load failed",
				slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "telemetry shutdown error",
				slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
