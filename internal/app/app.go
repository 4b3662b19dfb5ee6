package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"tickviewer/internal/config"
	apierrors "tickviewer/internal/errors"
	"tickviewer/internal/infrastructure"
	customMiddleware "tickviewer/internal/middleware"
	"tickviewer/internal/operations"
	"tickviewer/internal/services"
	handlers "tickviewer/internal/transport/http"
	ws "tickviewer/internal/websocket"
	"tickviewer/pkg/contracts"
)

// AppName is logged at startup.
const AppName = "tickviewer"

const systemMetricsInterval = 15 * time.Second

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	WebSocketHub  *ws.Hub
	Tracker       *operations.Tracker
	Services      *ServiceContainer
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.ConversionMetrics
	SystemMetrics *infrastructure.SystemMetricsCollector

	errorHandler *apierrors.ErrorHandler

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
	stopOnce sync.Once
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Data       *services.DataService
	Conversion *services.ConversionService
	Health     *services.HealthService
}

// NewApplication wires the server from cfg. Nothing is started until Start.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution()

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
		serveErr:      make(chan error, 1),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateConversionMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create conversion metrics: %w", err)
	}
	a.Metrics = metrics

	wsMetrics, err := ws.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	a.WebSocketHub = ws.NewHub(a.Logger, wsMetrics)

	collector, err := infrastructure.NewSystemMetricsCollector(a.OTelProviders.Meter, systemMetricsInterval)
	if err != nil {
		return fmt.Errorf("failed to create system metrics: %w", err)
	}
	a.SystemMetrics = collector

	runner := operations.NewBatchRunner(a.Logger,
		operations.WithMetrics(metrics),
		operations.WithTracer(a.OTelProviders.Tracer))

	base := operations.OptionsFromConfig(a.Config.Converter)
	base.InputDir = a.Paths.InputDir
	base.OutputDir = a.Paths.OutputDir
	a.Tracker = operations.NewTracker(runner, base, a.WebSocketHub, a.Logger)

	a.Services = &ServiceContainer{
		Data:       services.NewDataService(a.Paths.OutputDir, a.Logger),
		Conversion: services.NewConversionService(a.Tracker, a.Logger),
		Health:     services.NewHealthService(a.Paths.OutputDir, a.WebSocketHub, a.Tracker, a.Logger),
	}
	return nil
}

// setupRouter builds the route tree. /ws and /metrics sit outside the
// logging and rate limiting group.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	wsHandler := ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.OTelProviders.Tracer, a.Logger)).Handle("/ws", wsHandler)

	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.errorHandler))

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(a.errorHandler.Middleware)
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
		a.setupStaticRoutes(r)
	})

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Get("/healthz", healthHandler.HealthCheck)

	dataHandler := handlers.NewDataHandler(a.Services.Data, a.Config.Server.CacheMaxAge, a.Logger, a.errorHandler)
	opsHandler := handlers.NewOperationsHandler(a.Services.Conversion, a.Logger, a.errorHandler)
	clientLog := handlers.NewClientLogHandler(a.Logger, a.errorHandler)

	api := dataHandler.Routes()
	api.Get("/version", healthHandler.Version)
	api.Post("/client-log", clientLog.Handle)
	api.Mount("/operations", opsHandler.Routes())

	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Compress(5, "application/json", "text/csv"))
		r.Mount("/", api)
	})
}

func (a *Application) setupStaticRoutes(r chi.Router) {
	if a.Paths.StaticDir == "" {
		return
	}
	if !config.DirExists(a.Paths.StaticDir) {
		a.Logger.Warn("Static directory not found, viewer pages disabled",
			slog.String("static_dir", a.Paths.StaticDir))
		return
	}

	static := handlers.NewStaticHandler(a.Paths.StaticDir, a.Logger)
	r.Method(http.MethodGet, "/*", static)
	r.Method(http.MethodHead, "/*", static)
}

// getCORSConfig builds the CORS policy. An empty or "*" origin list allows
// any origin.
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Server.Addr(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start binds the listen address and serves in the background.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Server.Addr),
		slog.String("input_dir", a.Paths.InputDir),
		slog.String("output_dir", a.Paths.OutputDir),
		slog.String("static_dir", a.Paths.StaticDir))

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	a.WebSocketHub.Start()
	go a.SystemMetrics.Start(context.Background())

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.serveErr <- err
		}
	}()

	a.performStartupHealthCheck(ctx)

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", "http://"+ln.Addr().String()))
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Stop gracefully stops the application. Running conversions are
// cancelled. Only the first call does anything.
func (a *Application) Stop(ctx context.Context) error {
	var stopErr error
	a.stopOnce.Do(func() {
		stopErr = a.stop(ctx)
	})
	return stopErr
}

func (a *Application) stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if err := a.Tracker.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error cancelling conversion", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.WebSocketHub.Stop()
	a.SystemMetrics.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves until SIGINT, SIGTERM or a server error, then shuts down.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Received interrupt signal")
	case runErr = <-a.serveErr:
	}

	if err := a.Stop(context.Background()); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// performStartupHealthCheck logs problems that leave the server running
// but degraded.
func (a *Application) performStartupHealthCheck(ctx context.Context) {
	if !config.DirExists(a.Paths.InputDir) {
		a.Logger.WarnContext(ctx, "Input directory not found, conversions will find nothing",
			slog.String("input_dir", a.Paths.InputDir))
	}

	status := a.Services.Health.HealthCheck(ctx)
	if status.Status != services.StatusOK {
		for name, s := range status.Services {
			if s.Status != services.StatusReady {
				a.Logger.WarnContext(ctx, "Startup health check warning",
					slog.String("service", name),
					slog.String("message", s.Message))
			}
		}
	}
}
