package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/ffmpeg-sidecar/internal/api/models"
	"github.com/smazurov/ffmpeg-sidecar/internal/events"
	"github.com/smazurov/ffmpeg-sidecar/internal/logging"
	"github.com/smazurov/ffmpeg-sidecar/internal/version"
)

// Server is the control API.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	supervisor Supervisor
	eventBus   *events.Bus
	logger     *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
}

// Options configures the control API.
type Options struct {
	Supervisor        Supervisor
	EventBus          *events.Bus  // Optional; enables /api/events and /api/logs/stream
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

// NewServer creates the API server using Go 1.22+ native routing.
// Panics if opts.Supervisor is nil.
func NewServer(opts *Options) *Server {
	if opts == nil || opts.Supervisor == nil {
		panic("Options with Supervisor is required")
	}

	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("ffmpeg sidecar API", version.String())
	config.Info.Description = "Control plane for a single ffmpeg relay process"
	config.Servers = []*huma.Server{}
	// Response bodies follow a fixed JSON contract, so no $schema links.
	config.CreateHooks = nil

	api := humago.New(mux, config)

	server := &Server{
		api:        api,
		mux:        mux,
		supervisor: opts.Supervisor,
		eventBus:   opts.EventBus,
		logger:     logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)
	api.UseMiddleware(RecoveryMiddleware)

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()

	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves on addr until Stop is called. The listener is bound before
// ready runs, so ready can announce that requests will be accepted.
func (s *Server) Start(addr string, ready func()) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.logger.Info("Starting control API", "addr", listener.Addr().String())
	s.logger.Info("OpenAPI documentation available", "path", "/docs")

	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	if ready != nil {
		ready()
	}

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down, waiting up to timeout for in-flight
// requests such as a stop that is waiting out the grace period.
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("Stopping control API")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return srv.Close()
	}
	return nil
}

// registerRoutes sets up all API endpoints.
func (s *Server) registerRoutes() {
	s.registerControlRoutes()

	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				BuildID:   info.BuildID,
				GoVersion: info.GoVersion,
				Compiler:  info.Compiler,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerLogRoutes()

	if s.eventBus != nil {
		s.registerSSERoutes()
	}
}
