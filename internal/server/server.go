package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"sceneforge/internal/assets"
	"sceneforge/internal/config"
	"sceneforge/internal/export"
	"sceneforge/internal/logging"
	"sceneforge/internal/storyboard"
)

// Server exposes the storyboard over HTTP: the collaborator shim endpoints
// plus the application API consumed by the CLI.
type Server struct {
	bind      string
	authToken string
	logger    *slog.Logger

	orch     *storyboard.Orchestrator
	exporter *export.Exporter
	images   storyboard.ImageGenerator
	videos   storyboard.VideoGenerator
	fetcher  *assets.Fetcher

	startedAt time.Time
	listener  net.Listener
	server    *http.Server
}

// Deps bundles the collaborators a Server needs.
type Deps struct {
	Config       *config.Config
	Logger       *slog.Logger
	Orchestrator *storyboard.Orchestrator
	Exporter     *export.Exporter
	Images       storyboard.ImageGenerator
	Videos       storyboard.VideoGenerator
	Fetcher      *assets.Fetcher
}

// New constructs a Server bound to the configured address.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, errors.New("server: config required")
	}
	if deps.Orchestrator == nil {
		return nil, errors.New("server: orchestrator required")
	}
	bind := strings.TrimSpace(deps.Config.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("server: bind address required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = assets.NewFetcher()
	}

	srv := &Server{
		bind:      bind,
		authToken: strings.TrimSpace(deps.Config.Paths.APIToken),
		logger:    logging.WithComponent(logger, "api-server"),
		orch:      deps.Orchestrator,
		exporter:  deps.Exporter,
		images:    deps.Images,
		videos:    deps.Videos,
		fetcher:   fetcher,
	}

	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Collaborator shims keep the original wire shapes.
	mux.HandleFunc("/generate-image", s.handleGenerateImage)
	mux.HandleFunc("/animate-scene", s.handleAnimateScene)

	mux.HandleFunc("/api/status", s.withAuth(s.handleStatus))
	mux.HandleFunc("/api/project", s.withAuth(s.handleProject))
	mux.HandleFunc("/api/params", s.withAuth(s.handleParams))
	mux.HandleFunc("/api/scenes", s.withAuth(s.handleScenes))
	mux.HandleFunc("/api/scenes/", s.withAuth(s.handleSceneAction))
	mux.HandleFunc("/api/export", s.withAuth(s.handleExportAll))

	return s.accessLog(mux)
}

// Start begins serving and returns once the listener is bound. The server
// shuts down when ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.startedAt = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound listener address, or the configured bind address
// before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}
