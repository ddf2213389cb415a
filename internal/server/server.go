package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jackzampolin/n8ntools/internal/api"
	"github.com/jackzampolin/n8ntools/internal/config"
	"github.com/jackzampolin/n8ntools/internal/home"
	"github.com/jackzampolin/n8ntools/internal/ocr"
	"github.com/jackzampolin/n8ntools/internal/pdfops"
	"github.com/jackzampolin/n8ntools/internal/providers"
	"github.com/jackzampolin/n8ntools/internal/qdrant"
	"github.com/jackzampolin/n8ntools/internal/server/endpoints"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
)

const (
	shutdownTimeout   = 30 * time.Second
	qdrantReadyWait   = 60 * time.Second
	maintenancePeriod = time.Minute
)

// Server is the main n8ntools HTTP server.
// When qdrant.docker.enabled is set it manages a local Qdrant container,
// starting it on server start and stopping it on shutdown.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	configMgr  *config.Manager
	home       *home.Dir
	logger     *slog.Logger
	registry   *providers.Registry
	codec      pdfops.Codec
	qdrantDock *qdrant.DockerManager
	ipLimiter  *ipLimiter

	// services is swapped whole on config reload; requests keep the
	// snapshot they started with.
	services atomic.Pointer[svcctx.Services]
	ready    atomic.Bool

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu         sync.Mutex
	running    bool
	keyLimiter *ocr.KeyLimiter
	ocrHealth  *ocr.HealthTracker
	keyCfg     config.RateLimitCfg
	jobs       *semaphore.Weighted
	jobsMax    int
}

// Config holds server configuration.
type Config struct {
	// ConfigManager provides configuration with hot-reload support (required)
	ConfigManager *config.Manager
	// Home is the n8ntools home directory; it holds Qdrant data and the pid file
	Home *home.Dir
	// Logger is the structured logger to use
	Logger *slog.Logger
	// Registry replaces the provider registry built from config
	Registry *providers.Registry
	// Codec replaces the pdfcpu codec
	Codec pdfops.Codec
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	current := cfg.ConfigManager.Get()

	s := &Server{
		configMgr: cfg.ConfigManager,
		home:      cfg.Home,
		logger:    cfg.Logger,
		registry:  cfg.Registry,
		codec:     cfg.Codec,
		ipLimiter: newIPLimiter(current.RateLimit),
		ocrHealth: ocr.NewHealthTracker(ocr.HealthWindow),
	}

	if s.registry == nil {
		s.registry = providers.NewRegistryFromConfig(current.ToProviderRegistryConfig(), cfg.Logger)
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			s.registry.Reload(c.ToProviderRegistryConfig())
			cfg.Logger.Info("provider registry reloaded from config")
		})
	}

	if current.Qdrant.Docker.Enabled {
		dockerCfg := qdrant.DockerConfig{
			ContainerName: current.Qdrant.Docker.ContainerName,
			Image:         current.Qdrant.Docker.Image,
			HostPort:      current.Qdrant.Docker.Port,
			APIKey:        current.QdrantAPIKey(),
		}
		if cfg.Home != nil {
			dockerCfg.HomePath = cfg.Home.Path()
			dockerCfg.DataPath = cfg.Home.QdrantPath()
		}
		dm, err := qdrant.NewDockerManager(dockerCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create qdrant manager: %w", err)
		}
		s.qdrantDock = dm
	} else {
		// Nothing to start; external Qdrant is checked per request.
		s.ready.Store(true)
	}

	s.services.Store(s.buildServices(current))
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		s.ipLimiter.configure(c.RateLimit)
		s.services.Store(s.buildServices(c))
		cfg.Logger.Info("services rebuilt from config")
	})

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = endpoints.NewRegistry()

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.handler = withRequestID(s.withRecovery(s.withLogging(s.withCORS(s.withRateLimit(s.withServices(mux))))))

	s.httpServer = &http.Server{
		Addr:              current.Server.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(current.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(current.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

// buildServices assembles the per-config service set. The key limiter and
// job semaphore carry over when their settings are unchanged so in-flight
// counts survive a reload.
func (s *Server) buildServices(cfg *config.Config) *svcctx.Services {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keyLimiter == nil || s.keyCfg.KeyRequests != cfg.RateLimit.KeyRequests || s.keyCfg.KeyWindowSeconds != cfg.RateLimit.KeyWindowSeconds {
		s.keyLimiter = ocr.NewKeyLimiter(cfg.RateLimit.KeyRequests, cfg.RateLimit.KeyWindow())
		s.keyCfg = cfg.RateLimit
	}
	if s.jobs == nil || s.jobsMax != cfg.Limits.MaxConcurrentJobs {
		s.jobs = semaphore.NewWeighted(int64(cfg.Limits.MaxConcurrentJobs))
		s.jobsMax = cfg.Limits.MaxConcurrentJobs
	}

	qdrantURL := cfg.Qdrant.URL
	if s.qdrantDock != nil {
		qdrantURL = s.qdrantDock.URL()
	}

	return &svcctx.Services{
		PDF: pdfops.NewService(pdfops.ServiceConfig{
			Codec:      s.codec,
			MaxSources: cfg.PDF.MaxMergeSources,
			Logger:     s.logger,
		}),
		Registry: s.registry,
		Qdrant: qdrant.NewClient(qdrant.ClientConfig{
			URL:     qdrantURL,
			APIKey:  cfg.QdrantAPIKey(),
			Timeout: time.Duration(cfg.Qdrant.TimeoutSeconds) * time.Second,
			Logger:  s.logger,
		}),
		QdrantDock: s.qdrantDock,
		KeyLimiter: s.keyLimiter,
		OCRHealth:  s.ocrHealth,
		Jobs:       s.jobs,
		Config:     s.configMgr,
		Logger:     s.logger,
		Home:       s.home,
	}
}

// Start starts the server and, when configured, the local Qdrant container.
// It blocks until the context is cancelled or an error occurs.
// If an existing Qdrant container exists, it validates the configuration matches.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	// Start HTTP server in goroutine. PDF and OCR routes are served while
	// the Qdrant container is still coming up.
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	qdrantCh := make(chan error, 1)
	qdrantPending := s.qdrantDock != nil
	if qdrantPending {
		go func() { qdrantCh <- s.startQdrant(ctx) }()
	} else {
		s.ready.Store(true)
	}

	maintCtx, stopMaint := context.WithCancel(ctx)
	defer stopMaint()
	go s.maintain(maintCtx, maintenancePeriod)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutdown signal received")
			if qdrantPending {
				<-qdrantCh
			}
			return s.shutdown()
		case err := <-qdrantCh:
			qdrantPending = false
			if err != nil {
				_ = s.shutdown()
				return err
			}
			s.ready.Store(true)
		case err := <-errCh:
			if qdrantPending {
				<-qdrantCh
			}
			if err != nil {
				_ = s.shutdown()
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return s.shutdown()
		}
	}
}

func (s *Server) startQdrant(ctx context.Context) error {
	if err := s.qdrantDock.ValidateExisting(ctx); err != nil {
		return fmt.Errorf("existing Qdrant container incompatible: %w", err)
	}
	s.logger.Info("starting Qdrant", "container", s.qdrantDock.ContainerName())
	if err := s.qdrantDock.Start(ctx); err != nil {
		return fmt.Errorf("failed to start Qdrant: %w", err)
	}
	if err := s.qdrantDock.WaitReady(ctx, qdrantReadyWait); err != nil {
		return fmt.Errorf("Qdrant did not become ready: %w", err)
	}
	s.logger.Info("Qdrant is ready", "url", s.qdrantDock.URL())
	return nil
}

// shutdown performs graceful shutdown of the HTTP server and Qdrant.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")
	s.ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.qdrantDock != nil {
		s.logger.Info("stopping Qdrant")
		if err := s.qdrantDock.Stop(shutdownCtx); err != nil {
			s.logger.Error("Qdrant stop error", "error", err)
		}
		s.closeQdrant()
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) closeQdrant() {
	if s.qdrantDock == nil {
		return
	}
	if err := s.qdrantDock.Close(); err != nil {
		s.logger.Error("Qdrant manager close error", "error", err)
	}
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Services returns the current service snapshot.
func (s *Server) Services() *svcctx.Services {
	return s.services.Load()
}
