// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/pkale/glucorisk/internal/aggregate"
	"github.com/pkale/glucorisk/internal/config"
	"github.com/pkale/glucorisk/internal/health"
	"github.com/pkale/glucorisk/internal/history"
	"github.com/pkale/glucorisk/internal/idgen"
	"github.com/pkale/glucorisk/internal/logging"
	"github.com/pkale/glucorisk/internal/metrics"
	"github.com/pkale/glucorisk/internal/model"
	"github.com/pkale/glucorisk/internal/realtime"
	"github.com/pkale/glucorisk/internal/scoring"
	"github.com/pkale/glucorisk/internal/traces"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg          *config.Config
	classifier   *model.Classifier
	store        history.Store
	scoringSvc   *scoring.Service
	aggregator   *aggregate.Aggregator
	hub          *realtime.Hub
	healthReg    *health.Registry
	db           *sql.DB // nil when using the CSV store
	router       *gin.Engine
	httpSrv      *http.Server
	logger       *slog.Logger
	cancelRunCtx context.CancelFunc // cancels background goroutines started in Run

	ready atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStore sets a custom history store (for testing)
func WithStore(store history.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// New creates a new server instance. Loading the classifier artifact is
// part of construction: the process must not serve without a model.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()

	classifier, err := model.Load(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier: %w", err)
	}
	s.classifier = classifier
	s.logger.Info("classifier loaded", "path", cfg.ModelPath, "version", classifier.Version())

	// History storage: Postgres if DATABASE_URL set, otherwise the CSV log.
	if s.store == nil {
		if cfg.DatabaseURL != "" {
			db, err := sql.Open("postgres", cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("failed to open database: %w", err)
			}
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(5 * time.Minute)

			if err := db.Ping(); err != nil {
				return nil, fmt.Errorf("failed to connect to database: %w", err)
			}

			pgStore := history.NewPostgresStore(db)
			if err := pgStore.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("failed to migrate history store: %w", err)
			}

			s.db = db
			s.store = pgStore
			s.logger.Info("using PostgreSQL history store", "url", maskDSN(cfg.DatabaseURL))
		} else {
			s.store = history.NewCSVStore(cfg.HistoryPath)
			s.logger.Info("using CSV history store", "path", cfg.HistoryPath)
		}
	}

	s.hub = realtime.NewHub(s.logger)
	s.scoringSvc = scoring.NewService(s.classifier, s.store, s.logger).WithPublisher(s.hub)
	s.aggregator = aggregate.New(s.store)

	s.healthReg = health.NewRegistry()
	s.registerHealthChecks()

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// registerHealthChecks wires the model, store, and stream probes.
func (s *Server) registerHealthChecks() {
	s.healthReg.Register("model", func(ctx context.Context) (string, error) {
		if s.classifier == nil {
			return "", errors.New("classifier not loaded")
		}
		return "version " + s.classifier.Version(), nil
	})

	s.healthReg.Register("history", func(ctx context.Context) (string, error) {
		if _, err := s.store.ReadAll(ctx); err != nil {
			return "", err
		}
		return "", nil
	})

	if s.db != nil {
		s.healthReg.Register("database", func(ctx context.Context) (string, error) {
			return "", s.db.PingContext(ctx)
		})
	}

	// The stream is best-effort; scoring keeps working without it.
	s.healthReg.RegisterOptional("stream", func(ctx context.Context) (string, error) {
		return fmt.Sprintf("%d clients", s.hub.ClientCount()), nil
	})
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	s.router.Use(metrics.Middleware())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Honor an existing request ID (from a load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = idgen.WithPrefix("req_")
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		logger := logging.L(c.Request.Context())

		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method, "path", path,
				"status", status, "latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method, "path", path,
				"status", status, "latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method, "path", path,
				"status", status, "latency_ms", latency.Milliseconds(),
			)
		}
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.livenessHandler)
	s.router.GET("/readyz", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	v1 := s.router.Group("/v1")
	scoring.NewHandler(s.scoringSvc).RegisterRoutes(v1)
	aggregate.NewHandler(s.aggregator).RegisterRoutes(v1)
	v1.GET("/stream", func(c *gin.Context) {
		s.hub.HandleWebSocket(c.Writer, c.Request)
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	healthy, statuses := s.healthReg.Check(c.Request.Context())
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"healthy": healthy, "checks": statuses})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

// Router exposes the configured router (for tests).
func (s *Server) Router() http.Handler {
	return s.router
}

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	shutdownTraces, err := traces.Init(runCtx, s.cfg.OTLPEndpoint, s.logger)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.hub.Run(runCtx)

	s.ready.Store(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(shutdownTraces)
}

// Shutdown stops the HTTP server and background goroutines.
func (s *Server) Shutdown(shutdownTraces func(context.Context) error) error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	if shutdownTraces != nil {
		if err := shutdownTraces(ctx); err != nil {
			s.logger.Error("trace shutdown error", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		}
	}

	s.logger.Info("server stopped")
	return nil
}

func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
