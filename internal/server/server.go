package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"facility-locator/internal/config"
	"facility-locator/internal/database"
	"facility-locator/internal/handlers"
	"facility-locator/internal/solver"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	db         *database.DB
	limiter    *RateLimiter
	listener   net.Listener
	addr       string
}

// New creates and initializes a new server (does not start it)
func New(cfg config.Config, version string) (*Server, error) {
	if err := handlers.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	var db *database.DB
	if cfg.History.Enabled {
		path, err := database.ResolveDBPath(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", path).Msg("opening run history")
		db, err = database.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize run history: %w", err)
		}
	} else {
		log.Info().Msg("run history disabled")
	}

	handler := &handlers.Handler{
		Online:  cfg.Solver.OnlineParams(),
		Offline: cfg.Solver.OfflineParams(),
		Version: version,
	}
	// a nil *DB inside the interface would defeat the handlers' nil check
	if db != nil {
		handler.DB = db
	}
	if cfg.Solver.Seed != 0 {
		handler.Random = solver.NewLockedSource(solver.NewRandomSource(cfg.Solver.Seed))
		log.Info().Uint64("seed", cfg.Solver.Seed).Msg("coin flips are seeded")
	}

	limiter := NewRateLimiter(RateLimiterConfig{
		Rate:            rate.Limit(cfg.RateLimit.RPS),
		Burst:           cfg.RateLimit.Burst,
		CleanupInterval: 10 * time.Minute,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           NewRouter(handler, limiter),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		db:         db,
		limiter:    limiter,
		addr:       cfg.Server.Addr,
	}, nil
}

// NewRouter configures all HTTP routes
func NewRouter(handler *handlers.Handler, limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(
		RequestIDMiddleware(),
		RequestLoggingMiddleware(),
		RecoveryMiddleware(),
		CORSMiddleware(),
		PrometheusMiddleware(),
	)

	r.GET("/metrics", MetricsHandler())
	r.GET("/", handler.HandleWelcome)
	r.GET("/ping", handler.HandlePing)
	r.GET("/versions", handler.HandleVersions)

	limited := r.Group("/")
	if limiter != nil {
		limited.Use(limiter.Middleware())
	}
	limited.POST("/online_facility_location", handler.HandleOnlineFacilityLocation)
	limited.POST("/offline_facility_location", handler.HandleOfflineFacilityLocation)

	api := r.Group("/api/v1")
	api.GET("/runs", handler.HandleListRuns)
	api.GET("/runs/:id", handler.HandleGetRun)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.Response{Msg: "Not found", Code: http.StatusNotFound})
	})

	return r
}

// Listen binds the configured address and returns the actual address
// (useful for random port)
func (s *Server) Listen() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	return listener.Addr().String(), nil
}

// Serve blocks serving requests on the bound listener until Shutdown
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}
	log.Info().Str("addr", s.listener.Addr().String()).Msg("starting server")
	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens and serves in the background, returning the actual address
func (s *Server) Start() (string, error) {
	addr, err := s.Listen()
	if err != nil {
		return "", err
	}

	go func() {
		if err := s.Serve(); err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}()

	return addr, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.limiter.Stop()
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
