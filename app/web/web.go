// Package web implements local control API for capwatch. It exposes the tracked captures and
// accepts user actions (submit, delete, retry, preview toggle).
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/capwatch/app/capture"
)

// Tracker defines tracker operations used by the server
type Tracker interface {
	Views() []capture.View
	Error() string
	ClearError()
	Trigger()
	TogglePreview(key capture.Key) (bool, error)
	Submit(ctx context.Context, text, tag string) error
	Delete(ctx context.Context, key capture.Key) error
	Retry(ctx context.Context, key capture.Key) error
}

// Server represents the control API server
type Server struct {
	tracker   Tracker
	version   string
	rateLimit float64
}

// Config holds server configuration
type Config struct {
	Tracker   Tracker
	Version   string
	RateLimit float64 // max mutating requests per second per client, 0 disables limit
}

// New creates a new server
func New(cfg Config) (*Server, error) {
	if cfg.Tracker == nil {
		return nil, fmt.Errorf("web server initialization failed: Tracker is required")
	}
	return &Server{tracker: cfg.Tracker, version: cfg.Version, rateLimit: cfg.RateLimit}, nil
}

// Run starts the web server, blocks until ctx canceled
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("capwatch", "umputun", s.version),
		rest.Ping,
		rest.SizeLimit(64*1024), // 64KB max request size
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.HandleFunc("GET /captures", s.handleList)

		mutating := api.With(s.limiter())
		mutating.HandleFunc("POST /captures", s.handleSubmit)
		mutating.HandleFunc("DELETE /captures/{jobid}/{index}", s.handleDelete)
		mutating.HandleFunc("POST /captures/{jobid}/{index}/retry", s.handleRetry)
		mutating.HandleFunc("POST /captures/{jobid}/{index}/preview", s.handlePreview)
		mutating.HandleFunc("POST /refresh", s.handleRefresh)
		mutating.HandleFunc("DELETE /error", s.handleClearError)
	})

	return router
}

// limiter returns rate limiting middleware for mutating routes, pass-through if disabled
func (s *Server) limiter() func(http.Handler) http.Handler {
	if s.rateLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	lmt := tollbooth.NewLimiter(s.rateLimit, nil)
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
	return tollbooth.HTTPMiddleware(lmt)
}
