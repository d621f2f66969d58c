// Package api serves the farm over HTTP: a login gate, JSON endpoints for
// every store operation, reports, advice and a server-sent change feed.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/farmhand/farmhand/internal/advisor"
	"github.com/farmhand/farmhand/internal/auth"
	"github.com/farmhand/farmhand/internal/scouting"
	"github.com/farmhand/farmhand/internal/store"
)

const defaultHeartbeat = 15 * time.Second

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Store *store.Store
	Gate  *auth.Gate
	// Advisor defaults to advisor.Mock.
	Advisor advisor.Advisor
	// Scouting files pest reports. Defaults to a service without alerts.
	Scouting *scouting.Service
	Port     int
	Out      io.Writer
	Logger   *zap.Logger

	// Heartbeat is the SSE keep-alive interval.
	Heartbeat time.Duration
	NewID     func() string
	Now       func() time.Time
}

type server struct {
	store     *store.Store
	gate      *auth.Gate
	advisor   advisor.Advisor
	scouting  *scouting.Service
	log       *zap.Logger
	heartbeat time.Duration
	newID     func() string
	now       func() time.Time
}

// NewRouter builds the gin engine without starting a listener.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("api: store is required")
	}
	if opts.Gate == nil {
		return nil, fmt.Errorf("api: auth gate is required")
	}
	s := &server{
		store:     opts.Store,
		gate:      opts.Gate,
		advisor:   opts.Advisor,
		scouting:  opts.Scouting,
		log:       opts.Logger,
		heartbeat: opts.Heartbeat,
		newID:     opts.NewID,
		now:       opts.Now,
	}
	if s.advisor == nil {
		s.advisor = advisor.Mock{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.scouting == nil {
		s.scouting = scouting.New(scouting.Opts{Store: s.store, Advisor: s.advisor, Logger: s.log})
	}
	if s.heartbeat <= 0 {
		s.heartbeat = defaultHeartbeat
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.now == nil {
		s.now = time.Now
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.log))
	s.registerRoutes(router)
	return router, nil
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Farm API running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("api: request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}
