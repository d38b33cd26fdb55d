// Package server provides the gin HTTP server of the planner API with a
// start/stop lifecycle.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/kart-io/tripplanner/pkg/infra/middleware"
	httpopts "github.com/kart-io/tripplanner/pkg/options/http"
	apierrors "github.com/kart-io/tripplanner/pkg/utils/errors"
	"github.com/kart-io/tripplanner/pkg/utils/response"
)

// Lifecycle defines the lifecycle interface for servers.
type Lifecycle interface {
	// Start starts the server. It returns once the listener is bound.
	Start(ctx context.Context) error
	// Stop stops the server gracefully.
	Stop(ctx context.Context) error
}

// Server is the HTTP server implementation.
type Server struct {
	opts   *httpopts.Options
	engine *gin.Engine
	errCh  chan error

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

var _ Lifecycle = (*Server)(nil)

// NewServer creates a gin engine with recovery, request id, trace
// propagation and access log middleware applied before any route is
// registered, so every route group inherits them.
func NewServer(opts *httpopts.Options) *Server {
	if opts == nil {
		opts = httpopts.NewOptions()
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	gin.SetMode(opts.Mode)
	engine := gin.New()
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Propagation(),
		middleware.Logger(opts.LogSkipPaths...),
	)
	engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, apierrors.ErrRouteNotFound)
	})

	return &Server{
		opts:   opts,
		engine: engine,
		errCh:  make(chan error, 1),
	}
}

// Name returns the server name.
func (s *Server) Name() string {
	return "http[gin]"
}

// Engine returns the underlying gin.Engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Errors reports a serve failure that happens after Start has returned.
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Start binds the listener and serves in the background.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	s.mu.Lock()
	s.listener = ln
	s.server = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("HTTP server stopped unexpectedly", "error", err.Error())
			s.errCh <- err
		}
	}()

	logger.Infow("HTTP server started", "addr", ln.Addr().String())
	return nil
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	err := srv.Shutdown(ctx)
	logger.Info("HTTP server stopped")
	return err
}
