// package server contains the HTTP surface of spottube: routing, middleware, the
// websocket hub and the page that drives it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottube/internal/session"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows which path patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Server binds the router to a listener.
type Server struct {
	Hub      *Hub
	Registry *session.Registry

	router *BasicRouter
	http   *http.Server
	logger *log.Logger
}

// Options configures [New].
type Options struct {
	Host     string
	Port     int
	Registry *session.Registry
	Hub      *Hub
	Logger   *log.Logger
}

// New wires the page, health check and websocket routes.
func New(opts Options) *Server {
	router := NewBasicRouter()
	router.Use(RecoverMiddleware(opts.Logger), LoggingMiddleware(opts.Logger))

	router.Handle(http.MethodGet, "/{$}", http.HandlerFunc(indexHandler))
	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(healthHandler))
	router.Handler(NewSocketHandler(opts.Hub, opts.Registry, opts.Logger))

	return &Server{
		Hub:      opts.Hub,
		Registry: opts.Registry,
		router:   router,
		logger:   opts.Logger,
		http: &http.Server{
			Addr:              net.JoinHostPort(opts.Host, fmt.Sprint(opts.Port)),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the routed handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// ListenAndServe blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, disconnects sockets and tears down every session.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.Hub.Close()
	s.Registry.Close()
	return err
}
