package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chronolist/internal/shared"
	"golang.org/x/oauth2"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows which paths it serves.
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

// DefaultAuthTimeout is how long [CallbackServer.Await] waits for the browser redirect.
const DefaultAuthTimeout = 2 * time.Minute

// CallbackServer is a short-lived HTTP server for the OAuth redirect.
type CallbackServer struct {
	srv    *http.Server
	ln     net.Listener
	errs   chan error
	logger *log.Logger
}

// NewCallbackServer binds addr so the redirect target is reachable before the browser opens.
func NewCallbackServer(addr string, handler http.Handler, logger *log.Logger) (*CallbackServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return &CallbackServer{
		srv:    &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second},
		ln:     ln,
		errs:   make(chan error, 1),
		logger: logger,
	}, nil
}

// Addr returns the bound address, useful when addr used port 0.
func (s *CallbackServer) Addr() string {
	return s.ln.Addr().String()
}

// Start serves requests in the background.
func (s *CallbackServer) Start() {
	go func() {
		s.logger.Info("starting OAuth callback server", "addr", s.Addr())
		if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()
}

// Shutdown stops the server, waiting up to five seconds for in-flight requests.
func (s *CallbackServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("error shutting down server", "error", err)
	}
}

// Await blocks until h reports a result, then shuts the server down.
func (s *CallbackServer) Await(ctx context.Context, h *OAuthHandler, timeout time.Duration) (*oauth2.Token, error) {
	defer s.Shutdown()

	if timeout <= 0 {
		timeout = DefaultAuthTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result OAuthResult
	select {
	case result = <-h.Result():
	case err := <-s.errs:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := result.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// RequestLogger logs each request's method, path, and duration at debug level.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}
