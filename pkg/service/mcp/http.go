package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/verbo-studio/verbo/pkg/utils/logging"
)

const (
	// MCPPath is the route of the streamable HTTP endpoint
	MCPPath = "/mcp"

	shutdownTimeout = 10 * time.Second
)

type httpConfig struct {
	rateLimit  int
	rateWindow time.Duration
}

type HTTPOption func(*httpConfig)

// WithRateLimit limits requests per client IP. Every generation consumes AI
// service quota, so the default is conservative.
func WithRateLimit(requests int, window time.Duration) HTTPOption {
	return func(c *httpConfig) {
		c.rateLimit = requests
		c.rateWindow = window
	}
}

// Handler returns the streamable HTTP handler mounted under MCPPath with a
// health endpoint at /health
func (s *Server) Handler(opts ...HTTPOption) http.Handler {
	cfg := httpConfig{
		rateLimit:  60,
		rateWindow: time.Minute,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})

	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, nil)

	r.Group(func(r chi.Router) {
		if cfg.rateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.rateLimit, cfg.rateWindow))
		}
		r.Handle(MCPPath, handler)
	})

	return r
}

// ListenAndServe serves the streamable HTTP endpoint on addr until ctx is
// cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string, opts ...HTTPOption) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(opts...),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.From(ctx).Info("MCP server listening", "addr", addr, "path", MCPPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return goerr.Wrap(err, "MCP HTTP server failed", goerr.V("addr", addr))
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shut down MCP HTTP server")
	}
	logging.From(ctx).Info("MCP server stopped")
	return nil
}
