// Package api exposes a provider over HTTP/JSON so that processes without
// direct access to the provider can list, resolve and stream documents.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"unifiedfs/internal/logging"
	"unifiedfs/internal/metrics"
	"unifiedfs/internal/provider"
)

var (
	apiLogger = logging.GetLogger().WithPrefix("api")
)

const logLevelDebug = logging.LevelDebug

// Read limits for GET /read.
const (
	DefaultReadLength = 64 * 1024
	MaxReadLength     = 4 * 1024 * 1024
)

// Options configures a Server.
type Options struct {
	// EnableMetrics mounts GET /metrics and records request metrics.
	EnableMetrics bool
}

// Server serves one provider.
type Server struct {
	provider *provider.Provider
	opts     Options
}

// NewServer creates a server for p.
func NewServer(p *provider.Provider, opts Options) *Server {
	return &Server{provider: p, opts: opts}
}

// Handler returns the HTTP handler with every route and middleware attached.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /roots", s.handleRoots)
	mux.HandleFunc("GET /document", s.handleDocument)
	mux.HandleFunc("GET /children", s.handleChildren)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /is_child", s.handleIsChild)
	mux.HandleFunc("GET /path", s.handlePath)
	mux.HandleFunc("GET /thumbnail", s.handleThumbnail)
	mux.HandleFunc("POST /call", s.handleCall)
	mux.HandleFunc("POST /open", s.handleOpen)
	mux.HandleFunc("GET /read", s.handleRead)
	mux.HandleFunc("POST /write", s.handleWrite)
	mux.HandleFunc("POST /close", s.handleClose)

	var handler http.Handler = mux
	if s.opts.EnableMetrics {
		mux.Handle("GET /metrics", metrics.Handler())
		handler = metrics.Middleware(handler)
	}
	handler = loggingMiddleware(handler)
	return RequestIDMiddleware(handler)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout. Open handles are closed on return.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		apiLogger.Info("Listening on %s (authority %s)", ln.Addr(), s.provider.Authority())
		errCh <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		apiLogger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			serveErr = fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	if err := s.provider.Handles().CloseAll(); err != nil {
		apiLogger.Warn("Failed to close open handles: %v", err)
	}
	metrics.SetOpenHandles(0)

	return serveErr
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// KindUnknownMethod labels calls to a method the provider does not handle.
const KindUnknownMethod = "UnknownMethod"

func requestLogger(r *http.Request) *logging.Logger {
	if id := GetRequestIDFromCtx(r.Context()); id != "" {
		return apiLogger.With("request_id", id)
	}
	return apiLogger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		apiLogger.Debug("Failed to write response: %v", err)
	}
}

func sendError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, kind := errorStatus(err)
	metrics.RecordOperation(op, kind)

	if status >= http.StatusInternalServerError {
		requestLogger(r).Error("%s failed: %v", op, err)
	} else {
		requestLogger(r).Debug("%s rejected: %v", op, err)
	}

	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func errorStatus(err error) (int, string) {
	if errors.Is(err, provider.ErrUnknownMethod) {
		return http.StatusNotFound, KindUnknownMethod
	}

	kind := provider.KindOf(err)
	switch kind {
	case provider.KindNotFound:
		return http.StatusNotFound, kind.String()
	case provider.KindInvalidArgument, provider.KindMissingArgument:
		return http.StatusBadRequest, kind.String()
	default:
		return http.StatusInternalServerError, kind.String()
	}
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", provider.ErrInvalidArgument, fmt.Sprintf(format, args...))
}
