package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

var reqKey = ctxKey{}

// GetRequestIDFromCtx returns the request ID stored in ctx, or "".
func GetRequestIDFromCtx(ctx context.Context) string {
	if v := ctx.Value(reqKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// MakeContextWithRequestID stores requestID in ctx.
func MakeContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, reqKey, requestID)
}

// MakeContextWithNewRequestID stores a fresh random request ID in ctx.
func MakeContextWithNewRequestID(ctx context.Context) context.Context {
	return MakeContextWithRequestID(ctx, uuid.New().String())
}

// RequestIDMiddleware takes the request ID from the incoming header or
// generates one, and echoes it in the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := GetRequestIDFromCtx(ctx)
		if requestID == "" {
			requestID = r.Header.Get(RequestIDHeader)
		}

		if requestID == "" {
			ctx = MakeContextWithNewRequestID(ctx)
		} else {
			ctx = MakeContextWithRequestID(ctx, requestID)
		}

		w.Header().Set(RequestIDHeader, GetRequestIDFromCtx(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// loggingMiddleware writes one debug entry per request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		if apiLogger.Enabled(logLevelDebug) {
			requestLogger(r).Debug("%s %s -> %d (%s)", r.Method, r.URL.RequestURI(), sw.status, time.Since(start))
		}
	})
}
