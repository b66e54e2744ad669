// Package trace tags every request with an ID, logs its completion and
// records request metrics under the matched route pattern.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	applog "ecobank/internal/log"
	"ecobank/internal/metrics"
)

type ContextKey string

const RequestIDKey ContextKey = "request_id"

// HeaderRequestID is read from incoming requests and echoed on responses.
const HeaderRequestID = "X-Request-ID"

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

type Middleware struct {
	logger   *applog.StructuredLogger
	metrics  *Metrics
	clientIP func(*http.Request) string
}

type Metrics struct {
	TotalRequests int64
	ServerErrors  int64
}

func NewMiddleware(logger *applog.Logger) *Middleware {
	return &Middleware{
		logger:   applog.NewStructuredLogger(logger),
		metrics:  &Metrics{},
		clientIP: ClientIP,
	}
}

// WithClientIP replaces how the logged client address is resolved, e.g.
// with a resolver that trusts forwarding headers from known proxies.
func (m *Middleware) WithClientIP(fn func(*http.Request) string) *Middleware {
	if fn != nil {
		m.clientIP = fn
	}
	return m
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID.MatchString(requestID) {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(ctx)

		atomic.AddInt64(&m.metrics.TotalRequests, 1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		if rw.statusCode >= 500 {
			atomic.AddInt64(&m.metrics.ServerErrors, 1)
		}

		route := routePattern(r)
		if route != "/metrics" {
			metrics.RecordRequest(r.Method, route, rw.statusCode, duration)
		}
		m.logger.LogHTTPEnd(ctx, r, route, rw.statusCode, duration.Milliseconds(), m.clientIP(r))
	})
}

// routePattern returns the chi pattern that served r, so metric labels stay
// bounded. Unmatched paths share one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// ClientIP returns the connection address. Forwarding headers are ignored
// since any client can set them.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests: atomic.LoadInt64(&m.metrics.TotalRequests),
		ServerErrors:  atomic.LoadInt64(&m.metrics.ServerErrors),
	}
}

// LoggerMiddleware attaches a request-scoped logger carrying the request ID.
// It must run inside Middleware.
func LoggerMiddleware(base *applog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return applog.Middleware(base)(applog.RequestIDMiddleware(func(r *http.Request) string {
			return GetRequestID(r.Context())
		})(next))
	}
}
