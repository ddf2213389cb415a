package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jackzampolin/n8ntools/internal/config"
	"github.com/jackzampolin/n8ntools/internal/server/endpoints"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
)

// requestIDHeader carries the request id in both directions.
const requestIDHeader = "X-Request-ID"

// withRequestID assigns each request an id, reusing a well-formed one
// sent by the caller.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(svcctx.WithRequestID(r.Context(), id)))
	})
}

// withRecovery turns a handler panic into a 500.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("panic serving request",
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", svcctx.RequestIDFrom(r.Context()),
					"panic", rec,
					"stack", string(debug.Stack()))
				writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// withLogging logs one line per request. Probes log at debug.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := s.logger.Info
		if isProbe(r.URL.Path) {
			level = s.logger.Debug
		}
		level("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP(r),
			"request_id", svcctx.RequestIDFrom(r.Context()))
	})
}

func isProbe(path string) bool {
	return path == "/health" || path == "/ready"
}

var (
	corsAllowHeaders  = "Content-Type, Authorization, X-API-Key, X-Qdrant-Api-Key, X-Request-ID"
	corsExposeHeaders = "Content-Disposition, X-File-Count, X-Processing-Time-Ms, X-Source-Pages, X-Total-Pages, X-Request-ID, X-RateLimit-Remaining, Retry-After"
)

// withCORS applies server.cors_origins and answers preflight requests.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			origins := s.configMgr.Get().Server.CORSOrigins
			switch {
			case slices.Contains(origins, "*"):
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case slices.Contains(origins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Expose-Headers", corsExposeHeaders)
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ipLimiter holds a token bucket per client IP.
type ipLimiter struct {
	mu       sync.RWMutex
	limit    rate.Limit
	burst    int
	limiters sync.Map // ip -> *ipEntry
}

type ipEntry struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(cfg config.RateLimitCfg) *ipLimiter {
	l := &ipLimiter{}
	l.configure(cfg)
	return l
}

// configure applies new limits. Existing buckets are dropped so they pick
// up the new rate.
func (l *ipLimiter) configure(cfg config.RateLimitCfg) {
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	l.mu.Lock()
	changed := l.limit != limit || l.burst != burst
	l.limit, l.burst = limit, burst
	l.mu.Unlock()
	if changed {
		l.limiters.Clear()
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.RLock()
	limit, burst := l.limit, l.burst
	l.mu.RUnlock()
	if limit == rate.Inf {
		return true
	}

	now := time.Now()
	v, ok := l.limiters.Load(ip)
	if !ok {
		v, _ = l.limiters.LoadOrStore(ip, &ipEntry{limiter: rate.NewLimiter(limit, burst)})
	}
	e := v.(*ipEntry)
	e.mu.Lock()
	e.lastSeen = now
	e.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// prune drops buckets idle for longer than idle.
func (l *ipLimiter) prune(idle time.Duration) {
	cutoff := time.Now().Add(-idle)
	l.limiters.Range(func(k, v any) bool {
		e := v.(*ipEntry)
		e.mu.Lock()
		stale := e.lastSeen.Before(cutoff)
		e.mu.Unlock()
		if stale {
			l.limiters.Delete(k)
		}
		return true
	})
}

// withRateLimit enforces the per-IP request rate. Probes are exempt.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isProbe(r.URL.Path) && !s.ipLimiter.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, r, http.StatusTooManyRequests, "rate_limit_exceeded", "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers proxy headers, then the connection's address.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		first, _, _ := strings.Cut(ip, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if services := s.services.Load(); services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit guards the endpoints that need the local Qdrant container.
// Returns 503 Service Unavailable until the container is up.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeError(w, r, http.StatusServiceUnavailable, "not_initialized", "server not fully initialized")
			return
		}
		next(w, r)
	}
}

// maintain prunes idle rate limiter state until ctx is done.
func (s *Server) maintain(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ipLimiter.prune(10 * time.Minute)
			if services := s.services.Load(); services != nil && services.KeyLimiter != nil {
				services.KeyLimiter.Prune()
			}
		}
	}
}

// writeError writes the shared error body for failures raised outside the
// endpoints.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	resp := endpoints.ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: svcctx.RequestIDFrom(r.Context()),
	}
	switch status {
	case http.StatusTooManyRequests:
		resp.Kind = "rate_limited"
	case http.StatusServiceUnavailable:
		resp.Kind = "unavailable"
	default:
		resp.Kind = "internal"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
