package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/n8ntools/internal/config"
	"github.com/jackzampolin/n8ntools/internal/server/endpoints"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
)

func TestWithRequestID(t *testing.T) {
	var seen string
	h := withRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = svcctx.RequestIDFrom(r.Context())
	}))

	t.Run("generates", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if _, err := uuid.Parse(seen); err != nil {
			t.Fatalf("request id %q is not a uuid", seen)
		}
		if got := rec.Header().Get(requestIDHeader); got != seen {
			t.Errorf("header = %q, context = %q", got, seen)
		}
	})

	t.Run("reuses valid id", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, id)
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen != id {
			t.Errorf("request id = %q, want %q", seen, id)
		}
	})

	t.Run("replaces garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "not a uuid\r\n")
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen == "not a uuid\r\n" {
			t.Error("malformed request id was reused")
		}
	})
}

func TestWithRecovery(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := withRequestID(srv.withRecovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp endpoints.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "internal_error" || resp.RequestID == "" {
		t.Errorf("error body = %+v", resp)
	}
}

func TestWithCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    string
		origin     string
		wantOrigin string
	}{
		{"wildcard", "[\"*\"]", "https://n8n.example.com", "*"},
		{"listed origin", "[\"https://n8n.example.com\"]", "https://n8n.example.com", "https://n8n.example.com"},
		{"unlisted origin", "[\"https://n8n.example.com\"]", "https://evil.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, "server:\n  cors_origins: "+tt.origins+"\n")

			req := httptest.NewRequest(http.MethodOptions, "/api/pdf/merge", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusNoContent {
				t.Errorf("preflight status = %d, want 204", rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestWithRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, "rate_limit:\n  requests_per_second: 0.001\n  burst: 2\n")

	get := func(path, ip string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := get("/api/pdf", "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i+1, code)
		}
	}
	if code := get("/api/pdf", "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("over burst = %d, want 429", code)
	}
	if code := get("/api/pdf", "10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client = %d, want 200", code)
	}
	if code := get("/health", "10.0.0.1"); code != http.StatusOK {
		t.Errorf("probe = %d, want 200", code)
	}
}

func TestIPLimiter(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		l := newIPLimiter(config.RateLimitCfg{})
		for i := 0; i < 100; i++ {
			if !l.allow("1.2.3.4") {
				t.Fatal("disabled limiter denied a request")
			}
		}
	})

	t.Run("configure resets buckets", func(t *testing.T) {
		l := newIPLimiter(config.RateLimitCfg{RequestsPerSecond: 0.001, Burst: 1})
		if !l.allow("1.2.3.4") || l.allow("1.2.3.4") {
			t.Fatal("expected one request then a denial")
		}
		l.configure(config.RateLimitCfg{RequestsPerSecond: 0.001, Burst: 3})
		if !l.allow("1.2.3.4") {
			t.Error("bucket was not reset after configure")
		}
	})

	t.Run("prune", func(t *testing.T) {
		l := newIPLimiter(config.RateLimitCfg{RequestsPerSecond: 1, Burst: 1})
		l.allow("1.2.3.4")
		l.prune(time.Hour)
		if _, ok := l.limiters.Load("1.2.3.4"); !ok {
			t.Error("fresh bucket pruned")
		}
		l.prune(-time.Second)
		if _, ok := l.limiters.Load("1.2.3.4"); ok {
			t.Error("idle bucket kept")
		}
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:5000", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 203.0.113.8 "}, "10.0.0.1:5000", "203.0.113.8"},
		{"remote addr", nil, "192.0.2.1:5000", "192.0.2.1"},
		{"no port", nil, "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
