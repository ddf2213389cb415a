package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackzampolin/n8ntools/internal/config"
	"github.com/jackzampolin/n8ntools/internal/home"
	"github.com/jackzampolin/n8ntools/internal/providers"
	"github.com/jackzampolin/n8ntools/internal/server/endpoints"
	"github.com/jackzampolin/n8ntools/internal/testutil"
)

// newTestServer builds a server against a Qdrant stub with a mock OCR
// provider. extra is appended to the config file.
func newTestServer(t *testing.T, extra string) (*Server, *testutil.QdrantStub) {
	t.Helper()

	stub := testutil.NewQdrantStub(t, "")
	dir := t.TempDir()
	yaml := fmt.Sprintf("qdrant:\n  url: %s\n  api_key: \"\"\n", stub.URL) + extra
	mgr, err := config.NewManager(testutil.WriteConfig(t, dir, yaml))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	registry := providers.NewRegistry()
	registry.RegisterOCR(providers.NewMockOCRProvider())
	registry.RegisterEmbedder(&providers.MockEmbedder{Dim: 1024})

	srv, err := New(Config{
		ConfigManager: mgr,
		Home:          testHome(t, dir),
		Logger:        testutil.QuietLogger(),
		Registry:      registry,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, stub
}

func testHome(t *testing.T, path string) *home.Dir {
	t.Helper()
	h, err := home.New(path)
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	return h
}

func TestNew_RequiresConfigManager(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New() without config manager should fail")
	}
}

func TestServer_Routes(t *testing.T) {
	srv, stub := newTestServer(t, "")
	stub.AddCollection("docs", 1024, "Cosine")

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"ready", http.MethodGet, "/ready", http.StatusOK},
		{"status", http.MethodGet, "/status", http.StatusOK},
		{"pdf status", http.MethodGet, "/api/pdf", http.StatusOK},
		{"ocr status", http.MethodGet, "/api/ocr", http.StatusOK},
		{"rag status", http.MethodGet, "/api/rag", http.StatusOK},
		{"list collections", http.MethodGet, "/api/rag/collections", http.StatusOK},
		{"get collection", http.MethodGet, "/api/rag/collections/docs", http.StatusOK},
		{"missing collection", http.MethodGet, "/api/rag/collections/nope", http.StatusNotFound},
		{"settings", http.MethodGet, "/api/settings", http.StatusOK},
		{"swagger", http.MethodGet, "/swagger.json", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/nope", http.StatusNotFound},
		{"wrong method", http.MethodGet, "/api/pdf/merge", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.want)
			}
			if resp.Header.Get(requestIDHeader) == "" {
				t.Errorf("missing %s header", requestIDHeader)
			}
		})
	}
}

func TestServer_Status(t *testing.T) {
	srv, stub := newTestServer(t, "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	status, err := testutil.GetStatus(ts.URL)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Server != "running" {
		t.Errorf("Server = %q, want running", status.Server)
	}
	if status.Qdrant.URL != stub.URL {
		t.Errorf("Qdrant.URL = %q, want %q", status.Qdrant.URL, stub.URL)
	}
	if status.Qdrant.Health != "healthy" {
		t.Errorf("Qdrant.Health = %q, want healthy", status.Qdrant.Health)
	}
	if status.Qdrant.Container != "external" {
		t.Errorf("Qdrant.Container = %q, want external", status.Qdrant.Container)
	}
}

func TestServer_ReadyDegradedWithoutQdrant(t *testing.T) {
	dir := t.TempDir()
	// Nothing listens on port 1.
	mgr, err := config.NewManager(testutil.WriteConfig(t, dir, "qdrant:\n  url: http://127.0.0.1:1\n  timeout_seconds: 1\n"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	srv, err := New(Config{ConfigManager: mgr, Logger: testutil.QuietLogger(), Registry: providers.NewRegistry()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var resp endpoints.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OCR != "not_configured" {
		t.Errorf("OCR = %q, want not_configured", resp.OCR)
	}
	if resp.Qdrant != "unhealthy" {
		t.Errorf("Qdrant = %q, want unhealthy", resp.Qdrant)
	}
}

func TestServer_RequireInit(t *testing.T) {
	srv, _ := newTestServer(t, "")
	// As while a managed Qdrant container is still starting.
	srv.ready.Store(false)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/pdf", http.StatusOK},
		{http.MethodGet, "/api/ocr", http.StatusOK},
		{http.MethodGet, "/api/settings", http.StatusOK},
		{http.MethodPost, "/api/rag/collections", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/rag/collections", http.StatusServiceUnavailable},
		{http.MethodDelete, "/api/rag/collections/docs", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}

	// PDF work does not wait for the vector store.
	for _, path := range []string{"/api/pdf/split/pages", "/api/pdf/merge", "/api/ocr/validate"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		if rec.Code == http.StatusServiceUnavailable {
			t.Errorf("POST %s gated on Qdrant readiness", path)
		}
	}
}

func TestServer_BuildServicesKeepsLimiters(t *testing.T) {
	srv, _ := newTestServer(t, "")
	first := srv.Services()

	cfg := *srv.configMgr.Get()
	again := srv.buildServices(&cfg)
	if again.KeyLimiter != first.KeyLimiter {
		t.Error("key limiter replaced although settings are unchanged")
	}
	if again.Jobs != first.Jobs {
		t.Error("job semaphore replaced although settings are unchanged")
	}

	cfg.Limits.MaxConcurrentJobs = 1
	cfg.RateLimit.KeyRequests = 5
	changed := srv.buildServices(&cfg)
	if changed.KeyLimiter == first.KeyLimiter {
		t.Error("key limiter kept after key_requests changed")
	}
	if changed.Jobs == first.Jobs {
		t.Error("job semaphore kept after max_concurrent_jobs changed")
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	stub := testutil.NewQdrantStub(t, "")
	cfg := testutil.NewServerConfig(t, fmt.Sprintf("qdrant:\n  url: %s\n", stub.URL))

	mgr, err := config.NewManager(cfg.ConfigFile)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	srv, err := New(Config{ConfigManager: mgr, Home: testHome(t, cfg.HomePath), Logger: cfg.Logger})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	starter := testutil.StartServer{Cancel: cancel, Done: done}
	t.Cleanup(starter.Stop)

	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	if !srv.IsRunning() {
		t.Error("IsRunning() = false while serving")
	}
	if err := srv.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}

	cancel()
	if err := testutil.WaitForShutdown(done, 35*time.Second); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
	starter.Done = nil
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

// TestServer_ManagedQdrant runs the server with a local Qdrant container.
// This test requires Docker to be running.
func TestServer_ManagedQdrant(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	_ = testutil.RequireDocker(t)
	qdrantPort, err := testutil.FindFreePort()
	if err != nil {
		t.Fatalf("FindFreePort() error = %v", err)
	}
	cfg := testutil.NewServerConfig(t, fmt.Sprintf(
		"qdrant:\n  api_key: \"\"\n  docker:\n    enabled: true\n    container_name: %s\n    port: %q\n",
		testutil.UniqueContainerName(t, "qdrant"), qdrantPort))

	mgr, err := config.NewManager(cfg.ConfigFile)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	srv, err := New(Config{ConfigManager: mgr, Home: testHome(t, cfg.HomePath), Logger: cfg.Logger})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		if dock := srv.Services().QdrantDock; dock != nil {
			rmCtx, rmCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer rmCancel()
			_ = dock.Remove(rmCtx)
		}
	})

	if err := testutil.WaitForServer(cfg.URL(), 2*time.Minute); err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	// HTTP is up before the container; wait for Qdrant separately.
	var status *testutil.StatusResponse
	deadline := time.Now().Add(2 * time.Minute)
	for {
		status, err = testutil.GetStatus(cfg.URL())
		if err == nil && status.Qdrant.Health == "healthy" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Qdrant not healthy: status = %+v, err = %v", status, err)
		}
		time.Sleep(500 * time.Millisecond)
	}
	if status.Qdrant.Container != "running" {
		t.Errorf("Qdrant.Container = %q, want running", status.Qdrant.Container)
	}
	if status.Qdrant.Health != "healthy" {
		t.Errorf("Qdrant.Health = %q, want healthy", status.Qdrant.Health)
	}
}
