package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.OCR.APIKey != "${MISTRAL_API_KEY}" {
		t.Error("expected mistral API key placeholder")
	}
	if cfg.Server.MaxUploadBytes() != 50<<20 {
		t.Errorf("MaxUploadBytes() = %d", cfg.Server.MaxUploadBytes())
	}
	if cfg.PDF.MaxMergeSources != 20 {
		t.Errorf("MaxMergeSources = %d, want 20", cfg.PDF.MaxMergeSources)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero upload", func(c *Config) { c.Server.MaxUploadMB = 0 }, "server.max_upload_mb"},
		{"no jobs", func(c *Config) { c.Limits.MaxConcurrentJobs = 0 }, "limits.max_concurrent_jobs"},
		{"one merge source", func(c *Config) { c.PDF.MaxMergeSources = 1 }, "pdf.max_merge_sources"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"key window", func(c *Config) { c.RateLimit.KeyWindowSeconds = 0 }, "key_window_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "secret123")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestConfig_ToProviderRegistryConfig(t *testing.T) {
	t.Setenv("TEST_MISTRAL_KEY", "m-key-123")

	cfg := DefaultConfig()
	cfg.OCR.APIKey = "${TEST_MISTRAL_KEY}"
	cfg.Embeddings.APIKey = "direct-key"

	rc := cfg.ToProviderRegistryConfig()
	if rc.OCR.APIKey != "m-key-123" {
		t.Errorf("OCR.APIKey = %q", rc.OCR.APIKey)
	}
	if rc.Embeddings.APIKey != "direct-key" {
		t.Errorf("Embeddings.APIKey = %q", rc.Embeddings.APIKey)
	}
	if rc.OCR.Timeout != 300*time.Second {
		t.Errorf("OCR.Timeout = %v", rc.OCR.Timeout)
	}
	if !rc.OCR.Enabled || rc.OCR.RateLimit != 6.0 || rc.OCR.ImageLimit != 50 {
		t.Errorf("OCR = %+v", rc.OCR)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		configFile := writeConfig(t, `
server:
  port: "9090"
pdf:
  max_merge_sources: 5
`)

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.Server.Port != "9090" {
			t.Errorf("expected port 9090, got %s", cfg.Server.Port)
		}
		if cfg.PDF.MaxMergeSources != 5 {
			t.Errorf("expected 5 merge sources, got %d", cfg.PDF.MaxMergeSources)
		}
		// Unset keys in a partially written section keep their defaults.
		if cfg.Server.MaxUploadMB != 50 || cfg.PDF.DefaultPrefix != "document" {
			t.Errorf("defaults lost: %+v %+v", cfg.Server, cfg.PDF)
		}
		if mgr.ConfigFileUsed() != configFile {
			t.Errorf("ConfigFileUsed() = %q", mgr.ConfigFileUsed())
		}
	})

	t.Run("environment overrides nested keys", func(t *testing.T) {
		t.Setenv("N8NTOOLS_SERVER_PORT", "7777")
		t.Setenv("N8NTOOLS_QDRANT_DOCKER_ENABLED", "true")
		configFile := writeConfig(t, "logging:\n  level: debug\n")

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		cfg := mgr.Get()
		if cfg.Server.Port != "7777" {
			t.Errorf("port = %q, want 7777", cfg.Server.Port)
		}
		if !cfg.Qdrant.Docker.Enabled {
			t.Error("qdrant.docker.enabled not overridden")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("level = %q", cfg.Logging.Level)
		}
	})

	t.Run("rejects invalid file", func(t *testing.T) {
		configFile := writeConfig(t, "limits:\n  max_concurrent_jobs: 0\n")
		if _, err := NewManager(configFile); err == nil {
			t.Error("expected validation error")
		}
	})
}

func TestManager_Override(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "server:\n  port: \"9090\"\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	if err := mgr.Override("server.port", "3000"); err != nil {
		t.Fatalf("Override() error = %v", err)
	}
	if got := mgr.Get().Server.Port; got != "3000" {
		t.Errorf("port = %q, want 3000", got)
	}

	if err := mgr.Override("server.nope", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key error = %v, want ErrUnknownKey", err)
	}
	if err := mgr.Override("limits.max_concurrent_jobs", 0); err == nil {
		t.Error("expected validation error")
	}
	if got := mgr.Get().Limits.MaxConcurrentJobs; got != 4 {
		t.Errorf("failed override changed config: max_concurrent_jobs = %d", got)
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "logging:\n  level: info\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	// Register multiple callbacks
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "logging:\n  level: info\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	// Call Get concurrently to verify no race conditions
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				cfg := mgr.Get()
				_ = cfg.Server.Port
			}
			done <- struct{}{}
		}()
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, "limits:\n  max_concurrent_jobs: 2\n")

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	// Verify initial value
	if got := mgr.Get().Limits.MaxConcurrentJobs; got != 2 {
		t.Errorf("initial value mismatch: expected 2, got %d", got)
	}

	// Track callback invocations
	var callbackCount atomic.Int32
	var lastValue atomic.Int64

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(int64(cfg.Limits.MaxConcurrentJobs))
	})

	// Start watching
	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	// Update the config file
	if err := os.WriteFile(configFile, []byte("limits:\n  max_concurrent_jobs: 8\n"), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	// Wait for the watcher to detect the change (fsnotify is async)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}

	if got := mgr.Get().Limits.MaxConcurrentJobs; got != 8 {
		t.Errorf("config not updated: expected 8, got %d", got)
	}
	if v := lastValue.Load(); v != 8 {
		t.Errorf("callback received wrong value: expected 8, got %d", v)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	cfg := mgr.Get()
	if cfg.OCR.APIKey != "${MISTRAL_API_KEY}" || cfg.Qdrant.Docker.ContainerName != "n8ntools-qdrant" {
		t.Errorf("round trip lost values: %+v", cfg)
	}
}
