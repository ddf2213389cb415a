package config

import (
	"errors"
	"testing"
)

func TestDefaultEntries(t *testing.T) {
	entries := DefaultEntries()

	if len(entries) == 0 {
		t.Fatal("DefaultEntries() returned empty slice")
	}

	// Verify required keys exist
	requiredKeys := []string{
		"server.port",
		"server.max_upload_mb",
		"limits.max_concurrent_jobs",
		"pdf.max_merge_sources",
		"ocr.api_key",
		"ocr.rate_limit",
		"embeddings.model",
		"qdrant.url",
		"qdrant.docker.image",
		"rate_limit.key_requests",
		"logging.level",
	}

	keys := make(map[string]bool)
	for _, e := range entries {
		keys[e.Key] = true
		if e.Description == "" {
			t.Errorf("entry %q has no description", e.Key)
		}
	}

	for _, key := range requiredKeys {
		if !keys[key] {
			t.Errorf("DefaultEntries() missing required key: %s", key)
		}
	}

	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key >= entries[i].Key {
			t.Fatalf("entries not sorted at %q, %q", entries[i-1].Key, entries[i].Key)
		}
	}
}

func TestGetDefault(t *testing.T) {
	t.Run("existing_key", func(t *testing.T) {
		entry := GetDefault("ocr.model")
		if entry == nil {
			t.Fatal("GetDefault() returned nil for existing key")
		}
		if entry.Value != "mistral-ocr-latest" {
			t.Errorf("GetDefault() Value = %v, want %q", entry.Value, "mistral-ocr-latest")
		}
	})

	t.Run("non_existent_key", func(t *testing.T) {
		entry := GetDefault("does.not.exist")
		if entry != nil {
			t.Errorf("GetDefault() = %v, want nil for non-existent key", entry)
		}
	})
}

func TestLookup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.MaxUploadMB = 7

	entry, err := Lookup(cfg, "server.max_upload_mb")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if entry.Value != 7 {
		t.Errorf("Value = %v (%T), want 7", entry.Value, entry.Value)
	}

	if _, err := Lookup(cfg, "server"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Lookup(section) error = %v, want ErrUnknownKey", err)
	}
}

func TestIsSecretKey(t *testing.T) {
	tests := map[string]bool{
		"ocr.api_key":    true,
		"qdrant.api_key": true,
		"qdrant.url":     false,
	}
	for key, want := range tests {
		if got := IsSecretKey(key); got != want {
			t.Errorf("IsSecretKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		key   string
		value any
		want  any
	}{
		{"ocr.api_key", "sk-live-123", SecretMask},
		{"ocr.api_key", "${MISTRAL_API_KEY}", "${MISTRAL_API_KEY}"},
		{"qdrant.api_key", "", ""},
		{"qdrant.url", "http://localhost:6333", "http://localhost:6333"},
		{"server.cors_origins", []any{"*"}, nil},
	}
	for _, tt := range tests {
		got := MaskSecret(tt.key, tt.value)
		if tt.want == nil {
			if _, ok := got.([]any); !ok {
				t.Errorf("MaskSecret(%q) = %v, want value unchanged", tt.key, got)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("MaskSecret(%q, %v) = %v, want %v", tt.key, tt.value, got, tt.want)
		}
	}
}
