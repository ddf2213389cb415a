package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embeddingsServer(t *testing.T, wantKey string, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer "+wantKey {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": {"message": "Unauthorized", "type": "invalid_request_error"}}`))
			return
		}

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			vec := make([]float64, dim)
			vec[0] = float64(i)
			// Reverse order checks that vectors are placed by index.
			data[len(req.Input)-1-i] = map[string]any{"object": "embedding", "index": i, "embedding": vec}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestEmbeddingsClient_Embed(t *testing.T) {
	server := embeddingsServer(t, "test-key", 8)
	defer server.Close()

	client := NewEmbeddingsClient(EmbeddingsConfig{APIKey: "test-key", BaseURL: server.URL, MaxRetries: 1})

	vectors, err := client.Embed(context.Background(), "", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
	for i, v := range vectors {
		if len(v) != 8 || v[0] != float64(i) {
			t.Errorf("vector %d = %v", i, v)
		}
	}
}

func TestEmbeddingsClient_Dimension(t *testing.T) {
	server := embeddingsServer(t, "caller-key", MistralEmbedDimension)
	defer server.Close()

	client := NewEmbeddingsClient(EmbeddingsConfig{BaseURL: server.URL, MaxRetries: 1})

	dim, err := client.Dimension(context.Background(), "caller-key")
	if err != nil {
		t.Fatalf("Dimension() error = %v", err)
	}
	if dim != MistralEmbedDimension {
		t.Errorf("Dimension() = %d, want %d", dim, MistralEmbedDimension)
	}
}

func TestEmbeddingsClient_Errors(t *testing.T) {
	t.Run("no key", func(t *testing.T) {
		client := NewEmbeddingsClient(EmbeddingsConfig{})
		if _, err := client.Embed(context.Background(), "", []string{"x"}); !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("error = %v, want ErrNoAPIKey", err)
		}
	})

	t.Run("bad key", func(t *testing.T) {
		server := embeddingsServer(t, "good", 4)
		defer server.Close()

		client := NewEmbeddingsClient(EmbeddingsConfig{APIKey: "bad", BaseURL: server.URL, MaxRetries: 1})
		if _, err := client.Embed(context.Background(), "", []string{"x"}); !errors.Is(err, ErrAuthentication) {
			t.Errorf("error = %v, want ErrAuthentication", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		client := NewEmbeddingsClient(EmbeddingsConfig{APIKey: "k"})
		if _, err := client.Embed(context.Background(), "", nil); err == nil {
			t.Error("expected error for empty input")
		}
	})
}
