package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackzampolin/n8ntools/internal/config"
)

func TestListSettings(t *testing.T) {
	env := newTestEnv(t, "ocr:\n  api_key: plain-secret-value\nembeddings:\n  api_key: ${MISTRAL_API_KEY}\n")

	resp := decodeJSON[SettingsResponse](t, env.get("/api/settings"), http.StatusOK)
	if !strings.HasSuffix(resp.ConfigFile, "config.yaml") {
		t.Errorf("ConfigFile = %q", resp.ConfigFile)
	}

	values := map[string]any{}
	for _, e := range resp.Settings {
		values[e.Key] = e.Value
	}
	if values["ocr.api_key"] != config.SecretMask {
		t.Errorf("ocr.api_key = %v, want mask", values["ocr.api_key"])
	}
	if values["embeddings.api_key"] != "${MISTRAL_API_KEY}" {
		t.Errorf("embeddings.api_key = %v, want the env reference", values["embeddings.api_key"])
	}
	if values["qdrant.api_key"] != "" {
		t.Errorf("qdrant.api_key = %v, want empty", values["qdrant.api_key"])
	}
	if values["server.port"] == nil {
		t.Error("server.port missing from listing")
	}
	if strings.Contains(env.get("/api/settings").Body.String(), "plain-secret-value") {
		t.Error("secret leaked in settings listing")
	}
}

func TestListSettings_Prefix(t *testing.T) {
	env := newTestEnv(t, "")
	resp := decodeJSON[SettingsResponse](t, env.get("/api/settings?prefix=pdf."), http.StatusOK)
	if len(resp.Settings) == 0 {
		t.Fatal("no pdf settings")
	}
	for _, e := range resp.Settings {
		if !strings.HasPrefix(e.Key, "pdf.") {
			t.Errorf("unexpected key %q", e.Key)
		}
	}
}

func TestGetSetting(t *testing.T) {
	env := newTestEnv(t, "pdf:\n  max_merge_sources: 5\nocr:\n  api_key: plain-secret-value\n")

	t.Run("overridden value", func(t *testing.T) {
		resp := decodeJSON[SettingResponse](t, env.get("/api/settings/pdf.max_merge_sources"), http.StatusOK)
		if resp.Entry == nil || resp.Entry.Key != "pdf.max_merge_sources" {
			t.Fatalf("Entry = %+v", resp.Entry)
		}
		// JSON numbers decode as float64.
		if resp.Entry.Value != float64(5) {
			t.Errorf("Value = %v, want 5", resp.Entry.Value)
		}
		if resp.Default != float64(20) {
			t.Errorf("Default = %v, want 20", resp.Default)
		}
		if resp.Entry.Description == "" {
			t.Error("Description is empty")
		}
	})

	t.Run("secret", func(t *testing.T) {
		rec := env.get("/api/settings/ocr.api_key")
		resp := decodeJSON[SettingResponse](t, rec, http.StatusOK)
		if resp.Entry.Value != config.SecretMask {
			t.Errorf("Value = %v, want mask", resp.Entry.Value)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if e := decodeError(t, env.get("/api/settings/nope.nothing"), http.StatusNotFound); e.Code != "unknown_setting" {
			t.Errorf("Code = %q", e.Code)
		}
	})
}

func TestSwagger(t *testing.T) {
	env := newTestEnv(t, "")
	req := httptest.NewRequest(http.MethodGet, "/swagger.json", nil)
	req.Host = "tools.internal:9000"
	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var doc struct {
		Host  string         `json:"host"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("swagger.json is not JSON: %v", err)
	}
	if doc.Host != "tools.internal:9000" {
		t.Errorf("host = %q", doc.Host)
	}
	for _, path := range []string{"/api/pdf/merge", "/api/ocr/process-file", "/api/rag/collections"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("swagger paths missing %s", path)
		}
	}

	ui := env.get("/swagger")
	if ui.Code != http.StatusOK || !strings.Contains(ui.Body.String(), "swagger.json") {
		t.Errorf("swagger UI = %d", ui.Code)
	}
}
