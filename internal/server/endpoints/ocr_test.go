package endpoints

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/n8ntools/internal/ocr"
	"github.com/jackzampolin/n8ntools/internal/providers"
)

var keyHeader = map[string]string{"X-API-Key": validKey}

func TestOCRStatus(t *testing.T) {
	env := newTestEnv(t, "")
	resp := decodeJSON[OCRServiceResponse](t, env.get("/api/ocr"), http.StatusOK)
	if resp.Status != "ready" {
		t.Errorf("Status = %q, want ready", resp.Status)
	}
	if !resp.RequireAPIKey {
		t.Error("RequireAPIKey = false, want true by default")
	}
	if resp.RateLimits.RequestsPerKey != 100 || resp.RateLimits.WindowSeconds != 60 {
		t.Errorf("RateLimits = %+v", resp.RateLimits)
	}
	if len(resp.ResponseFormats) != 2 {
		t.Errorf("ResponseFormats = %v", resp.ResponseFormats)
	}
}

func TestOCRHealth(t *testing.T) {
	env := newTestEnv(t, "")

	resp := decodeJSON[OCRHealthResponse](t, env.get("/api/ocr/health"), http.StatusOK)
	if resp.Status != ocr.HealthHealthy || resp.HealthScore != 100 {
		t.Errorf("idle health = %q/%d, want healthy/100", resp.Status, resp.HealthScore)
	}
	if resp.Metrics.WindowSeconds != 3600 {
		t.Errorf("WindowSeconds = %d, want 3600", resp.Metrics.WindowSeconds)
	}
	if !resp.Provider.Configured {
		t.Error("Provider.Configured = false, want true")
	}

	rec := env.postForm(t, "/api/ocr/process-file", nil, []formPart{pdfFile("scan.pdf", 1)}, keyHeader)
	if rec.Code != http.StatusOK {
		t.Fatalf("process-file status = %d: %s", rec.Code, rec.Body.String())
	}
	env.ocr.Err = providers.ErrAuthentication
	rec = env.postForm(t, "/api/ocr/process-file", nil, []formPart{pdfFile("scan.pdf", 1)}, keyHeader)
	decodeError(t, rec, http.StatusUnauthorized)

	resp = decodeJSON[OCRHealthResponse](t, env.get("/api/ocr/health"), http.StatusOK)
	m := resp.Metrics
	if m.TotalRequests != 2 || m.TotalErrors != 1 {
		t.Errorf("totals = %d/%d, want 2/1", m.TotalRequests, m.TotalErrors)
	}
	if m.ErrorsByCode["authentication_failed"] != 1 {
		t.Errorf("ErrorsByCode = %v", m.ErrorsByCode)
	}
	if resp.Status != ocr.HealthUnhealthy || resp.HealthScore != 50 {
		t.Errorf("health = %q/%d, want unhealthy/50", resp.Status, resp.HealthScore)
	}
	if len(resp.Recommendations) == 0 {
		t.Error("expected a recommendation for the elevated error rate")
	}

	t.Run("validation failures are not counted", func(t *testing.T) {
		env := newTestEnv(t, "")
		env.postForm(t, "/api/ocr/process-file", nil, []formPart{{field: "file", name: "notes.txt", data: []byte("hello")}}, keyHeader)
		resp := decodeJSON[OCRHealthResponse](t, env.get("/api/ocr/health"), http.StatusOK)
		if resp.Metrics.TotalRequests != 0 {
			t.Errorf("TotalRequests = %d, want 0", resp.Metrics.TotalRequests)
		}
	})
}

func TestOCRAuthTest(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		headers map[string]string
		status  int
		code    string
		method  string
	}{
		{"missing key", "", nil, http.StatusUnauthorized, "missing_api_key", ""},
		{"short key", "", map[string]string{"X-API-Key": "short"}, http.StatusUnauthorized, "invalid_api_key_format", ""},
		{"bad charset", "", map[string]string{"X-API-Key": strings.Repeat("k", 32) + "!"}, http.StatusUnauthorized, "invalid_api_key_format", ""},
		{"header key", "", keyHeader, http.StatusOK, "", "x-api-key"},
		{"bearer key", "", map[string]string{"Authorization": "Bearer " + validKey}, http.StatusOK, "", "bearer"},
		{"configured fallback", "ocr:\n  require_api_key: false\n", nil, http.StatusOK, "", "configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.extra)
			rec := env.postJSON("/api/ocr/auth/test", nil, tt.headers)
			if tt.status != http.StatusOK {
				resp := decodeError(t, rec, tt.status)
				if resp.Code != tt.code {
					t.Errorf("Code = %q, want %q", resp.Code, tt.code)
				}
				return
			}
			resp := decodeJSON[AuthTestResponse](t, rec, http.StatusOK)
			if !resp.AuthInfo.Authenticated {
				t.Error("Authenticated = false")
			}
			if resp.AuthInfo.AuthMethod != tt.method {
				t.Errorf("AuthMethod = %q, want %q", resp.AuthInfo.AuthMethod, tt.method)
			}
			if len(resp.AuthInfo.KeyHash) != 8 {
				t.Errorf("KeyHash = %q", resp.AuthInfo.KeyHash)
			}
			if resp.AuthInfo.RateLimitRemaining != 99 {
				t.Errorf("RateLimitRemaining = %d, want 99", resp.AuthInfo.RateLimitRemaining)
			}
		})
	}
}

func TestOCRAuthTest_KeyRateLimit(t *testing.T) {
	env := newTestEnv(t, "rate_limit:\n  key_requests: 2\n  key_window_seconds: 3600\n")
	for i := 0; i < 2; i++ {
		if rec := env.postJSON("/api/ocr/auth/test", nil, keyHeader); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i+1, rec.Code)
		}
	}

	rec := env.postJSON("/api/ocr/auth/test", nil, keyHeader)
	resp := decodeError(t, rec, http.StatusTooManyRequests)
	if resp.Code != "rate_limit_exceeded" {
		t.Errorf("Code = %q", resp.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	// Other keys have their own allowance.
	other := map[string]string{"X-API-Key": "other-" + validKey}
	if rec := env.postJSON("/api/ocr/auth/test", nil, other); rec.Code != http.StatusOK {
		t.Errorf("other key = %d, want 200", rec.Code)
	}
}

func TestOCRValidate(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.postForm(t, "/api/ocr/validate", nil, []formPart{pdfFile("scan.pdf", 1)}, nil)
	resp := decodeJSON[OCRValidateResponse](t, rec, http.StatusOK)
	if resp.FileInfo.FileType != "pdf" || resp.FileInfo.ContentType != "application/pdf" {
		t.Errorf("FileInfo = %+v", resp.FileInfo)
	}

	rec = env.postForm(t, "/api/ocr/validate", nil, []formPart{{"file", "notes.txt", []byte("plain text")}}, nil)
	if e := decodeError(t, rec, http.StatusBadRequest); e.Code != "unsupported_file_type" {
		t.Errorf("Code = %q", e.Code)
	}
}

func TestOCRProcessFile(t *testing.T) {
	t.Run("enhanced", func(t *testing.T) {
		env := newTestEnv(t, "")
		rec := env.postForm(t, "/api/ocr/process-file", nil, []formPart{pdfFile("scan.pdf", 1)}, keyHeader)
		resp := decodeJSON[ocr.EnhancedResponse](t, rec, http.StatusOK)

		if resp.Status != "success" {
			t.Errorf("Status = %q", resp.Status)
		}
		if !strings.Contains(resp.ExtractedText, "mock text") {
			t.Errorf("ExtractedText = %q", resp.ExtractedText)
		}
		if !strings.Contains(resp.ExtractedHTML, "<h1") {
			t.Errorf("ExtractedHTML = %q", resp.ExtractedHTML)
		}
		if resp.Metadata == nil || resp.Metadata.SourceIdentifier != "scan.pdf" {
			t.Errorf("Metadata = %+v", resp.Metadata)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != "99" {
			t.Errorf("X-RateLimit-Remaining = %q", got)
		}

		req := env.ocr.LastRequest()
		if req == nil {
			t.Fatal("provider was not called")
		}
		if req.APIKey != validKey {
			t.Errorf("provider got key %q", req.APIKey)
		}
		if !req.IncludeImages {
			t.Error("IncludeImages = false, want true by default")
		}
		if req.Document.MimeType != "application/pdf" || len(req.Document.Data) == 0 {
			t.Errorf("Document = %s %d bytes", req.Document.MimeType, len(req.Document.Data))
		}
	})

	t.Run("official without extras", func(t *testing.T) {
		env := newTestEnv(t, "")
		rec := env.postForm(t, "/api/ocr/process-file",
			map[string]string{"format": "official", "extract_images": "false", "include_metadata": "false"},
			[]formPart{pdfFile("scan.pdf", 1)}, keyHeader)
		resp := decodeJSON[ocr.OfficialResponse](t, rec, http.StatusOK)
		if len(resp.Pages) != 1 || resp.Model != "mock-ocr-latest" {
			t.Errorf("resp = %+v", resp)
		}
		if env.ocr.LastRequest().IncludeImages {
			t.Error("IncludeImages = true, want false")
		}
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name    string
			fields  map[string]string
			file    formPart
			headers map[string]string
			status  int
			code    string
		}{
			{"no key", nil, pdfFile("scan.pdf", 1), nil, http.StatusUnauthorized, "missing_api_key"},
			{"text file", nil, formPart{"file", "a.txt", []byte("hello")}, keyHeader, http.StatusBadRequest, "unsupported_file_type"},
			{"empty file", nil, formPart{"file", "a.pdf", nil}, keyHeader, http.StatusBadRequest, "empty_file"},
			{"bad format", map[string]string{"format": "xml"}, pdfFile("scan.pdf", 1), keyHeader, http.StatusBadRequest, "invalid_format"},
		}
		env := newTestEnv(t, "")
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := env.postForm(t, "/api/ocr/process-file", tt.fields, []formPart{tt.file}, tt.headers)
				if e := decodeError(t, rec, tt.status); e.Code != tt.code {
					t.Errorf("Code = %q, want %q (%s)", e.Code, tt.code, e.Error)
				}
			})
		}
		if n := env.ocr.Calls(); n != 0 {
			t.Errorf("provider called %d times for rejected requests", n)
		}
	})
}

func TestOCRProcessURL(t *testing.T) {
	env := newTestEnv(t, "")

	t.Run("ok", func(t *testing.T) {
		rec := env.postJSON("/api/ocr/process-url", OCRURLRequest{URL: "https://example.com/files/report.pdf"}, keyHeader)
		resp := decodeJSON[ocr.EnhancedResponse](t, rec, http.StatusOK)
		if resp.Metadata == nil || resp.Metadata.SourceType != ocr.SourceURL {
			t.Errorf("Metadata = %+v", resp.Metadata)
		}
		req := env.ocr.LastRequest()
		if req.Document.URL != "https://example.com/files/report.pdf" {
			t.Errorf("Document.URL = %q", req.Document.URL)
		}
		if req.Document.Name != "report.pdf" {
			t.Errorf("Document.Name = %q", req.Document.Name)
		}
	})

	for _, tt := range []struct {
		name string
		body any
		code string
	}{
		{"ftp scheme", OCRURLRequest{URL: "ftp://example.com/a.pdf"}, "invalid_url"},
		{"no host", OCRURLRequest{URL: "https:///a.pdf"}, "invalid_url"},
		{"empty", OCRURLRequest{}, "invalid_url"},
		{"bad format", OCRURLRequest{URL: "https://example.com/a.pdf", Format: "yaml"}, "invalid_format"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.postJSON("/api/ocr/process-url", tt.body, keyHeader)
			if e := decodeError(t, rec, http.StatusBadRequest); e.Code != tt.code {
				t.Errorf("Code = %q, want %q", e.Code, tt.code)
			}
		})
	}
}

func TestOCRProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"upstream rate limit", &providers.RateLimitError{Message: "slow down", RetryAfter: 7 * time.Second, StatusCode: 429}, http.StatusTooManyRequests, "upstream_rate_limited"},
		{"api error", &providers.APIError{Provider: "mistral", StatusCode: 500, Message: "boom"}, http.StatusBadGateway, ""},
		{"auth", providers.ErrAuthentication, http.StatusUnauthorized, "authentication_failed"},
		{"timeout", providers.ErrTimeout, http.StatusGatewayTimeout, "upstream_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			env.ocr.Err = tt.err
			rec := env.postForm(t, "/api/ocr/process-file", nil, []formPart{pdfFile("scan.pdf", 1)}, keyHeader)
			resp := decodeError(t, rec, tt.status)
			if resp.Code != tt.code {
				t.Errorf("Code = %q, want %q", resp.Code, tt.code)
			}
			if tt.status == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "7" {
				t.Errorf("Retry-After = %q, want 7", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestURLFilename(t *testing.T) {
	tests := map[string]string{
		"https://example.com/a/b/scan.png": "scan.png",
		"https://example.com/":             "document",
		"https://example.com":              "document",
		"::bad":                            "document",
	}
	for in, want := range tests {
		if got := urlFilename(in); got != want {
			t.Errorf("urlFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
