package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestMistralOCRClient_Process(t *testing.T) {
	t.Run("inline pdf with images", func(t *testing.T) {
		var got mistralOCRRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/ocr" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("unexpected authorization: %s", auth)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Fatalf("decode request: %v", err)
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"model": "mistral-ocr-2505",
				"pages": [{
					"index": 0,
					"markdown": "# Invoice\n\n![img-0.jpeg](img-0.jpeg)",
					"images": [{"id": "img-0.jpeg", "top_left_x": 10, "top_left_y": 20, "bottom_right_x": 110, "bottom_right_y": 220, "image_base64": "data:image/jpeg;base64,AAAA"}],
					"dimensions": {"dpi": 200, "height": 2200, "width": 1700}
				}],
				"usage_info": {"pages_processed": 1, "doc_size_bytes": 4321}
			}`))
		}))
		defer server.Close()

		client := NewMistralOCRClient(MistralOCRConfig{APIKey: "test-key", BaseURL: server.URL})
		resp, err := client.Process(context.Background(), &OCRRequest{
			Document:      DocumentSource{Data: []byte("%PDF-1.4"), MimeType: "application/pdf", Name: "invoice.pdf"},
			IncludeImages: true,
		})
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}

		if got.Model != MistralOCRModel {
			t.Errorf("model = %q", got.Model)
		}
		if got.Document.Type != "document_url" || got.Document.DocumentName != "invoice.pdf" {
			t.Errorf("document = %+v", got.Document)
		}
		wantURL := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))
		if got.Document.DocumentURL != wantURL {
			t.Errorf("document_url = %q", got.Document.DocumentURL)
		}
		if !got.IncludeImageBase64 || got.ImageLimit == nil || *got.ImageLimit != 50 || *got.ImageMinSize != 30 {
			t.Errorf("image options = %+v", got)
		}

		if resp.Model != "mistral-ocr-2505" || len(resp.Pages) != 1 {
			t.Fatalf("response = %+v", resp)
		}
		page := resp.Pages[0]
		if page.Dimensions == nil || page.Dimensions.Width != 1700 {
			t.Errorf("dimensions = %+v", page.Dimensions)
		}
		if len(page.Images) != 1 || page.Images[0].ImageBase64 == nil {
			t.Errorf("images = %+v", page.Images)
		}
		if resp.UsageInfo == nil || resp.UsageInfo.DocSizeBytes == nil || *resp.UsageInfo.DocSizeBytes != 4321 {
			t.Errorf("usage = %+v", resp.UsageInfo)
		}
	})

	t.Run("remote image url without images", func(t *testing.T) {
		var got mistralOCRRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&got)
			w.Write([]byte(`{"model": "m", "pages": []}`))
		}))
		defer server.Close()

		client := NewMistralOCRClient(MistralOCRConfig{APIKey: "k", BaseURL: server.URL})
		_, err := client.Process(context.Background(), &OCRRequest{
			Document: DocumentSource{URL: "https://example.com/scan.png", MimeType: "image/png"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if got.Document.Type != "image_url" || got.Document.ImageURL != "https://example.com/scan.png" {
			t.Errorf("document = %+v", got.Document)
		}
		if got.IncludeImageBase64 || got.ImageLimit == nil || *got.ImageLimit != 0 {
			t.Errorf("image options = %+v", got)
		}
	})

	t.Run("request key overrides configured key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); auth != "Bearer caller-key" {
				t.Errorf("authorization = %q", auth)
			}
			w.Write([]byte(`{"model": "m", "pages": []}`))
		}))
		defer server.Close()

		client := NewMistralOCRClient(MistralOCRConfig{APIKey: "server-key", BaseURL: server.URL})
		_, err := client.Process(context.Background(), &OCRRequest{
			Document: DocumentSource{URL: "https://example.com/a.pdf"},
			APIKey:   "caller-key",
		})
		if err != nil {
			t.Fatal(err)
		}
	})

	t.Run("no key anywhere", func(t *testing.T) {
		client := NewMistralOCRClient(MistralOCRConfig{})
		_, err := client.Process(context.Background(), &OCRRequest{Document: DocumentSource{URL: "https://x/y.pdf"}})
		if !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("error = %v, want ErrNoAPIKey", err)
		}
	})
}

func TestMistralOCRClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"message": "Unauthorized"}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrAuthentication) {
					t.Errorf("error = %v, want ErrAuthentication", err)
				}
			},
		},
		{
			name:   "payload too large",
			status: http.StatusRequestEntityTooLarge,
			body:   `{"error": {"message": "file too big"}}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrDocumentTooLarge) {
					t.Errorf("error = %v, want ErrDocumentTooLarge", err)
				}
				if !strings.Contains(err.Error(), "file too big") {
					t.Errorf("message lost: %v", err)
				}
			},
		},
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body:   `{"detail": "invalid document"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) || apiErr.StatusCode != 400 {
					t.Errorf("error = %v, want APIError 400", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewMistralOCRClient(MistralOCRConfig{APIKey: "k", BaseURL: server.URL, MaxRetries: 3, RetryDelay: time.Millisecond})
			_, err := client.Process(context.Background(), &OCRRequest{Document: DocumentSource{URL: "https://x/y.pdf"}})
			tt.check(t, err)
			if calls.Load() != 1 {
				t.Errorf("non-retryable error sent %d requests", calls.Load())
			}
		})
	}
}

func TestMistralOCRClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"model": "m", "pages": [{"index": 0, "markdown": "ok", "images": [], "dimensions": null}]}`))
	}))
	defer server.Close()

	client := NewMistralOCRClient(MistralOCRConfig{APIKey: "k", BaseURL: server.URL, MaxRetries: 3, RetryDelay: time.Millisecond})
	resp, err := client.Process(context.Background(), &OCRRequest{Document: DocumentSource{URL: "https://x/y.pdf"}})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if resp.Pages[0].Markdown != "ok" {
		t.Errorf("markdown = %q", resp.Pages[0].Markdown)
	}
}

func TestMistralOCRClient_RateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message": "slow down"}`))
	}))
	defer server.Close()

	client := NewMistralOCRClient(MistralOCRConfig{APIKey: "k", BaseURL: server.URL, MaxRetries: 1, RetryDelay: time.Millisecond})
	_, err := client.Process(context.Background(), &OCRRequest{Document: DocumentSource{URL: "https://x/y.pdf"}})

	rle, ok := IsRateLimitError(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if rle.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", rle.StatusCode)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if client.LimiterStatus().Last429Time.IsZero() {
		t.Error("limiter did not record the 429")
	}
}

func TestMistralOCRClient_Live(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live API test in short mode")
	}
	cfg := LoadTestConfig()
	if !cfg.HasMistral() {
		t.Skip("MISTRAL_API_KEY not set")
	}

	client := NewMistralOCRClient(MistralOCRConfig{APIKey: cfg.MistralAPIKey})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	resp, err := client.Process(ctx, &OCRRequest{
		Document: DocumentSource{URL: "https://arxiv.org/pdf/2201.04234"},
		Pages:    []int{0},
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(resp.Pages) == 0 || resp.Pages[0].Markdown == "" {
		t.Error("expected text from live OCR")
	}
}
