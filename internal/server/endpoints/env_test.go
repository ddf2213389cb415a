package endpoints

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/sync/semaphore"

	"github.com/jackzampolin/n8ntools/internal/config"
	"github.com/jackzampolin/n8ntools/internal/ocr"
	"github.com/jackzampolin/n8ntools/internal/pdfops"
	"github.com/jackzampolin/n8ntools/internal/providers"
	"github.com/jackzampolin/n8ntools/internal/qdrant"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
	"github.com/jackzampolin/n8ntools/internal/testutil"
)

// validKey passes the default key format check.
const validKey = "test-key-0123456789abcdefghijklmnopq"

// testEnv routes every endpoint with services built from a temp config.
type testEnv struct {
	handler  http.Handler
	services *svcctx.Services
	ocr      *providers.MockOCRProvider
	embedder *providers.MockEmbedder
	qdrant   *testutil.QdrantStub
}

// newTestEnv builds an environment; extra is appended to the config file.
func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()

	stub := testutil.NewQdrantStub(t, "")
	dir := t.TempDir()
	yaml := fmt.Sprintf("qdrant:\n  url: %s\n  api_key: \"\"\n", stub.URL) + extra
	mgr, err := config.NewManager(testutil.WriteConfig(t, dir, yaml))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	cfg := mgr.Get()
	logger := testutil.QuietLogger()

	mock := providers.NewMockOCRProvider()
	embedder := &providers.MockEmbedder{Dim: 1024}
	registry := providers.NewRegistry()
	registry.RegisterOCR(mock)
	registry.RegisterEmbedder(embedder)

	services := &svcctx.Services{
		PDF:        pdfops.NewService(pdfops.ServiceConfig{MaxSources: cfg.PDF.MaxMergeSources, Logger: logger}),
		Registry:   registry,
		Qdrant:     qdrant.NewClient(qdrant.ClientConfig{URL: stub.URL, Logger: logger}),
		KeyLimiter: ocr.NewKeyLimiter(cfg.RateLimit.KeyRequests, cfg.RateLimit.KeyWindow()),
		OCRHealth:  ocr.NewHealthTracker(ocr.HealthWindow),
		Jobs:       semaphore.NewWeighted(int64(cfg.Limits.MaxConcurrentJobs)),
		Config:     mgr,
		Logger:     logger,
	}

	mux := http.NewServeMux()
	NewRegistry().RegisterRoutes(mux, func(next http.HandlerFunc) http.HandlerFunc { return next })
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := svcctx.WithRequestID(svcctx.WithServices(r.Context(), services), "req-test")
		mux.ServeHTTP(w, r.WithContext(ctx))
	})

	return &testEnv{handler: handler, services: services, ocr: mock, embedder: embedder, qdrant: stub}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postJSON(path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return e.do(req)
}

// formPart is one file in a multipart request.
type formPart struct {
	field, name string
	data        []byte
}

func (e *testEnv) postForm(t *testing.T, path string, fields map[string]string, files []formPart, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return e.do(req)
}

// decodeError decodes an ErrorResponse and checks the status.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int) ErrorResponse {
	t.Helper()
	if rec.Code != wantStatus {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, wantStatus, rec.Body.String())
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	if resp.Error == "" {
		t.Error("error message is empty")
	}
	return resp
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder, wantStatus int) T {
	t.Helper()
	if rec.Code != wantStatus {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, wantStatus, rec.Body.String())
	}
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return v
}

// zipEntries opens a ZIP response and returns its entries in order.
func zipEntries(t *testing.T, data []byte) []*zip.File {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("response is not a zip: %v", err)
	}
	return zr.File
}

// pageCount opens a PDF and returns its page count.
func pageCount(t *testing.T, name string, data []byte) int {
	t.Helper()
	src, err := pdfops.NewService(pdfops.ServiceConfig{}).Open(name, data)
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	return src.PageCount()
}

func readZipFile(t *testing.T, f *zip.File) []byte {
	t.Helper()
	rc, err := f.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
