package providers

import (
	"context"
	"sync"
	"sync/atomic"
)

const MockOCRName = "mock-ocr"

// MockOCRProvider is an OCRProvider for testing.
type MockOCRProvider struct {
	// Configurable behavior
	Response *OCRResponse
	Err      error
	APIKey   string

	mu       sync.Mutex
	requests []*OCRRequest
	count    atomic.Int64
}

// NewMockOCRProvider returns a provider answering with one page of text.
func NewMockOCRProvider() *MockOCRProvider {
	size := 1024
	return &MockOCRProvider{
		APIKey: "mock-key",
		Response: &OCRResponse{
			Model: "mock-ocr-latest",
			Pages: []OCRPage{{
				Index:      0,
				Markdown:   "# Mock\n\nmock text",
				Images:     []OCRImage{},
				Dimensions: &OCRPageDimension{DPI: 200, Width: 1700, Height: 2200},
			}},
			UsageInfo: &OCRUsageInfo{PagesProcessed: 1, DocSizeBytes: &size},
		},
	}
}

func (m *MockOCRProvider) Name() string    { return MockOCRName }
func (m *MockOCRProvider) Model() string   { return "mock-ocr-latest" }
func (m *MockOCRProvider) HasAPIKey() bool { return m.APIKey != "" }

// Process records req and returns the configured response.
func (m *MockOCRProvider) Process(ctx context.Context, req *OCRRequest) (*OCRResponse, error) {
	m.count.Add(1)
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if req.APIKey == "" && m.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	return m.Response, nil
}

// Calls returns how many requests were processed.
func (m *MockOCRProvider) Calls() int64 {
	return m.count.Load()
}

// LastRequest returns the most recent request, or nil.
func (m *MockOCRProvider) LastRequest() *OCRRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// MockEmbedder is an Embedder for testing.
type MockEmbedder struct {
	Dim int
	Err error
}

func (m *MockEmbedder) Name() string    { return "mock-embed" }
func (m *MockEmbedder) Model() string   { return "mock-embed" }
func (m *MockEmbedder) HasAPIKey() bool { return true }

func (m *MockEmbedder) Embed(ctx context.Context, apiKey string, inputs []string) ([][]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float64, len(inputs))
	for i := range out {
		out[i] = make([]float64, m.Dim)
	}
	return out, nil
}

func (m *MockEmbedder) Dimension(ctx context.Context, apiKey string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Dim, nil
}

var (
	_ OCRProvider = (*MockOCRProvider)(nil)
	_ Embedder    = (*MockEmbedder)(nil)
)
