package providers

import (
	"context"
)

// OCRProvider turns documents into page markdown.
type OCRProvider interface {
	// Name returns the provider identifier (e.g., "mistral-ocr").
	Name() string

	// Model returns the model name reported in responses.
	Model() string

	// Process runs OCR on one document.
	Process(ctx context.Context, req *OCRRequest) (*OCRResponse, error)

	// HasAPIKey reports whether calls can succeed without a per-request key.
	HasAPIKey() bool
}

// Embedder produces embedding vectors.
type Embedder interface {
	Name() string
	Model() string
	Embed(ctx context.Context, apiKey string, inputs []string) ([][]float64, error)
	Dimension(ctx context.Context, apiKey string) (int, error)
	HasAPIKey() bool
}

var _ Embedder = (*EmbeddingsClient)(nil)
