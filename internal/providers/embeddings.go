package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	MistralEmbedName    = "mistral-embed"
	MistralEmbedBaseURL = "https://api.mistral.ai/v1"
	MistralEmbedModel   = "mistral-embed"

	// MistralEmbedDimension is the vector size mistral-embed produces.
	MistralEmbedDimension = 1024
)

// EmbeddingsConfig holds configuration for the embeddings client.
type EmbeddingsConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

// EmbeddingsClient produces vectors through Mistral's OpenAI-compatible
// embeddings endpoint.
type EmbeddingsClient struct {
	apiKey  string
	baseURL string
	model   string
	client  openai.Client
}

// NewEmbeddingsClient creates a new embeddings client.
func NewEmbeddingsClient(cfg EmbeddingsConfig) *EmbeddingsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = MistralEmbedBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = MistralEmbedModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithBaseURL(cfg.BaseURL),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	return &EmbeddingsClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  openai.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (c *EmbeddingsClient) Name() string {
	return MistralEmbedName
}

// Model returns the embedding model.
func (c *EmbeddingsClient) Model() string {
	return c.model
}

// HasAPIKey reports whether a server-side key is configured.
func (c *EmbeddingsClient) HasAPIKey() bool {
	return c.apiKey != ""
}

// Embed returns one vector per input. apiKey overrides the configured key
// when set.
func (c *EmbeddingsClient) Embed(ctx context.Context, apiKey string, inputs []string) ([][]float64, error) {
	if apiKey == "" && c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if len(inputs) == 0 {
		return nil, errors.New("no inputs to embed")
	}

	var reqOpts []option.RequestOption
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}

	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
	}, reqOpts...)
	if err != nil {
		return nil, mapOpenAIError(err)
	}

	vectors := make([][]float64, len(inputs))
	for _, d := range resp.Data {
		if int(d.Index) < len(vectors) {
			vectors[d.Index] = d.Embedding
		}
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("embeddings response missing vector %d", i)
		}
	}
	return vectors, nil
}

// Dimension embeds a probe string and reports the vector length. It doubles
// as an API key check.
func (c *EmbeddingsClient) Dimension(ctx context.Context, apiKey string) (int, error) {
	vectors, err := c.Embed(ctx, apiKey, []string{"dimension probe"})
	if err != nil {
		return 0, err
	}
	return len(vectors[0]), nil
}

// mapOpenAIError converts SDK errors into the package errors.
func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		var header http.Header
		if apiErr.Response != nil {
			header = apiErr.Response.Header
		} else {
			header = http.Header{}
		}
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return statusError("Mistral embeddings", apiErr.StatusCode, msg, header)
	}
	return err
}
