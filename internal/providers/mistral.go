package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	MistralOCRName    = "mistral-ocr"
	MistralOCRBaseURL = "https://api.mistral.ai/v1"
	MistralOCRModel   = "mistral-ocr-latest"

	defaultImageLimit   = 50
	defaultImageMinSize = 30
)

// MistralOCRConfig holds configuration for the Mistral OCR client.
type MistralOCRConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	RateLimit    float64 // Requests per second (default: 6.0)
	MaxRetries   int
	RetryDelay   time.Duration
	ImageLimit   int // Max images returned when images are requested
	ImageMinSize int // Smallest image edge in pixels Mistral will return
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// MistralOCRClient implements OCRProvider using the Mistral OCR API.
type MistralOCRClient struct {
	apiKey       string
	baseURL      string
	model        string
	rateLimit    float64
	maxRetries   int
	retryDelay   time.Duration
	imageLimit   int
	imageMinSize int
	limiter      *RateLimiter
	client       *http.Client
	logger       *slog.Logger
}

// NewMistralOCRClient creates a new Mistral OCR client.
func NewMistralOCRClient(cfg MistralOCRConfig) *MistralOCRClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = MistralOCRBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = MistralOCRModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 6.0
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.ImageLimit == 0 {
		cfg.ImageLimit = defaultImageLimit
	}
	if cfg.ImageMinSize == 0 {
		cfg.ImageMinSize = defaultImageMinSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &MistralOCRClient{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		model:        cfg.Model,
		rateLimit:    cfg.RateLimit,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		imageLimit:   cfg.ImageLimit,
		imageMinSize: cfg.ImageMinSize,
		limiter:      NewRateLimiterPerSecond(cfg.RateLimit),
		client:       httpClient,
		logger:       cfg.Logger,
	}
}

// Name returns the provider identifier.
func (c *MistralOCRClient) Name() string {
	return MistralOCRName
}

// Model returns the OCR model sent with every request.
func (c *MistralOCRClient) Model() string {
	return c.model
}

// RequestsPerSecond returns the outbound rate limit.
func (c *MistralOCRClient) RequestsPerSecond() float64 {
	return c.rateLimit
}

// MaxRetries returns the maximum retry attempts.
func (c *MistralOCRClient) MaxRetries() int {
	return c.maxRetries
}

// HasAPIKey reports whether a server-side key is configured.
func (c *MistralOCRClient) HasAPIKey() bool {
	return c.apiKey != ""
}

// LimiterStatus exposes the outbound limiter for status endpoints.
func (c *MistralOCRClient) LimiterStatus() RateLimiterStatus {
	return c.limiter.Status()
}

// Process runs OCR on a document given either as bytes or as a URL.
func (c *MistralOCRClient) Process(ctx context.Context, req *OCRRequest) (*OCRResponse, error) {
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = c.apiKey
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	doc, err := req.Document.toMistral()
	if err != nil {
		return nil, err
	}

	body := mistralOCRRequest{
		Model:              c.model,
		Document:           doc,
		IncludeImageBase64: req.IncludeImages,
		Pages:              req.Pages,
	}
	if req.IncludeImages {
		body.ImageLimit = intPtr(c.imageLimit)
		body.ImageMinSize = intPtr(c.imageMinSize)
	} else {
		body.ImageLimit = intPtr(0)
	}

	start := time.Now()
	resp, err := retry.DoWithData(
		func() (*OCRResponse, error) {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, retry.Unrecoverable(err)
			}
			return c.doRequest(ctx, apiKey, "/ocr", body)
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries+1)),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(c.delayFor),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying mistral ocr request", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("mistral ocr complete",
		"source", req.Document.Identifier(),
		"pages", len(resp.Pages),
		"duration", time.Since(start))
	return resp, nil
}

// delayFor honours Retry-After on 429s and backs off otherwise.
func (c *MistralOCRClient) delayFor(n uint, err error, config *retry.Config) time.Duration {
	if rle, ok := IsRateLimitError(err); ok {
		c.limiter.Record429(rle.RetryAfter)
		if rle.RetryAfter > 0 {
			return rle.RetryAfter
		}
	}
	return retry.BackOffDelay(n, err, config)
}

func isRetryable(err error) bool {
	if _, ok := IsRateLimitError(err); ok {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return errors.Is(err, ErrTimeout)
}

// doRequest makes an HTTP request to the Mistral API.
func (c *MistralOCRClient) doRequest(ctx context.Context, apiKey, path string, body any) (*OCRResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var errResp mistralErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.message() != "" {
			msg = errResp.message()
		}
		return nil, statusError("Mistral OCR", resp.StatusCode, msg, resp.Header)
	}

	var ocrResp OCRResponse
	if err := json.Unmarshal(respBody, &ocrResp); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to unmarshal response: %w", err))
	}
	if ocrResp.Model == "" {
		ocrResp.Model = c.model
	}
	return &ocrResp, nil
}

func intPtr(v int) *int { return &v }

// DocumentSource is the input to OCR: inline bytes or a remote URL.
type DocumentSource struct {
	URL      string
	Data     []byte
	MimeType string
	Name     string
}

// Identifier names the source for logs and metadata.
func (d DocumentSource) Identifier() string {
	if d.URL != "" {
		return d.URL
	}
	return d.Name
}

// IsImage reports whether the source is a raster image.
func (d DocumentSource) IsImage() bool {
	return strings.HasPrefix(d.MimeType, "image/")
}

func (d DocumentSource) toMistral() (mistralDocument, error) {
	if d.URL != "" {
		if d.IsImage() {
			return mistralDocument{Type: "image_url", ImageURL: d.URL}, nil
		}
		return mistralDocument{Type: "document_url", DocumentURL: d.URL, DocumentName: d.Name}, nil
	}
	if len(d.Data) == 0 {
		return mistralDocument{}, errors.New("document has no content")
	}
	mime := d.MimeType
	if mime == "" {
		mime = "application/pdf"
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(d.Data)
	if d.IsImage() {
		return mistralDocument{Type: "image_url", ImageURL: dataURL}, nil
	}
	return mistralDocument{Type: "document_url", DocumentURL: dataURL, DocumentName: d.Name}, nil
}

// OCRRequest is one OCR call.
type OCRRequest struct {
	Document      DocumentSource
	IncludeImages bool
	Pages         []int
	// APIKey overrides the configured key for this call.
	APIKey string
}

// OCRResponse mirrors the Mistral OCR API response.
type OCRResponse struct {
	Model              string        `json:"model"`
	Pages              []OCRPage     `json:"pages"`
	DocumentAnnotation *string       `json:"document_annotation,omitempty"`
	UsageInfo          *OCRUsageInfo `json:"usage_info,omitempty"`
}

// OCRPage is one page of OCR output.
type OCRPage struct {
	Index      int               `json:"index"`
	Markdown   string            `json:"markdown"`
	Images     []OCRImage        `json:"images"`
	Dimensions *OCRPageDimension `json:"dimensions"`
}

// OCRImage is an image region detected on a page.
type OCRImage struct {
	ID              string  `json:"id"`
	TopLeftX        int     `json:"top_left_x"`
	TopLeftY        int     `json:"top_left_y"`
	BottomRightX    int     `json:"bottom_right_x"`
	BottomRightY    int     `json:"bottom_right_y"`
	ImageBase64     *string `json:"image_base64,omitempty"`
	ImageAnnotation *string `json:"image_annotation,omitempty"`
}

type OCRPageDimension struct {
	DPI    int `json:"dpi"`
	Height int `json:"height"`
	Width  int `json:"width"`
}

type OCRUsageInfo struct {
	PagesProcessed int  `json:"pages_processed"`
	DocSizeBytes   *int `json:"doc_size_bytes"`
}

// Mistral OCR API request types

type mistralOCRRequest struct {
	Model              string          `json:"model"`
	Document           mistralDocument `json:"document"`
	IncludeImageBase64 bool            `json:"include_image_base64"`
	Pages              []int           `json:"pages,omitempty"`
	ImageLimit         *int            `json:"image_limit,omitempty"`
	ImageMinSize       *int            `json:"image_min_size,omitempty"`
}

type mistralDocument struct {
	Type         string `json:"type"` // "image_url" or "document_url"
	ImageURL     string `json:"image_url,omitempty"`
	DocumentURL  string `json:"document_url,omitempty"`
	DocumentName string `json:"document_name,omitempty"`
}

// mistralErrorResponse covers both error bodies Mistral returns:
// {"error": {"message": ...}} and {"message": ..., "detail": ...}.
type mistralErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
	Message string `json:"message"`
	Detail  any    `json:"detail"`
}

func (e mistralErrorResponse) message() string {
	switch {
	case e.Error.Message != "":
		return e.Error.Message
	case e.Message != "":
		return e.Message
	case e.Detail != nil:
		if s, ok := e.Detail.(string); ok {
			return s
		}
		b, _ := json.Marshal(e.Detail)
		return string(b)
	}
	return ""
}

var _ OCRProvider = (*MistralOCRClient)(nil)
