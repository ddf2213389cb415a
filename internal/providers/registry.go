package providers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Registry holds the configured OCR provider and embedder. It supports
// hot reload from config and thread-safe access.
type Registry struct {
	mu       sync.RWMutex
	ocr      OCRProvider
	embedder Embedder
	cfg      RegistryConfig
	logger   *slog.Logger
}

// RegistryConfig defines the providers to instantiate from config.
// API keys are already resolved.
type RegistryConfig struct {
	OCR        OCRProviderConfig
	Embeddings EmbeddingsProviderConfig

	// HTTPClient overrides the transport for every provider (tests).
	HTTPClient *http.Client
}

// OCRProviderConfig matches config.OCRCfg with a resolved API key.
type OCRProviderConfig struct {
	Enabled      bool
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	RateLimit    float64
	MaxRetries   int
	ImageLimit   int
	ImageMinSize int
}

// EmbeddingsProviderConfig matches config.EmbeddingsCfg with a resolved
// API key.
type EmbeddingsProviderConfig struct {
	Enabled bool
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{logger: slog.Default()}
}

// NewRegistryFromConfig creates a registry with providers built from cfg.
// OCR and embeddings are registered when enabled, even without a server
// key, since callers may pass their own key per request.
func NewRegistryFromConfig(cfg RegistryConfig, logger *slog.Logger) *Registry {
	r := NewRegistry()
	if logger != nil {
		r.logger = logger
	}
	r.apply(cfg)
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterOCR replaces the OCR provider.
func (r *Registry) RegisterOCR(p OCRProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ocr = p
}

// RegisterEmbedder replaces the embedder.
func (r *Registry) RegisterEmbedder(e Embedder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embedder = e
}

// OCR returns the OCR provider.
func (r *Registry) OCR() (OCRProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.ocr == nil {
		return nil, ErrNotConfigured
	}
	return r.ocr, nil
}

// Embedder returns the embeddings client.
func (r *Registry) Embedder() (Embedder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.embedder == nil {
		return nil, ErrNotConfigured
	}
	return r.embedder, nil
}

// ProviderStatus is a snapshot used by status endpoints.
type ProviderStatus struct {
	Name       string             `json:"name"`
	Model      string             `json:"model"`
	Configured bool               `json:"configured"`
	HasAPIKey  bool               `json:"has_api_key"`
	Limiter    *RateLimiterStatus `json:"rate_limiter,omitempty"`
}

// Status reports the OCR provider and embedder.
func (r *Registry) Status() (ocr, embeddings ProviderStatus) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ocr = ProviderStatus{Name: MistralOCRName}
	if r.ocr != nil {
		ocr = ProviderStatus{Name: r.ocr.Name(), Model: r.ocr.Model(), Configured: true, HasAPIKey: r.ocr.HasAPIKey()}
		if m, ok := r.ocr.(*MistralOCRClient); ok {
			st := m.LimiterStatus()
			ocr.Limiter = &st
		}
	}
	embeddings = ProviderStatus{Name: MistralEmbedName}
	if r.embedder != nil {
		embeddings = ProviderStatus{Name: r.embedder.Name(), Model: r.embedder.Model(), Configured: true, HasAPIKey: r.embedder.HasAPIKey()}
	}
	return ocr, embeddings
}

// Reload updates the registry from new configuration. Providers are only
// rebuilt when their settings changed, so the outbound rate limiter state
// survives unrelated edits.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg.OCR != r.cfg.OCR || r.ocr == nil {
		switch {
		case cfg.OCR.Enabled:
			r.ocr = newOCRProvider(cfg, r.logger)
			r.logger.Info("registered OCR provider", "name", MistralOCRName, "has_api_key", cfg.OCR.APIKey != "")
		case r.ocr != nil:
			r.ocr = nil
			r.logger.Info("unregistered OCR provider", "name", MistralOCRName)
		}
	}
	if cfg.Embeddings != r.cfg.Embeddings || r.embedder == nil {
		switch {
		case cfg.Embeddings.Enabled:
			r.embedder = newEmbedder(cfg)
			r.logger.Info("registered embeddings provider", "name", MistralEmbedName, "has_api_key", cfg.Embeddings.APIKey != "")
		case r.embedder != nil:
			r.embedder = nil
			r.logger.Info("unregistered embeddings provider", "name", MistralEmbedName)
		}
	}
	r.cfg = cfg
}

// apply is used during construction, before the registry is shared.
func (r *Registry) apply(cfg RegistryConfig) {
	if cfg.OCR.Enabled {
		r.ocr = newOCRProvider(cfg, r.logger)
	}
	if cfg.Embeddings.Enabled {
		r.embedder = newEmbedder(cfg)
	}
	r.cfg = cfg
}

func newOCRProvider(cfg RegistryConfig, logger *slog.Logger) OCRProvider {
	return NewMistralOCRClient(MistralOCRConfig{
		APIKey:       cfg.OCR.APIKey,
		BaseURL:      cfg.OCR.BaseURL,
		Model:        cfg.OCR.Model,
		Timeout:      cfg.OCR.Timeout,
		RateLimit:    cfg.OCR.RateLimit,
		MaxRetries:   cfg.OCR.MaxRetries,
		ImageLimit:   cfg.OCR.ImageLimit,
		ImageMinSize: cfg.OCR.ImageMinSize,
		HTTPClient:   cfg.HTTPClient,
		Logger:       logger,
	})
}

func newEmbedder(cfg RegistryConfig) Embedder {
	return NewEmbeddingsClient(EmbeddingsConfig{
		APIKey:     cfg.Embeddings.APIKey,
		BaseURL:    cfg.Embeddings.BaseURL,
		Model:      cfg.Embeddings.Model,
		Timeout:    cfg.Embeddings.Timeout,
		HTTPClient: cfg.HTTPClient,
	})
}
