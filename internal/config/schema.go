package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds n8ntools configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server     ServerCfg     `mapstructure:"server" yaml:"server"`
	Limits     LimitsCfg     `mapstructure:"limits" yaml:"limits"`
	PDF        PDFCfg        `mapstructure:"pdf" yaml:"pdf"`
	OCR        OCRCfg        `mapstructure:"ocr" yaml:"ocr"`
	Embeddings EmbeddingsCfg `mapstructure:"embeddings" yaml:"embeddings"`
	Qdrant     QdrantCfg     `mapstructure:"qdrant" yaml:"qdrant"`
	RateLimit  RateLimitCfg  `mapstructure:"rate_limit" yaml:"rate_limit"`
	Logging    LoggingCfg    `mapstructure:"logging" yaml:"logging"`
}

// ServerCfg configures the HTTP listener.
type ServerCfg struct {
	Host                string   `mapstructure:"host" yaml:"host"`
	Port                string   `mapstructure:"port" yaml:"port"`
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	MaxUploadMB         int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	CORSOrigins         []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LimitsCfg bounds heavy work.
type LimitsCfg struct {
	MaxConcurrentJobs     int `mapstructure:"max_concurrent_jobs" yaml:"max_concurrent_jobs"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" yaml:"request_timeout_seconds"`
}

// PDFCfg holds defaults for PDF operations.
type PDFCfg struct {
	MaxMergeSources  int    `mapstructure:"max_merge_sources" yaml:"max_merge_sources"`
	DefaultPrefix    string `mapstructure:"default_prefix" yaml:"default_prefix"`
	DefaultBatchSize int    `mapstructure:"default_batch_size" yaml:"default_batch_size"`
}

// OCRCfg configures the Mistral OCR provider and the key policy for
// callers of the OCR endpoints.
type OCRCfg struct {
	Enabled        bool    `mapstructure:"enabled" yaml:"enabled"`
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url"`
	Model          string  `mapstructure:"model" yaml:"model"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	MaxRetries     int     `mapstructure:"max_retries" yaml:"max_retries"`
	ImageLimit     int     `mapstructure:"image_limit" yaml:"image_limit"`
	ImageMinSize   int     `mapstructure:"image_min_size" yaml:"image_min_size"`
	RequireAPIKey  bool    `mapstructure:"require_api_key" yaml:"require_api_key"`
	MinKeyLength   int     `mapstructure:"min_key_length" yaml:"min_key_length"`
}

// EmbeddingsCfg configures the embeddings client used to verify
// collection dimensions.
type EmbeddingsCfg struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	Model          string `mapstructure:"model" yaml:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// QdrantCfg configures the vector store.
type QdrantCfg struct {
	URL            string          `mapstructure:"url" yaml:"url"`
	APIKey         string          `mapstructure:"api_key" yaml:"api_key"`
	TimeoutSeconds int             `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Docker         QdrantDockerCfg `mapstructure:"docker" yaml:"docker"`
}

// QdrantDockerCfg holds local Qdrant container configuration.
type QdrantDockerCfg struct {
	// Enabled starts the container with `serve`.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// ContainerName is the Docker container name (default: n8ntools-qdrant)
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	// Image is the Docker image to use (default: qdrant/qdrant:latest)
	Image string `mapstructure:"image" yaml:"image"`
	// Port is the host port to bind (default: 6333)
	Port string `mapstructure:"port" yaml:"port"`
}

// RateLimitCfg covers inbound request limits.
type RateLimitCfg struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"` // per client IP, 0 disables
	Burst             int     `mapstructure:"burst" yaml:"burst"`
	KeyRequests       int     `mapstructure:"key_requests" yaml:"key_requests"` // per OCR API key per window
	KeyWindowSeconds  int     `mapstructure:"key_window_seconds" yaml:"key_window_seconds"`
}

// LoggingCfg selects the slog handler.
type LoggingCfg struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:                "0.0.0.0",
			Port:                "8080",
			ReadTimeoutSeconds:  120,
			WriteTimeoutSeconds: 300,
			MaxUploadMB:         50,
			CORSOrigins:         []string{"*"},
		},
		Limits: LimitsCfg{
			MaxConcurrentJobs:     4,
			RequestTimeoutSeconds: 120,
		},
		PDF: PDFCfg{
			MaxMergeSources:  20,
			DefaultPrefix:    "document",
			DefaultBatchSize: 10,
		},
		OCR: OCRCfg{
			Enabled:        true,
			APIKey:         "${MISTRAL_API_KEY}",
			BaseURL:        "https://api.mistral.ai/v1",
			Model:          "mistral-ocr-latest",
			TimeoutSeconds: 300,
			RateLimit:      6.0,
			MaxRetries:     3,
			ImageLimit:     50,
			ImageMinSize:   30,
			RequireAPIKey:  true,
			MinKeyLength:   32,
		},
		Embeddings: EmbeddingsCfg{
			Enabled:        true,
			APIKey:         "${MISTRAL_API_KEY}",
			BaseURL:        "https://api.mistral.ai/v1",
			Model:          "mistral-embed",
			TimeoutSeconds: 60,
		},
		Qdrant: QdrantCfg{
			URL:            "http://localhost:6333",
			APIKey:         "${QDRANT_API_KEY}",
			TimeoutSeconds: 30,
			Docker: QdrantDockerCfg{
				Enabled:       false,
				ContainerName: "n8ntools-qdrant",
				Image:         "qdrant/qdrant:latest",
				Port:          "6333",
			},
		},
		RateLimit: RateLimitCfg{
			RequestsPerSecond: 20,
			Burst:             40,
			KeyRequests:       100,
			KeyWindowSeconds:  60,
		},
		Logging: LoggingCfg{
			Level:  "info",
			Format: "text",
		},
	}
}

// Addr returns host:port for the HTTP listener.
func (s ServerCfg) Addr() string {
	return s.Host + ":" + s.Port
}

// MaxUploadBytes returns the upload limit in bytes.
func (s ServerCfg) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// RequestTimeout returns the per-operation deadline.
func (l LimitsCfg) RequestTimeout() time.Duration {
	return time.Duration(l.RequestTimeoutSeconds) * time.Second
}

// KeyWindow returns the per-key rate limit window.
func (r RateLimitCfg) KeyWindow() time.Duration {
	return time.Duration(r.KeyWindowSeconds) * time.Second
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port != "", "server.port must be set")
	check(c.Server.MaxUploadMB > 0, "server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	check(c.Limits.MaxConcurrentJobs > 0, "limits.max_concurrent_jobs must be positive, got %d", c.Limits.MaxConcurrentJobs)
	check(c.Limits.RequestTimeoutSeconds > 0, "limits.request_timeout_seconds must be positive, got %d", c.Limits.RequestTimeoutSeconds)
	check(c.PDF.MaxMergeSources >= 2, "pdf.max_merge_sources must be at least 2, got %d", c.PDF.MaxMergeSources)
	check(c.PDF.DefaultBatchSize > 0, "pdf.default_batch_size must be positive, got %d", c.PDF.DefaultBatchSize)
	check(c.OCR.RateLimit >= 0, "ocr.rate_limit must not be negative")
	check(c.OCR.MaxRetries >= 0, "ocr.max_retries must not be negative")
	check(c.OCR.MinKeyLength >= 0, "ocr.min_key_length must not be negative")
	check(c.RateLimit.RequestsPerSecond >= 0, "rate_limit.requests_per_second must not be negative")
	check(c.RateLimit.KeyRequests >= 0, "rate_limit.key_requests must not be negative")
	check(c.RateLimit.KeyRequests == 0 || c.RateLimit.KeyWindowSeconds > 0,
		"rate_limit.key_window_seconds must be positive when key_requests is set")

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format))
	}

	return errors.Join(errs...)
}
