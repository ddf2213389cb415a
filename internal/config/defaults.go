package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownKey is returned when a dotted key names no config field.
var ErrUnknownKey = errors.New("unknown config key")

// Entry is one leaf setting with its description.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// descriptions documents every leaf key. Keys missing here still appear in
// listings with an empty description.
var descriptions = map[string]string{
	"server.host":                  "Interface the HTTP server binds to",
	"server.port":                  "Port the HTTP server listens on",
	"server.read_timeout_seconds":  "HTTP read timeout in seconds, uploads included",
	"server.write_timeout_seconds": "HTTP write timeout in seconds",
	"server.max_upload_mb":         "Largest accepted request body in megabytes",
	"server.cors_origins":          "Allowed CORS origins",

	"limits.max_concurrent_jobs":     "Split, merge and OCR operations allowed to run at once",
	"limits.request_timeout_seconds": "Deadline for a single PDF or OCR operation",

	"pdf.max_merge_sources":  "Maximum number of documents in one merge",
	"pdf.default_prefix":     "Output name prefix when none is given and the upload has no name",
	"pdf.default_batch_size": "Batch size used by the CLI when --batch-size is omitted",

	"ocr.enabled":         "Whether the Mistral OCR provider is enabled",
	"ocr.api_key":         "Mistral API key used when callers send none (uses environment variable)",
	"ocr.base_url":        "Mistral API base URL",
	"ocr.model":           "Mistral OCR model",
	"ocr.timeout_seconds": "HTTP timeout in seconds for Mistral OCR requests",
	"ocr.rate_limit":      "Outbound rate limit in requests per second for Mistral",
	"ocr.max_retries":     "Maximum retry attempts for failed Mistral requests",
	"ocr.image_limit":     "Maximum images returned per document when images are requested",
	"ocr.image_min_size":  "Smallest image edge in pixels Mistral returns",
	"ocr.require_api_key": "Reject OCR calls without a caller API key",
	"ocr.min_key_length":  "Minimum accepted caller API key length",

	"embeddings.enabled":         "Whether the embeddings client is enabled",
	"embeddings.api_key":         "Mistral API key for embeddings (uses environment variable)",
	"embeddings.base_url":        "OpenAI-compatible embeddings base URL",
	"embeddings.model":           "Embedding model",
	"embeddings.timeout_seconds": "HTTP timeout in seconds for embedding requests",

	"qdrant.url":                   "Qdrant REST URL",
	"qdrant.api_key":               "Qdrant API key (uses environment variable)",
	"qdrant.timeout_seconds":       "HTTP timeout in seconds for Qdrant requests",
	"qdrant.docker.enabled":        "Start a local Qdrant container with serve",
	"qdrant.docker.container_name": "Docker container name for local Qdrant",
	"qdrant.docker.image":          "Docker image for local Qdrant",
	"qdrant.docker.port":           "Host port bound to the Qdrant REST port",

	"rate_limit.requests_per_second": "Inbound requests per second per client IP (0 disables)",
	"rate_limit.burst":               "Inbound burst size per client IP",
	"rate_limit.key_requests":        "OCR requests allowed per API key per window",
	"rate_limit.key_window_seconds":  "Window for the per-key OCR limit",

	"logging.level":  "Log level: debug, info, warn, error",
	"logging.format": "Log format: text or json",
}

// DefaultEntries returns every leaf setting with its default value.
func DefaultEntries() []Entry {
	entries, err := Entries(DefaultConfig())
	if err != nil {
		// DefaultConfig always marshals.
		panic(err)
	}
	return entries
}

// Entries flattens cfg into sorted dotted-key entries.
func Entries(cfg *Config) ([]Entry, error) {
	flat, err := Flatten(cfg)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(flat))
	for key, value := range flat {
		entries = append(entries, Entry{Key: key, Value: value, Description: descriptions[key]})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// GetDefault returns the default value for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// Lookup returns the entry for key in cfg.
func Lookup(cfg *Config, key string) (*Entry, error) {
	flat, err := Flatten(cfg)
	if err != nil {
		return nil, err
	}
	v, ok := flat[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	return &Entry{Key: key, Value: v, Description: descriptions[key]}, nil
}

// Flatten returns cfg as a map of dotted yaml keys to leaf values.
func Flatten(cfg *Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	flat := make(map[string]any)
	flatten("", tree, flat)
	return flat, nil
}

func flatten(prefix string, node map[string]any, out map[string]any) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flatten(key, child, out)
			continue
		}
		out[key] = v
	}
}

// IsSecretKey reports whether key holds a credential.
func IsSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key")
}

// SecretMask replaces configured credentials in listings.
const SecretMask = "********"

// MaskSecret hides the value of a credential key. Empty values and
// unresolved ${ENV_VAR} references are returned as written.
func MaskSecret(key string, value any) any {
	s, ok := value.(string)
	if !ok || s == "" || !IsSecretKey(key) || envVarPattern.MatchString(s) {
		return value
	}
	return SecretMask
}
