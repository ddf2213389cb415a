package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/n8ntools/internal/providers"
)

// EnvPrefix is prepended to every environment override, e.g.
// N8NTOOLS_SERVER_PORT overrides server.port.
const EnvPrefix = "N8NTOOLS"

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
	logger    *slog.Logger
}

// NewManager creates a new config manager and loads initial config.
// An empty cfgFile searches ./config.yaml and $HOME/.n8ntools/config.yaml.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
		logger:    slog.Default(),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	// Every leaf gets a default so AutomaticEnv can override nested keys.
	for _, e := range DefaultEntries() {
		cm.v.SetDefault(e.Key, e.Value)
	}

	// Environment variables with N8NTOOLS_ prefix
	cm.v.SetEnvPrefix(EnvPrefix)
	cm.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cm.v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName("config")
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
		cm.v.AddConfigPath("$HOME/.n8ntools")
	}

	// Try to read config file (not required)
	if err := cm.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a validated Config.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SetLogger sets the logger used for reload messages.
func (cm *Manager) SetLogger(logger *slog.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.logger = logger
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFileUsed returns the path of the loaded file, or "" when running
// on defaults.
func (cm *Manager) ConfigFileUsed() string {
	return cm.v.ConfigFileUsed()
}

// Override pins key to value above the file and environment, e.g. for
// command line flags. Overrides survive hot reloads.
func (cm *Manager) Override(key string, value any) error {
	if GetDefault(key) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	prev := cm.v.Get(key)
	cm.v.Set(key, value)
	cfg, err := cm.load()
	if err != nil {
		// Viper cannot drop an override, so pin the previous value.
		cm.v.Set(key, prev)
		return err
	}
	cm.mu.Lock()
	cm.config = cfg
	cm.mu.Unlock()
	return nil
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. A reload that
// fails validation is logged and the previous config stays active.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			cm.mu.RLock()
			logger := cm.logger
			cm.mu.RUnlock()
			logger.Warn("ignoring config change", "file", e.Name, "error", err)
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		logger := cm.logger
		cm.mu.Unlock()

		logger.Info("config reloaded", "file", e.Name)
		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ToProviderRegistryConfig converts the config to a format suitable for providers.Registry.
// It resolves all ${ENV_VAR} references in API keys.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	return providers.RegistryConfig{
		OCR: providers.OCRProviderConfig{
			Enabled:      c.OCR.Enabled,
			APIKey:       ResolveEnvVars(c.OCR.APIKey),
			BaseURL:      c.OCR.BaseURL,
			Model:        c.OCR.Model,
			Timeout:      time.Duration(c.OCR.TimeoutSeconds) * time.Second,
			RateLimit:    c.OCR.RateLimit,
			MaxRetries:   c.OCR.MaxRetries,
			ImageLimit:   c.OCR.ImageLimit,
			ImageMinSize: c.OCR.ImageMinSize,
		},
		Embeddings: providers.EmbeddingsProviderConfig{
			Enabled: c.Embeddings.Enabled,
			APIKey:  ResolveEnvVars(c.Embeddings.APIKey),
			BaseURL: c.Embeddings.BaseURL,
			Model:   c.Embeddings.Model,
			Timeout: time.Duration(c.Embeddings.TimeoutSeconds) * time.Second,
		},
	}
}

// QdrantAPIKey returns the Qdrant key with ${ENV_VAR} references resolved.
func (c *Config) QdrantAPIKey() string {
	return ResolveEnvVars(c.Qdrant.APIKey)
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# n8ntools configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export MISTRAL_API_KEY=xxx QDRANT_API_KEY=xxx
# Any key can be overridden with N8NTOOLS_<SECTION>_<KEY>, e.g. N8NTOOLS_SERVER_PORT=9090

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
