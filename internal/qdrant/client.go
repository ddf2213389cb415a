// Package qdrant manages Qdrant collections over its REST API and runs a
// local Qdrant container for development.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Sentinel errors for the qdrant package.
var (
	// ErrCollectionExists is returned when creating a collection that
	// exists and recreation was not requested.
	ErrCollectionExists = errors.New("collection already exists")

	// ErrNotFound is returned when a collection does not exist.
	ErrNotFound = errors.New("collection not found")

	// ErrUnauthorized is returned on 401/403 from Qdrant.
	ErrUnauthorized = errors.New("qdrant authentication failed")

	// ErrUnreachable is returned when Qdrant cannot be contacted or
	// answers with a server error.
	ErrUnreachable = errors.New("qdrant unreachable")

	// ErrBadRequest is returned when Qdrant rejects a request.
	ErrBadRequest = errors.New("qdrant rejected request")
)

// ClientConfig holds configuration for the Qdrant client.
type ClientConfig struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a Qdrant REST client.
type Client struct {
	url        string
	apiKey     string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Qdrant client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		url:        strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// URL returns the base URL.
func (c *Client) URL() string {
	return c.url
}

// HasAPIKey reports whether requests carry an api-key header.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// envelope is the wrapper Qdrant puts around every response.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Status any             `json:"status"`
	Time   float64         `json:"time"`
}

// errorMessage extracts {"status": {"error": "..."}}.
func (e envelope) errorMessage() string {
	if m, ok := e.Status.(map[string]any); ok {
		if s, ok := m["error"].(string); ok {
			return s
		}
	}
	return ""
}

// HealthCheck lists collections, which verifies both reachability and the
// API key.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.ListCollections(ctx)
	return err
}

// ListCollections returns collection names.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	var result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	}
	if err := c.do(ctx, http.MethodGet, "/collections", nil, &result); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(result.Collections))
	for _, col := range result.Collections {
		names = append(names, col.Name)
	}
	return names, nil
}

// GetCollection returns details for name.
func (c *Client) GetCollection(ctx context.Context, name string) (*CollectionDetails, error) {
	if err := ValidateCollectionName(name); err != nil {
		return nil, err
	}
	var info collectionInfo
	if err := c.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(name), nil, &info); err != nil {
		return nil, err
	}
	return info.details(name), nil
}

// CollectionExists reports whether name exists.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, err := c.GetCollection(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// CreateCollection creates a collection. An existing collection is an
// ErrCollectionExists unless spec.ForceRecreate is set, in which case it
// is deleted first.
func (c *Client) CreateCollection(ctx context.Context, spec CollectionSpec) (*CollectionDetails, error) {
	if err := ValidateCollectionName(spec.Name); err != nil {
		return nil, err
	}

	exists, err := c.CollectionExists(ctx, spec.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		if !spec.ForceRecreate {
			return nil, fmt.Errorf("%w: %s", ErrCollectionExists, spec.Name)
		}
		if _, err := c.DeleteCollection(ctx, spec.Name); err != nil {
			return nil, fmt.Errorf("failed to delete existing collection: %w", err)
		}
		c.logger.Info("deleted collection for recreation", "collection", spec.Name)
	}

	var ok bool
	if err := c.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(spec.Name), spec.payload(), &ok); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: create %s returned false", ErrBadRequest, spec.Name)
	}
	c.logger.Info("created collection", "collection", spec.Name, "vector_size", spec.VectorSize, "distance", spec.Distance)

	details, err := c.GetCollection(ctx, spec.Name)
	if err != nil {
		// Created but not yet readable; report what was requested.
		return spec.details(), nil
	}
	return details, nil
}

// DeleteCollection deletes name and reports whether it existed.
func (c *Client) DeleteCollection(ctx context.Context, name string) (bool, error) {
	if err := ValidateCollectionName(name); err != nil {
		return false, err
	}
	var deleted bool
	if err := c.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(name), nil, &deleted); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return deleted, nil
}

// do sends a request and decodes the result field into out. Network errors
// and 5xx responses are retried.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	return retry.Do(
		func() error {
			return c.doOnce(ctx, method, path, bodyBytes, out)
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries+1)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool { return errors.Is(err, ErrUnreachable) }),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying qdrant request", "method", method, "path", path, "attempt", n+1, "error", err)
		}),
	)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+path, reader)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrUnreachable, err)
	}

	var env envelope
	_ = json.Unmarshal(respBody, &env)
	msg := env.errorMessage()
	if msg == "" {
		msg = strings.TrimSpace(string(respBody))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrCollectionExists, msg)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrUnreachable, resp.StatusCode, msg)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d: %s", ErrBadRequest, resp.StatusCode, msg)
	}

	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to decode qdrant result: %w", err)
	}
	return nil
}
