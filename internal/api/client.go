package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Client is an HTTP client for the n8ntools API.
type Client struct {
	baseURL    string
	apiKey     string
	headers    map[string]string
	httpClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute, // OCR of large documents is slow
		},
	}
}

// WithAPIKey returns a copy of the client that sends key as X-API-Key.
func (c *Client) WithAPIKey(key string) *Client {
	cp := *c
	cp.apiKey = key
	return &cp
}

// WithHeader returns a copy of the client that sends an extra header.
func (c *Client) WithHeader(key, value string) *Client {
	cp := *c
	cp.headers = make(map[string]string, len(c.headers)+1)
	for k, v := range c.headers {
		cp.headers[k] = v
	}
	cp.headers[key] = value
	return &cp
}

// Get performs a GET request and decodes the JSON response.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request with JSON body and decodes the response.
func (c *Client) Post(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

// Put performs a PUT request with JSON body and decodes the response.
func (c *Client) Put(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, result)
}

// Delete performs a DELETE request and decodes the response if result is
// non-nil.
func (c *Client) Delete(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, result)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, result)
}

// Form is a multipart request: plain fields plus files read from disk.
type Form struct {
	Fields map[string]string
	Files  []FormFile
}

// FormFile attaches the file at Path under the form field Field.
type FormFile struct {
	Field string
	Path  string
}

// PostForm sends a multipart form and decodes the JSON response.
func (c *Client) PostForm(ctx context.Context, path string, form Form, result any) error {
	resp, err := c.postForm(ctx, path, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.handleResponse(resp, result)
}

// Download describes a binary response saved by DownloadForm.
type Download struct {
	Filename    string `json:"filename"`
	SavedTo     string `json:"saved_to"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`
	FileCount   int    `json:"file_count,omitempty"`
	SourcePages int    `json:"source_pages,omitempty"`
	TotalPages  int    `json:"total_pages,omitempty"`
	ElapsedMS   int64  `json:"processing_time_ms,omitempty"`
}

// DownloadForm sends a multipart form and writes the binary response to
// outPath. An empty outPath or a directory uses the server's filename.
func (c *Client) DownloadForm(ctx context.Context, path string, form Form, outPath string) (*Download, error) {
	resp, err := c.postForm(ctx, path, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.handleResponse(resp, nil)
	}

	dl := &Download{
		ContentType: resp.Header.Get("Content-Type"),
		FileCount:   headerInt(resp.Header, "X-File-Count"),
		SourcePages: headerInt(resp.Header, "X-Source-Pages"),
		TotalPages:  headerInt(resp.Header, "X-Total-Pages"),
		ElapsedMS:   int64(headerInt(resp.Header, "X-Processing-Time-Ms")),
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		dl.Filename = params["filename"]
	}
	if dl.Filename == "" {
		dl.Filename = "download"
	}

	dest := outPath
	if dest == "" {
		dest = dl.Filename
	} else if info, err := os.Stat(dest); err == nil && info.IsDir() {
		dest = filepath.Join(dest, dl.Filename)
	}

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", dest, err)
	}

	dl.SavedTo = dest
	dl.SizeBytes = n
	return dl, nil
}

func (c *Client) postForm(ctx context.Context, path string, form Form) (*http.Response, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeForm(mw, form))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req)
}

func writeForm(mw *multipart.Writer, form Form) error {
	for k, v := range form.Fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	for _, ff := range form.Files {
		f, err := os.Open(ff.Path)
		if err != nil {
			return err
		}
		part, err := mw.CreateFormFile(ff.Field, filepath.Base(ff.Path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		f.Close()
		if err != nil {
			return err
		}
	}
	return mw.Close()
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) handleResponse(resp *http.Response, result any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func headerInt(h http.Header, key string) int {
	n, _ := strconv.Atoi(h.Get(key))
	return n
}

// ErrorResponse matches the server's error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}
