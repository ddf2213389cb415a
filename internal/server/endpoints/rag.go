package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/n8ntools/internal/api"
	"github.com/jackzampolin/n8ntools/internal/qdrant"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
)

// qdrantFor returns the shared client, or a one-off client when the caller
// names a different Qdrant server or key.
func qdrantFor(ctx context.Context, rawURL, apiKey string) (*qdrant.Client, error) {
	shared := svcctx.QdrantFrom(ctx)
	if rawURL == "" && apiKey == "" {
		if shared == nil {
			return nil, errUnavailable
		}
		return shared, nil
	}
	if rawURL == "" {
		if shared == nil {
			return nil, errUnavailable
		}
		rawURL = shared.URL()
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, invalidInput("qdrant_url", rawURL, "http(s)://host[:port]", "invalid qdrant_url %q", rawURL)
	}
	timeout := 30 * time.Second
	if cfg := svcctx.ConfigFrom(ctx); cfg != nil && cfg.Qdrant.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Qdrant.TimeoutSeconds) * time.Second
	}
	return qdrant.NewClient(qdrant.ClientConfig{
		URL:     rawURL,
		APIKey:  apiKey,
		Timeout: timeout,
		Logger:  svcctx.LoggerFrom(ctx),
	}), nil
}

// qdrantFromRequest honours the optional qdrant_url query parameter and
// the X-Qdrant-Api-Key header.
func qdrantFromRequest(r *http.Request) (*qdrant.Client, error) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("qdrant_url"))
	key := strings.TrimSpace(r.Header.Get("X-Qdrant-Api-Key"))
	return qdrantFor(r.Context(), rawURL, key)
}

// qdrantFlags adds --qdrant-url and --qdrant-api-key to a command.
func qdrantFlags(cmd *cobra.Command, rawURL, key *string) {
	cmd.Flags().StringVar(rawURL, "qdrant-url", "", "Qdrant server to use instead of the configured one")
	cmd.Flags().StringVar(key, "qdrant-api-key", "", "Qdrant API key for --qdrant-url")
}

// withQdrant applies --qdrant-url and --qdrant-api-key to a request.
func withQdrant(client *api.Client, path, rawURL, key string) (*api.Client, string) {
	if key != "" {
		client = client.WithHeader("X-Qdrant-Api-Key", key)
	}
	if rawURL != "" {
		path += "?qdrant_url=" + url.QueryEscape(rawURL)
	}
	return client, path
}

// RAGServiceResponse describes the RAG service.
type RAGServiceResponse struct {
	Service                  string   `json:"service"`
	Status                   string   `json:"status"`
	Operations               []string `json:"operations"`
	SupportedEmbeddingModels []string `json:"supported_embedding_models"`
	VectorDatabase           string   `json:"vector_database"`
	QdrantURL                string   `json:"qdrant_url"`
	DefaultVectorSize        int      `json:"default_vector_size"`
	DefaultDistanceMetric    string   `json:"default_distance_metric"`
}

// RAGStatusEndpoint handles GET /api/rag.
type RAGStatusEndpoint struct{}

var _ api.Endpoint = (*RAGStatusEndpoint)(nil)

func (e *RAGStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/rag", e.handler
}

func (e *RAGStatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		RAG service status
//	@Tags			rag
//	@Produce		json
//	@Success		200	{object}	RAGServiceResponse
//	@Router			/api/rag [get]
func (e *RAGStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := RAGServiceResponse{
		Service: "RAG Operations",
		Status:  "ready",
		Operations: []string{
			"test-connection - Check Qdrant connectivity",
			"collections - Create, list, inspect and delete collections",
		},
		SupportedEmbeddingModels: []string{"mistral-embed"},
		VectorDatabase:           "Qdrant",
		DefaultVectorSize:        qdrant.DefaultVectorSize,
		DefaultDistanceMetric:    string(qdrant.DistanceCosine),
	}
	if cfg := svcctx.ConfigFrom(r.Context()); cfg != nil && cfg.Embeddings.Model != "" {
		resp.SupportedEmbeddingModels = []string{cfg.Embeddings.Model}
	}
	if client := svcctx.QdrantFrom(r.Context()); client != nil {
		resp.QdrantURL = client.URL()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *RAGStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show RAG service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp RAGServiceResponse
			if err := client.Get(cmd.Context(), "/api/rag", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// TestConnectionRequest is the optional body of POST /api/rag/test-connection.
type TestConnectionRequest struct {
	QdrantURL    string `json:"qdrant_url,omitempty"`
	QdrantAPIKey string `json:"qdrant_api_key,omitempty"`
}

// TestConnectionResponse reports a successful connection.
type TestConnectionResponse struct {
	Status              string  `json:"status"`
	Message             string  `json:"message"`
	QdrantURL           string  `json:"qdrant_url"`
	ConnectionValidated bool    `json:"connection_validated"`
	Collections         int     `json:"collections"`
	ProcessingTimeMS    float64 `json:"processing_time_ms"`
}

// TestConnectionEndpoint handles POST /api/rag/test-connection.
type TestConnectionEndpoint struct{}

var _ api.Endpoint = (*TestConnectionEndpoint)(nil)

func (e *TestConnectionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/rag/test-connection", e.handler
}

func (e *TestConnectionEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Test Qdrant connectivity
//	@Description	Lists collections on the configured Qdrant, or on qdrant_url when given
//	@Tags			rag
//	@Accept			json
//	@Produce		json
//	@Param			request	body		TestConnectionRequest	false	"Qdrant server override"
//	@Success		200		{object}	TestConnectionResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/rag/test-connection [post]
func (e *TestConnectionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req TestConnectionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			writeErr(w, r, invalidInput("body", "", "JSON object", "invalid request body: %v", err))
			return
		}
	}
	client, err := qdrantFor(r.Context(), strings.TrimSpace(req.QdrantURL), req.QdrantAPIKey)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	names, err := client.ListCollections(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TestConnectionResponse{
		Status:              "success",
		Message:             "Successfully connected to Qdrant server",
		QdrantURL:           client.URL(),
		ConnectionValidated: true,
		Collections:         len(names),
		ProcessingTimeMS:    msSince(start),
	})
}

func (e *TestConnectionEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req TestConnectionRequest
	cmd := &cobra.Command{
		Use:   "test-connection",
		Short: "Check that the server can reach Qdrant",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp TestConnectionResponse
			if err := client.Post(cmd.Context(), "/api/rag/test-connection", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	qdrantFlags(cmd, &req.QdrantURL, &req.QdrantAPIKey)
	return cmd
}
