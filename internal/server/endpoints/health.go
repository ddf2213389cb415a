package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/n8ntools/internal/api"
	"github.com/jackzampolin/n8ntools/internal/providers"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
	"github.com/jackzampolin/n8ntools/version"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	OCR    string `json:"ocr,omitempty"`
	Qdrant string `json:"qdrant,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

var _ api.Endpoint = (*HealthEndpoint)(nil)

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Liveness check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

var _ api.Endpoint = (*ReadyEndpoint)(nil)

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Readiness check
//	@Description	Reports whether an OCR provider is configured and Qdrant answers
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/ready [get]
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", OCR: "ok", Qdrant: "ok"}
	ctx := r.Context()

	if registry := svcctx.RegistryFrom(ctx); registry == nil {
		resp.OCR = "not_initialized"
	} else if _, err := registry.OCR(); err != nil {
		resp.OCR = "not_configured"
	}

	if client := svcctx.QdrantFrom(ctx); client == nil {
		resp.Qdrant = "not_initialized"
	} else if err := client.HealthCheck(ctx); err != nil {
		resp.Qdrant = "unhealthy"
	}

	if resp.OCR != "ok" || resp.Qdrant != "ok" {
		resp.Status = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (OCR provider and Qdrant)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			// A degraded server answers 503, which the client reports as an error.
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			fmt.Printf("OCR:    %s\n", resp.OCR)
			fmt.Printf("Qdrant: %s\n", resp.Qdrant)
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server    string          `json:"server"`
	Version   string          `json:"version"`
	Providers ProvidersStatus `json:"providers"`
	Qdrant    QdrantStatus    `json:"qdrant"`
	Limits    LimitsStatus    `json:"limits"`
}

// ProvidersStatus shows the OCR provider and embedder.
type ProvidersStatus struct {
	OCR        providers.ProviderStatus `json:"ocr"`
	Embeddings providers.ProviderStatus `json:"embeddings"`
}

// QdrantStatus shows the vector store connection and the local container.
type QdrantStatus struct {
	URL       string `json:"url"`
	HasAPIKey bool   `json:"has_api_key"`
	Health    string `json:"health"`
	Container string `json:"container"`
}

// LimitsStatus shows the resource limits in effect.
type LimitsStatus struct {
	MaxConcurrentJobs     int `json:"max_concurrent_jobs"`
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
	MaxUploadMB           int `json:"max_upload_mb"`
	MaxMergeSources       int `json:"max_merge_sources"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

var _ api.Endpoint = (*StatusEndpoint)(nil)

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Detailed server status
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg := svcctx.ConfigFrom(ctx)

	resp := StatusResponse{
		Server:  "running",
		Version: version.String(),
		Limits: LimitsStatus{
			MaxConcurrentJobs:     cfg.Limits.MaxConcurrentJobs,
			RequestTimeoutSeconds: cfg.Limits.RequestTimeoutSeconds,
			MaxUploadMB:           cfg.Server.MaxUploadMB,
			MaxMergeSources:       cfg.PDF.MaxMergeSources,
		},
	}

	if registry := svcctx.RegistryFrom(ctx); registry != nil {
		resp.Providers.OCR, resp.Providers.Embeddings = registry.Status()
	}

	if dock := svcctx.QdrantDockerFrom(ctx); dock != nil {
		status, err := dock.Status(ctx)
		if err != nil {
			resp.Qdrant.Container = "error"
		} else {
			resp.Qdrant.Container = string(status)
		}
	} else {
		resp.Qdrant.Container = "external"
	}

	if client := svcctx.QdrantFrom(ctx); client != nil {
		resp.Qdrant.URL = client.URL()
		resp.Qdrant.HasAPIKey = client.HasAPIKey()
		if err := client.HealthCheck(ctx); err != nil {
			resp.Qdrant.Health = "unhealthy"
		} else {
			resp.Qdrant.Health = "healthy"
		}
	} else {
		resp.Qdrant.Health = "not_initialized"
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
