package endpoints

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/n8ntools/internal/api"
	"github.com/jackzampolin/n8ntools/internal/ocr"
	"github.com/jackzampolin/n8ntools/internal/providers"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
)

// authConfigured marks requests that fell back to the server's own key.
const authConfigured ocr.AuthMethod = "configured"

// keyAuth is the outcome of authenticating an OCR request.
type keyAuth struct {
	Key       string // empty when the configured key is used
	Method    ocr.AuthMethod
	Hash      string
	Remaining int
}

// authenticate reads the caller's key, checks its format and charges it
// against the per-key limit. With ocr.require_api_key off, a request
// without a key falls back to the configured Mistral key.
func authenticate(r *http.Request) (*keyAuth, error) {
	ctx := r.Context()
	cfg := svcctx.ConfigFrom(ctx)

	key, method := ocr.KeyFromRequest(r)
	auth := &keyAuth{Key: key, Method: method}
	limiterKey := key
	if key == "" {
		if cfg.OCR.RequireAPIKey {
			return nil, ocr.ErrMissingAPIKey
		}
		auth.Method = authConfigured
		limiterKey = string(authConfigured)
	} else if err := ocr.ValidateKeyFormat(key, cfg.OCR.MinKeyLength); err != nil {
		return nil, err
	}
	auth.Hash = ocr.KeyHash(limiterKey)

	auth.Remaining = -1
	if limiter := svcctx.KeyLimiterFrom(ctx); limiter != nil {
		remaining, err := limiter.Allow(limiterKey)
		if err != nil {
			svcctx.LoggerFrom(ctx).Warn("api key rate limited", "key_hash", auth.Hash)
			return nil, err
		}
		auth.Remaining = remaining
	}
	return auth, nil
}

// apiKeyFlag adds --api-key, defaulting to $MISTRAL_API_KEY.
func apiKeyFlag(cmd *cobra.Command, key *string) {
	cmd.Flags().StringVar(key, "api-key", os.Getenv("MISTRAL_API_KEY"), "Mistral API key sent as X-API-Key (default: $MISTRAL_API_KEY)")
}

// OCRServiceResponse describes the OCR service.
type OCRServiceResponse struct {
	Service          string                   `json:"service"`
	Status           string                   `json:"status"`
	Provider         providers.ProviderStatus `json:"provider"`
	SupportedFormats []string                 `json:"supported_formats"`
	ResponseFormats  []string                 `json:"response_formats"`
	MaxFileSizeMB    int                      `json:"max_file_size_mb"`
	RequireAPIKey    bool                     `json:"require_api_key"`
	RateLimits       OCRRateLimits            `json:"rate_limits"`
	Features         []string                 `json:"features"`
}

// OCRRateLimits reports the per-key and outbound limits.
type OCRRateLimits struct {
	RequestsPerKey       int     `json:"requests_per_key"`
	WindowSeconds        int     `json:"window_seconds"`
	UpstreamRequestsPerS float64 `json:"upstream_requests_per_second"`
}

// OCRStatusEndpoint handles GET /api/ocr.
type OCRStatusEndpoint struct{}

var _ api.Endpoint = (*OCRStatusEndpoint)(nil)

func (e *OCRStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/ocr", e.handler
}

func (e *OCRStatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		OCR service status
//	@Tags			ocr
//	@Produce		json
//	@Success		200	{object}	OCRServiceResponse
//	@Failure		503	{object}	OCRServiceResponse
//	@Router			/api/ocr [get]
func (e *OCRStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cfg := svcctx.ConfigFrom(r.Context())

	formats := make([]string, len(ocr.SupportedTypes))
	for i, t := range ocr.SupportedTypes {
		formats[i] = t.Extension
	}
	resp := OCRServiceResponse{
		Service:          "OCR Service",
		Status:           "ready",
		SupportedFormats: formats,
		ResponseFormats:  []string{ocr.ShapeEnhanced.String(), ocr.ShapeOfficial.String()},
		MaxFileSizeMB:    cfg.Server.MaxUploadMB,
		RequireAPIKey:    cfg.OCR.RequireAPIKey,
		RateLimits: OCRRateLimits{
			RequestsPerKey:       cfg.RateLimit.KeyRequests,
			WindowSeconds:        cfg.RateLimit.KeyWindowSeconds,
			UpstreamRequestsPerS: cfg.OCR.RateLimit,
		},
		Features: []string{
			"Text extraction from PDFs and images",
			"Image extraction from documents",
			"URL-based document processing",
			"Mathematical formula rendering",
			"Markdown and HTML output",
		},
	}

	status := http.StatusOK
	registry := svcctx.RegistryFrom(r.Context())
	if registry == nil {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		resp.Provider, _ = registry.Status()
		if !resp.Provider.Configured {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

func (e *OCRStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show OCR service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp OCRServiceResponse
			if err := client.Get(cmd.Context(), "/api/ocr", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// OCRHealthResponse reports recent OCR outcomes for monitoring.
type OCRHealthResponse struct {
	Timestamp       time.Time                `json:"timestamp"`
	Status          string                   `json:"status"`
	HealthScore     int                      `json:"health_score"`
	Metrics         ocr.HealthSummary        `json:"metrics"`
	Provider        providers.ProviderStatus `json:"provider"`
	Recommendations []string                 `json:"recommendations"`
}

// OCRHealthEndpoint handles GET /api/ocr/health.
type OCRHealthEndpoint struct{}

var _ api.Endpoint = (*OCRHealthEndpoint)(nil)

func (e *OCRHealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/ocr/health", e.handler
}

func (e *OCRHealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		OCR health metrics
//	@Description	Error rate and latency over the last hour, with the upstream limiter state
//	@Tags			ocr
//	@Produce		json
//	@Success		200	{object}	OCRHealthResponse
//	@Router			/api/ocr/health [get]
func (e *OCRHealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := OCRHealthResponse{
		Timestamp:       time.Now().UTC(),
		Recommendations: []string{},
	}
	if health := svcctx.OCRHealthFrom(ctx); health != nil {
		resp.Metrics = health.Summary()
	} else {
		resp.Metrics = ocr.NewHealthTracker(0).Summary()
	}
	resp.Status = resp.Metrics.Status
	resp.HealthScore = resp.Metrics.HealthScore

	if registry := svcctx.RegistryFrom(ctx); registry != nil {
		resp.Provider, _ = registry.Status()
	}
	if !resp.Provider.Configured {
		resp.Status = ocr.HealthUnhealthy
		resp.Recommendations = append(resp.Recommendations, "Set ocr.api_key or send X-API-Key with each request")
	}
	if resp.Metrics.Status != ocr.HealthHealthy {
		resp.Recommendations = append(resp.Recommendations, "Error rate is elevated; check top_errors and upstream status")
	}
	if resp.Metrics.ErrorsByCode["upstream_rate_limited"] > 0 {
		resp.Recommendations = append(resp.Recommendations, "Mistral is rate limiting requests; lower client concurrency or ocr.rate_limit")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *OCRHealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show OCR health metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp OCRHealthResponse
			if err := client.Get(cmd.Context(), "/api/ocr/health", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// AuthInfo describes how a request authenticated.
type AuthInfo struct {
	Authenticated      bool   `json:"authenticated"`
	AuthMethod         string `json:"auth_method"`
	KeyHash            string `json:"key_hash"`
	RateLimitRemaining int    `json:"rate_limit_remaining"`
}

// AuthTestResponse is returned by the auth test endpoint.
type AuthTestResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	AuthInfo  AuthInfo  `json:"auth_info"`
	Timestamp time.Time `json:"timestamp"`
}

// OCRAuthTestEndpoint handles POST /api/ocr/auth/test.
type OCRAuthTestEndpoint struct{}

var _ api.Endpoint = (*OCRAuthTestEndpoint)(nil)

func (e *OCRAuthTestEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/ocr/auth/test", e.handler
}

func (e *OCRAuthTestEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Test API key authentication
//	@Description	Checks key format and the per-key rate limit. The key is not sent to Mistral.
//	@Tags			ocr
//	@Produce		json
//	@Param			X-API-Key	header		string	false	"Mistral API key"
//	@Success		200			{object}	AuthTestResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		429			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/api/ocr/auth/test [post]
func (e *OCRAuthTestEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	auth, err := authenticate(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthTestResponse{
		Status:  "success",
		Message: "API key authentication successful",
		AuthInfo: AuthInfo{
			Authenticated:      true,
			AuthMethod:         string(auth.Method),
			KeyHash:            auth.Hash,
			RateLimitRemaining: auth.Remaining,
		},
		Timestamp: time.Now().UTC(),
	})
}

func (e *OCRAuthTestEndpoint) Command(getServerURL func() string) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "auth-test",
		Short: "Check that the server accepts an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL()).WithAPIKey(key)
			var resp AuthTestResponse
			if err := client.Post(cmd.Context(), "/api/ocr/auth/test", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	apiKeyFlag(cmd, &key)
	return cmd
}

// OCRFileInfo describes a validated OCR upload.
type OCRFileInfo struct {
	Filename    string  `json:"filename"`
	FileType    string  `json:"file_type"`
	SizeMB      float64 `json:"size_mb"`
	ContentType string  `json:"content_type"`
}

// OCRValidateResponse is returned by the OCR validate endpoint.
type OCRValidateResponse struct {
	Status           string      `json:"status"`
	Message          string      `json:"message"`
	FileInfo         OCRFileInfo `json:"file_info"`
	ValidationTimeMS float64     `json:"validation_time_ms"`
}

// OCRValidateEndpoint handles POST /api/ocr/validate.
type OCRValidateEndpoint struct{}

var _ api.Endpoint = (*OCRValidateEndpoint)(nil)

func (e *OCRValidateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/ocr/validate", e.handler
}

func (e *OCRValidateEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Validate a file for OCR
//	@Description	Detects the file type from its content and checks the size limit
//	@Tags			ocr
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"PDF or image"
//	@Success		200		{object}	OCRValidateResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Router			/api/ocr/validate [post]
func (e *OCRValidateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := parseUploadForm(w, r, 1); err != nil {
		writeErr(w, r, err)
		return
	}
	u, err := formFile(r, "file")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	info, err := ocr.ValidateUpload(u.Filename, u.Data, svcctx.ConfigFrom(r.Context()).Server.MaxUploadBytes())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OCRValidateResponse{
		Status:  "valid",
		Message: "File is valid for OCR processing",
		FileInfo: OCRFileInfo{
			Filename:    info.Filename,
			FileType:    info.DetectedType.Extension,
			SizeMB:      info.SizeMB,
			ContentType: info.DetectedType.MimeType,
		},
		ValidationTimeMS: msSince(start),
	})
}

func (e *OCRValidateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that a file can be sent to OCR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp OCRValidateResponse
			form := api.Form{Files: []api.FormFile{{Field: "file", Path: args[0]}}}
			if err := client.PostForm(cmd.Context(), "/api/ocr/validate", form, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
