package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/n8ntools/internal/api"
	"github.com/jackzampolin/n8ntools/internal/ocr"
	"github.com/jackzampolin/n8ntools/internal/providers"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
)

// ocrJob is one OCR call with everything needed to render its response.
type ocrJob struct {
	auth            *keyAuth
	shape           ocr.ResponseShape
	doc             providers.DocumentSource
	source          ocr.Source
	includeImages   bool
	includeMetadata bool
}

// runOCR calls the provider under a job slot and writes the response in
// the requested shape.
func runOCR(w http.ResponseWriter, r *http.Request, job ocrJob) {
	registry := svcctx.RegistryFrom(r.Context())
	if registry == nil {
		writeErr(w, r, errUnavailable)
		return
	}
	provider, err := registry.OCR()
	if err != nil {
		writeErr(w, r, err)
		return
	}

	start := time.Now()
	var resp *providers.OCRResponse
	err = runJob(r, 0, func(ctx context.Context) error {
		var err error
		resp, err = provider.Process(ctx, &providers.OCRRequest{
			Document:      job.doc,
			IncludeImages: job.includeImages,
			APIKey:        job.auth.Key,
		})
		return err
	})
	elapsed := time.Since(start)
	if health := svcctx.OCRHealthFrom(r.Context()); health != nil && !errors.Is(err, errBusy) {
		health.Record(outcomeCode(err), elapsed)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}

	svcctx.LoggerFrom(r.Context()).Info("ocr processed",
		"source", job.source.Type,
		"identifier", job.source.Identifier,
		"pages", len(resp.Pages),
		"format", job.shape,
		"key_hash", job.auth.Hash,
		"duration_ms", elapsed.Milliseconds())

	if job.auth.Remaining >= 0 {
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(job.auth.Remaining))
	}
	writeJSON(w, http.StatusOK, ocr.Render(job.shape, ocr.Result{
		Response:        resp,
		Source:          job.source,
		IncludeImages:   job.includeImages,
		IncludeMetadata: job.includeMetadata,
		Elapsed:         elapsed,
		ProcessedAt:     time.Now().UTC(),
	}))
}

// outcomeCode names a failed OCR call for the health tracker.
func outcomeCode(err error) string {
	if err == nil {
		return ""
	}
	if code := codeFor(err); code != "" {
		return code
	}
	return kindFor(err, statusFor(err))
}

// OCRFileEndpoint handles POST /api/ocr/process-file.
type OCRFileEndpoint struct{}

var _ api.Endpoint = (*OCRFileEndpoint)(nil)

func (e *OCRFileEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/ocr/process-file", e.handler
}

func (e *OCRFileEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		OCR an uploaded file
//	@Description	Runs Mistral OCR on a PDF or image. format=enhanced (default) returns combined text,
//	@Description	HTML and processing info; format=official mirrors the Mistral OCR API.
//	@Tags			ocr
//	@Accept			mpfd
//	@Produce		json
//	@Param			X-API-Key			header		string	false	"Mistral API key"
//	@Param			file				formData	file	true	"PDF, PNG, JPEG or TIFF"
//	@Param			extract_images		formData	bool	false	"Include base64 images (default true)"
//	@Param			include_metadata	formData	bool	false	"Include document metadata (default true)"
//	@Param			format				formData	string	false	"enhanced or official"
//	@Success		200					{object}	ocr.EnhancedResponse
//	@Failure		400					{object}	ErrorResponse
//	@Failure		401					{object}	ErrorResponse
//	@Failure		413					{object}	ErrorResponse
//	@Failure		429					{object}	ErrorResponse
//	@Failure		502					{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/api/ocr/process-file [post]
func (e *OCRFileEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	auth, err := authenticate(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := parseUploadForm(w, r, 1); err != nil {
		writeErr(w, r, err)
		return
	}

	job := ocrJob{auth: auth}
	if job.shape, err = ocr.ParseShape(r.FormValue("format")); err != nil {
		writeErr(w, r, err)
		return
	}
	if job.includeImages, err = formBool(r, "extract_images", true); err != nil {
		writeErr(w, r, err)
		return
	}
	if job.includeMetadata, err = formBool(r, "include_metadata", true); err != nil {
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

	job.doc = providers.DocumentSource{Data: u.Data, MimeType: info.DetectedType.MimeType, Name: u.Filename}
	job.source = ocr.Source{
		Type:       ocr.SourceFileUpload,
		Identifier: u.Filename,
		MimeType:   info.DetectedType.MimeType,
		SizeBytes:  info.SizeBytes,
	}
	runOCR(w, r, job)
}

func (e *OCRFileEndpoint) Command(getServerURL func() string) *cobra.Command {
	var key, format, out string
	var images, metadata bool
	cmd := &cobra.Command{
		Use:   "process-file FILE",
		Short: "Run OCR on a local PDF or image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := api.Form{
				Fields: map[string]string{
					"format":           format,
					"extract_images":   strconv.FormatBool(images),
					"include_metadata": strconv.FormatBool(metadata),
				},
				Files: []api.FormFile{{Field: "file", Path: args[0]}},
			}
			client := api.NewClient(getServerURL()).WithAPIKey(key)
			var resp map[string]any
			if err := client.PostForm(cmd.Context(), "/api/ocr/process-file", form, &resp); err != nil {
				return err
			}
			if out != "" {
				return api.OutputToFile(resp, out)
			}
			return api.Output(resp)
		},
	}
	apiKeyFlag(cmd, &key)
	cmd.Flags().StringVar(&format, "format", "enhanced", "Response format: enhanced or official")
	cmd.Flags().BoolVar(&images, "extract-images", true, "Include base64 images")
	cmd.Flags().BoolVar(&metadata, "include-metadata", true, "Include document metadata")
	cmd.Flags().StringVar(&out, "out", "", "Write the response to a file (.json or .yaml)")
	return cmd
}

// OCRURLRequest is the body of POST /api/ocr/process-url.
type OCRURLRequest struct {
	URL             string `json:"url"`
	ExtractImages   *bool  `json:"extract_images,omitempty"`
	IncludeMetadata *bool  `json:"include_metadata,omitempty"`
	Format          string `json:"format,omitempty"`
}

// OCRURLEndpoint handles POST /api/ocr/process-url.
type OCRURLEndpoint struct{}

var _ api.Endpoint = (*OCRURLEndpoint)(nil)

func (e *OCRURLEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/ocr/process-url", e.handler
}

func (e *OCRURLEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		OCR a document by URL
//	@Description	Mistral fetches the document itself; the URL must be reachable from the internet.
//	@Tags			ocr
//	@Accept			json
//	@Produce		json
//	@Param			X-API-Key	header		string			false	"Mistral API key"
//	@Param			request		body		OCRURLRequest	true	"Document URL and options"
//	@Success		200			{object}	ocr.EnhancedResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		429			{object}	ErrorResponse
//	@Failure		502			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/api/ocr/process-url [post]
func (e *OCRURLEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	auth, err := authenticate(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	var req OCRURLRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeErr(w, r, invalidInput("body", "", "JSON object", "invalid request body: %v", err))
		return
	}
	if err := ocr.ValidateURL(req.URL); err != nil {
		writeErr(w, r, err)
		return
	}

	job := ocrJob{auth: auth, includeImages: true, includeMetadata: true}
	if job.shape, err = ocr.ParseShape(req.Format); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.ExtractImages != nil {
		job.includeImages = *req.ExtractImages
	}
	if req.IncludeMetadata != nil {
		job.includeMetadata = *req.IncludeMetadata
	}

	ft := ocr.TypeFromURL(req.URL)
	job.doc = providers.DocumentSource{URL: req.URL, MimeType: ft.MimeType, Name: urlFilename(req.URL)}
	job.source = ocr.Source{Type: ocr.SourceURL, Identifier: req.URL, MimeType: ft.MimeType}
	runOCR(w, r, job)
}

// urlFilename is the last path segment of raw, or "document".
func urlFilename(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "document"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "document"
	}
	return name
}

func (e *OCRURLEndpoint) Command(getServerURL func() string) *cobra.Command {
	var key, format, out string
	var images, metadata bool
	cmd := &cobra.Command{
		Use:   "process-url URL",
		Short: "Run OCR on a document the server fetches by URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := OCRURLRequest{URL: args[0], ExtractImages: &images, IncludeMetadata: &metadata, Format: format}
			client := api.NewClient(getServerURL()).WithAPIKey(key)
			var resp map[string]any
			if err := client.Post(cmd.Context(), "/api/ocr/process-url", req, &resp); err != nil {
				return err
			}
			if out != "" {
				return api.OutputToFile(resp, out)
			}
			return api.Output(resp)
		},
	}
	apiKeyFlag(cmd, &key)
	cmd.Flags().StringVar(&format, "format", "enhanced", "Response format: enhanced or official")
	cmd.Flags().BoolVar(&images, "extract-images", true, "Include base64 images")
	cmd.Flags().BoolVar(&metadata, "include-metadata", true, "Include document metadata")
	cmd.Flags().StringVar(&out, "out", "", "Write the response to a file (.json or .yaml)")
	return cmd
}
