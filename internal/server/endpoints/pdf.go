package endpoints

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/n8ntools/internal/api"
	"github.com/jackzampolin/n8ntools/internal/pdfops"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
)

// PDFServiceResponse describes the PDF service.
type PDFServiceResponse struct {
	Service          string   `json:"service"`
	Status           string   `json:"status"`
	Operations       []string `json:"operations"`
	MaxFileSizeMB    int      `json:"max_file_size_mb"`
	MaxMergeSources  int      `json:"max_merge_sources"`
	DefaultBatchSize int      `json:"default_batch_size"`
	SupportedFormats []string `json:"supported_formats"`
}

// PDFStatusEndpoint handles GET /api/pdf.
type PDFStatusEndpoint struct{}

var _ api.Endpoint = (*PDFStatusEndpoint)(nil)

func (e *PDFStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/pdf", e.handler
}

func (e *PDFStatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		PDF service status
//	@Tags			pdf
//	@Produce		json
//	@Success		200	{object}	PDFServiceResponse
//	@Router			/api/pdf [get]
func (e *PDFStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cfg := svcctx.ConfigFrom(r.Context())
	writeJSON(w, http.StatusOK, PDFServiceResponse{
		Service: "PDF Operations",
		Status:  "ready",
		Operations: []string{
			"split/ranges - Split PDF by page ranges",
			"split/pages - Split PDF into single pages",
			"split/batch - Split PDF into fixed-size batches",
			"merge - Combine multiple PDFs",
			"metadata - Extract PDF metadata",
		},
		MaxFileSizeMB:    cfg.Server.MaxUploadMB,
		MaxMergeSources:  cfg.PDF.MaxMergeSources,
		DefaultBatchSize: cfg.PDF.DefaultBatchSize,
		SupportedFormats: []string{"pdf"},
	})
}

func (e *PDFStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show PDF service status and limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PDFServiceResponse
			if err := client.Get(cmd.Context(), "/api/pdf", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// PDFFileInfo describes an uploaded PDF.
type PDFFileInfo struct {
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
	SizeBytes   int     `json:"size_bytes"`
	SizeMB      float64 `json:"size_mb"`
	PageCount   int     `json:"page_count"`
}

func newPDFFileInfo(u *upload, src *pdfops.SourceDocument) PDFFileInfo {
	ct := u.ContentType
	if ct == "" {
		ct = "application/pdf"
	}
	return PDFFileInfo{
		Filename:    u.Filename,
		ContentType: ct,
		SizeBytes:   len(u.Data),
		SizeMB:      math.Round(float64(len(u.Data))/(1<<20)*100) / 100,
		PageCount:   src.PageCount(),
	}
}

// PDFFileResponse is returned by validate and info.
type PDFFileResponse struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	FileInfo PDFFileInfo `json:"file_info"`
}

// readPDF reads the upload in "file" and opens it.
func readPDF(w http.ResponseWriter, r *http.Request) (*upload, *pdfops.SourceDocument, error) {
	if err := parseUploadForm(w, r, 1); err != nil {
		return nil, nil, err
	}
	u, err := formFile(r, "file")
	if err != nil {
		return nil, nil, err
	}
	src, err := openPDF(r.Context(), u)
	if err != nil {
		return nil, nil, err
	}
	return u, src, nil
}

// openPDF checks the upload looks like a PDF before handing it to the codec.
func openPDF(ctx context.Context, u *upload) (*pdfops.SourceDocument, error) {
	if len(u.Data) == 0 {
		return nil, invalidInput("file", u.Filename, "", "%s is empty", u.Filename)
	}
	if !strings.EqualFold(filepath.Ext(u.Filename), ".pdf") {
		return nil, invalidInput("file", u.Filename, ".pdf", "%s is not a PDF file", u.Filename)
	}
	if !bytes.HasPrefix(u.Data, []byte("%PDF")) {
		return nil, fmt.Errorf("%s: %w: missing PDF header", u.Filename, pdfops.ErrUnreadableDocument)
	}
	svc := svcctx.PDFFrom(ctx)
	if svc == nil {
		return nil, fmt.Errorf("%w: pdf service", errUnavailable)
	}
	return svc.Open(u.Filename, u.Data)
}

// PDFValidateEndpoint handles POST /api/pdf/validate.
type PDFValidateEndpoint struct{}

var _ api.Endpoint = (*PDFValidateEndpoint)(nil)

func (e *PDFValidateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pdf/validate", e.handler
}

func (e *PDFValidateEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Validate a PDF
//	@Description	Checks that the upload parses as a PDF without processing it
//	@Tags			pdf
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"PDF file"
//	@Success		200		{object}	PDFFileResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Router			/api/pdf/validate [post]
func (e *PDFValidateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	u, src, err := readPDF(w, r)
	if err != nil {
		if statusFor(err) == http.StatusUnprocessableEntity {
			// Validation reports an unreadable file as plain invalid input.
			err = invalidInput("file", "", "", "PDF validation failed: %v", err)
		}
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PDFFileResponse{
		Status:   "valid",
		Message:  "PDF file is valid and ready for processing",
		FileInfo: newPDFFileInfo(u, src),
	})
}

func (e *PDFValidateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that a file is a readable PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PDFFileResponse
			form := api.Form{Files: []api.FormFile{{Field: "file", Path: args[0]}}}
			if err := client.PostForm(cmd.Context(), "/api/pdf/validate", form, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// PDFInfoEndpoint handles POST /api/pdf/info.
type PDFInfoEndpoint struct{}

var _ api.Endpoint = (*PDFInfoEndpoint)(nil)

func (e *PDFInfoEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pdf/info", e.handler
}

func (e *PDFInfoEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		PDF file information
//	@Tags			pdf
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"PDF file"
//	@Success		200		{object}	PDFFileResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/pdf/info [post]
func (e *PDFInfoEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	u, src, err := readPDF(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PDFFileResponse{
		Status:   "success",
		Message:  "File information retrieved successfully",
		FileInfo: newPDFFileInfo(u, src),
	})
}

func (e *PDFInfoEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Show size and page count of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PDFFileResponse
			form := api.Form{Files: []api.FormFile{{Field: "file", Path: args[0]}}}
			if err := client.PostForm(cmd.Context(), "/api/pdf/info", form, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// PDFMetadataResponse is the document information plus timing.
type PDFMetadataResponse struct {
	Status           string  `json:"status"`
	Message          string  `json:"message"`
	Filename         string  `json:"filename"`
	ProcessingTimeMS float64 `json:"processing_time_ms"`
	pdfops.DocumentInfo `yaml:",inline"`
}

// PDFMetadataEndpoint handles POST /api/pdf/metadata.
type PDFMetadataEndpoint struct{}

var _ api.Endpoint = (*PDFMetadataEndpoint)(nil)

func (e *PDFMetadataEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pdf/metadata", e.handler
}

func (e *PDFMetadataEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Extract PDF metadata
//	@Description	Page count, version, encryption, information dictionary and first page size
//	@Tags			pdf
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"PDF file"
//	@Success		200		{object}	PDFMetadataResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/pdf/metadata [post]
func (e *PDFMetadataEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	u, src, err := readPDF(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	info, err := svcctx.PDFFrom(r.Context()).Info(src)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PDFMetadataResponse{
		Status:           "success",
		Message:          "Metadata extracted successfully",
		Filename:         u.Filename,
		ProcessingTimeMS: msSince(start),
		DocumentInfo:     info,
	})
}

func (e *PDFMetadataEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata FILE",
		Short: "Extract metadata from a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PDFMetadataResponse
			form := api.Form{Files: []api.FormFile{{Field: "file", Path: args[0]}}}
			if err := client.PostForm(cmd.Context(), "/api/pdf/metadata", form, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
