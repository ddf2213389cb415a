package endpoints

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/n8ntools/internal/api"
	"github.com/jackzampolin/n8ntools/internal/pdfops"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
)

// splitPrefix picks the archive prefix: the prefix field, then the upload
// name stem, then pdf.default_prefix.
func splitPrefix(r *http.Request, u *upload) string {
	if p := strings.TrimSpace(r.FormValue("prefix")); p != "" {
		return pdfops.SanitizePrefix(p)
	}
	if p := pdfops.PrefixFromFilename(u.Filename); p != pdfops.DefaultPrefix {
		return p
	}
	if p := svcctx.ConfigFrom(r.Context()).PDF.DefaultPrefix; p != "" {
		return pdfops.SanitizePrefix(p)
	}
	return pdfops.DefaultPrefix
}

// batchSize reads batch_size, defaulting to pdf.default_batch_size.
func batchSize(r *http.Request) (int, error) {
	def := svcctx.ConfigFrom(r.Context()).PDF.DefaultBatchSize
	return formInt(r, "batch_size", def)
}

// serveSplit runs split on the uploaded document under a job slot and
// streams the resulting archive.
func serveSplit(w http.ResponseWriter, r *http.Request, split func(ctx context.Context, svc *pdfops.Service, src *pdfops.SourceDocument, prefix string) (*pdfops.Archive, error)) {
	u, src, err := readPDF(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	svc := svcctx.PDFFrom(r.Context())
	prefix := splitPrefix(r, u)

	var archive *pdfops.Archive
	err = runJob(r, requestTimeout(r), func(ctx context.Context) error {
		var err error
		archive, err = split(ctx, svc, src, prefix)
		return err
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}

	svcctx.LoggerFrom(r.Context()).Info("pdf split",
		"unit", archive.Summary.Unit,
		"file", u.Filename,
		"pages", archive.Summary.TotalPages,
		"outputs", archive.Summary.TotalOutputs,
		"duration_ms", archive.Summary.ProcessingTimeMS)

	writeFile(w, "application/zip", archive.Filename, archive.Data, fileHeaders{
		FileCount:   archive.Summary.TotalOutputs,
		SourcePages: archive.Summary.TotalPages,
		TotalPages:  outputPages(archive.Summary),
		Elapsed:     msDuration(archive.Summary.ProcessingTimeMS),
	})
}

// outputPages counts pages across all outputs; repeated ranges count twice.
func outputPages(s pdfops.SplitSummary) int {
	n := 0
	for _, o := range s.Outputs {
		n += o.PageCount
	}
	return n
}

// splitCommand builds the CLI form shared by the split endpoints.
func splitCommand(getServerURL func() string, use, short, path string, fields func(cmd *cobra.Command) map[string]string, addFlags func(cmd *cobra.Command)) *cobra.Command {
	var prefix, out string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := api.Form{
				Fields: map[string]string{},
				Files:  []api.FormFile{{Field: "file", Path: args[0]}},
			}
			if fields != nil {
				form.Fields = fields(cmd)
			}
			if prefix != "" {
				form.Fields["prefix"] = prefix
			}
			client := api.NewClient(getServerURL())
			dl, err := client.DownloadForm(cmd.Context(), path, form, out)
			if err != nil {
				return err
			}
			return api.Output(dl)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Filename prefix for the archive entries (default: input file name)")
	cmd.Flags().StringVar(&out, "out", "", "Where to save the ZIP (file or directory, default: server filename)")
	if addFlags != nil {
		addFlags(cmd)
	}
	return cmd
}

// SplitRangesEndpoint handles POST /api/pdf/split/ranges.
type SplitRangesEndpoint struct{}

var _ api.Endpoint = (*SplitRangesEndpoint)(nil)

func (e *SplitRangesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pdf/split/ranges", e.handler
}

func (e *SplitRangesEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Split a PDF by page ranges
//	@Description	One output per range, in the order given. Ranges may repeat or overlap.
//	@Tags			pdf
//	@Accept			mpfd
//	@Produce		application/zip
//	@Param			file	formData	file	true	"PDF file"
//	@Param			ranges	formData	string	true	"Comma separated pages and ranges, e.g. 1-3,5,7-9"
//	@Param			prefix	formData	string	false	"Archive entry prefix"
//	@Success		200		{file}		binary
//	@Header			200		{integer}	X-File-Count			"Documents in the archive"
//	@Header			200		{integer}	X-Source-Pages			"Pages in the uploaded PDF"
//	@Header			200		{integer}	X-Total-Pages			"Pages across all outputs"
//	@Header			200		{integer}	X-Processing-Time-Ms	"Processing time"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Failure		504		{object}	ErrorResponse
//	@Router			/api/pdf/split/ranges [post]
func (e *SplitRangesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	serveSplit(w, r, func(ctx context.Context, svc *pdfops.Service, src *pdfops.SourceDocument, prefix string) (*pdfops.Archive, error) {
		return svc.SplitRanges(ctx, src, r.FormValue("ranges"), prefix)
	})
}

func (e *SplitRangesEndpoint) Command(getServerURL func() string) *cobra.Command {
	var ranges string
	cmd := splitCommand(getServerURL, "split-ranges FILE", "Split a PDF into one document per page range", "/api/pdf/split/ranges",
		func(cmd *cobra.Command) map[string]string {
			return map[string]string{"ranges": ranges}
		},
		func(cmd *cobra.Command) {
			cmd.Flags().StringVar(&ranges, "ranges", "", "Page ranges, e.g. 1-3,5,7-9")
			cmd.MarkFlagRequired("ranges")
		})
	return cmd
}

// SplitPagesEndpoint handles POST /api/pdf/split/pages.
type SplitPagesEndpoint struct{}

var _ api.Endpoint = (*SplitPagesEndpoint)(nil)

func (e *SplitPagesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pdf/split/pages", e.handler
}

func (e *SplitPagesEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Split a PDF into single pages
//	@Tags			pdf
//	@Accept			mpfd
//	@Produce		application/zip
//	@Param			file	formData	file	true	"PDF file"
//	@Param			prefix	formData	string	false	"Archive entry prefix"
//	@Success		200		{file}		binary
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/pdf/split/pages [post]
func (e *SplitPagesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	serveSplit(w, r, func(ctx context.Context, svc *pdfops.Service, src *pdfops.SourceDocument, prefix string) (*pdfops.Archive, error) {
		return svc.SplitPages(ctx, src, prefix)
	})
}

func (e *SplitPagesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return splitCommand(getServerURL, "split-pages FILE", "Split a PDF into single-page documents", "/api/pdf/split/pages", nil, nil)
}

// SplitBatchEndpoint handles POST /api/pdf/split/batch.
type SplitBatchEndpoint struct{}

var _ api.Endpoint = (*SplitBatchEndpoint)(nil)

func (e *SplitBatchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pdf/split/batch", e.handler
}

func (e *SplitBatchEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Split a PDF into fixed-size batches
//	@Description	Contiguous chunks of batch_size pages; the last batch may be shorter.
//	@Tags			pdf
//	@Accept			mpfd
//	@Produce		application/zip
//	@Param			file		formData	file	true	"PDF file"
//	@Param			batch_size	formData	int		false	"Pages per batch (default from pdf.default_batch_size)"
//	@Param			prefix		formData	string	false	"Archive entry prefix"
//	@Success		200			{file}		binary
//	@Failure		400			{object}	ErrorResponse
//	@Failure		413			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/api/pdf/split/batch [post]
func (e *SplitBatchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	serveSplit(w, r, func(ctx context.Context, svc *pdfops.Service, src *pdfops.SourceDocument, prefix string) (*pdfops.Archive, error) {
		size, err := batchSize(r)
		if err != nil {
			return nil, err
		}
		return svc.SplitBatches(ctx, src, size, prefix)
	})
}

func (e *SplitBatchEndpoint) Command(getServerURL func() string) *cobra.Command {
	var size int
	return splitCommand(getServerURL, "split-batch FILE", "Split a PDF into fixed-size batches", "/api/pdf/split/batch",
		func(cmd *cobra.Command) map[string]string {
			fields := map[string]string{}
			if cmd.Flags().Changed("batch-size") {
				fields["batch_size"] = strconv.Itoa(size)
			}
			return fields
		},
		func(cmd *cobra.Command) {
			cmd.Flags().IntVar(&size, "batch-size", 10, "Pages per batch")
		})
}

// BatchPreviewResponse wraps a batch plan.
type BatchPreviewResponse struct {
	Status   string            `json:"status"`
	Filename string            `json:"filename"`
	Plan     *pdfops.BatchPlan `json:"plan"`
}

// BatchPreviewEndpoint handles POST /api/pdf/split/batch/preview.
type BatchPreviewEndpoint struct{}

var _ api.Endpoint = (*BatchPreviewEndpoint)(nil)

func (e *BatchPreviewEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pdf/split/batch/preview", e.handler
}

func (e *BatchPreviewEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Preview a batch split
//	@Description	Batch boundaries and archive entry names a batch split would produce, without splitting
//	@Tags			pdf
//	@Accept			mpfd
//	@Produce		json
//	@Param			file		formData	file	true	"PDF file"
//	@Param			batch_size	formData	int		false	"Pages per batch"
//	@Param			prefix		formData	string	false	"Archive entry prefix"
//	@Success		200			{object}	BatchPreviewResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/api/pdf/split/batch/preview [post]
func (e *BatchPreviewEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	u, src, err := readPDF(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	size, err := batchSize(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	plan, err := svcctx.PDFFrom(r.Context()).PreviewBatches(src, size, splitPrefix(r, u))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BatchPreviewResponse{Status: "success", Filename: u.Filename, Plan: plan})
}

func (e *BatchPreviewEndpoint) Command(getServerURL func() string) *cobra.Command {
	var size int
	var prefix string
	cmd := &cobra.Command{
		Use:   "preview-batch FILE",
		Short: "Show how a batch split would divide a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := api.Form{
				Fields: map[string]string{},
				Files:  []api.FormFile{{Field: "file", Path: args[0]}},
			}
			if cmd.Flags().Changed("batch-size") {
				form.Fields["batch_size"] = strconv.Itoa(size)
			}
			if prefix != "" {
				form.Fields["prefix"] = prefix
			}
			client := api.NewClient(getServerURL())
			var resp BatchPreviewResponse
			if err := client.PostForm(cmd.Context(), "/api/pdf/split/batch/preview", form, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&size, "batch-size", 10, "Pages per batch")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Filename prefix for the archive entries")
	return cmd
}

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
