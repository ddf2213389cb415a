package endpoints

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/n8ntools/internal/api"
	"github.com/jackzampolin/n8ntools/internal/pdfops"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
)

// MergeEndpoint handles POST /api/pdf/merge.
type MergeEndpoint struct{}

var _ api.Endpoint = (*MergeEndpoint)(nil)

func (e *MergeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/pdf/merge", e.handler
}

func (e *MergeEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Merge PDFs
//	@Description	Combines 2 to pdf.max_merge_sources PDFs by appending or interleaving pages.
//	@Description	selections is a JSON object keyed by source index, e.g. {"0": {"pages": [1,3]}, "1": {"ranges": "2-4"}}.
//	@Tags			pdf
//	@Accept			mpfd
//	@Produce		application/pdf
//	@Param			files				formData	file	true	"PDF files in merge order (repeat the field)"
//	@Param			strategy			formData	string	false	"append (default) or interleave"
//	@Param			selections			formData	string	false	"Per-source page selections as JSON"
//	@Param			preserve_metadata	formData	bool	false	"Copy the first source's title, author, subject, keywords and creator"
//	@Param			output_name			formData	string	false	"Name of the merged file"
//	@Success		200					{file}		binary
//	@Failure		400					{object}	ErrorResponse
//	@Failure		413					{object}	ErrorResponse
//	@Failure		422					{object}	ErrorResponse
//	@Failure		503					{object}	ErrorResponse
//	@Router			/api/pdf/merge [post]
func (e *MergeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	svc := svcctx.PDFFrom(r.Context())
	if svc == nil {
		writeErr(w, r, errUnavailable)
		return
	}

	if err := parseUploadForm(w, r, svc.MaxSources()); err != nil {
		writeErr(w, r, err)
		return
	}

	strategy, err := pdfops.ParseStrategy(strings.ToLower(strings.TrimSpace(r.FormValue("strategy"))))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	selections, err := pdfops.ParseSelections([]byte(r.FormValue("selections")))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	preserve, err := formBool(r, "preserve_metadata", false)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	uploads, err := formFiles(r, "files")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	sources := make([]*pdfops.SourceDocument, 0, len(uploads))
	sourcePages := 0
	for _, u := range uploads {
		src, err := openPDF(r.Context(), u)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		sources = append(sources, src)
		sourcePages += src.PageCount()
	}

	var result *pdfops.MergeResult
	err = runJob(r, requestTimeout(r), func(ctx context.Context) error {
		var err error
		result, err = svc.Merge(ctx, sources, pdfops.MergeSpec{
			Strategy:         strategy,
			Selections:       selections,
			PreserveMetadata: preserve,
		})
		return err
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}

	name := mergeOutputName(r.FormValue("output_name"))
	svcctx.LoggerFrom(r.Context()).Info("pdf merge",
		"strategy", strategy,
		"sources", result.Sources,
		"pages", result.TotalPages,
		"output", name)

	writeFile(w, "application/pdf", name, result.Data, fileHeaders{
		FileCount:   result.Sources,
		SourcePages: sourcePages,
		TotalPages:  result.TotalPages,
		Elapsed:     time.Since(start),
	})
}

// mergeOutputName sanitizes output_name and ensures a .pdf extension.
func mergeOutputName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".pdf")
	name = strings.TrimSuffix(name, ".PDF")
	if name == "" {
		name = "merged"
	}
	return pdfops.SanitizePrefix(name) + ".pdf"
}

func (e *MergeEndpoint) Command(getServerURL func() string) *cobra.Command {
	var strategy, selections, outputName, out string
	var preserve bool
	cmd := &cobra.Command{
		Use:   "merge FILE FILE [FILE...]",
		Short: "Merge PDFs into one document",
		Long: `Merge PDFs into one document.

Files are merged in argument order. --selections restricts sources to some
of their pages, keyed by zero-based source index:

  n8ntools api pdf merge a.pdf b.pdf --strategy interleave \
    --selections '{"0": {"ranges": "1-4"}, "1": {"pages": [4, 3, 2, 1]}}'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := api.Form{Fields: map[string]string{
				"strategy":          strategy,
				"preserve_metadata": strconv.FormatBool(preserve),
			}}
			if selections != "" {
				if strings.HasPrefix(selections, "@") {
					data, err := os.ReadFile(selections[1:])
					if err != nil {
						return err
					}
					selections = string(data)
				}
				form.Fields["selections"] = selections
			}
			if outputName != "" {
				form.Fields["output_name"] = outputName
			}
			for _, path := range args {
				form.Files = append(form.Files, api.FormFile{Field: "files", Path: path})
			}
			client := api.NewClient(getServerURL())
			dl, err := client.DownloadForm(cmd.Context(), "/api/pdf/merge", form, out)
			if err != nil {
				return err
			}
			return api.Output(dl)
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "append", "append or interleave")
	cmd.Flags().StringVar(&selections, "selections", "", "Per-source page selections as JSON, or @file")
	cmd.Flags().BoolVar(&preserve, "preserve-metadata", false, "Keep the first source's title, author, subject, keywords and creator")
	cmd.Flags().StringVar(&outputName, "output-name", "", "Name of the merged file on the server side")
	cmd.Flags().StringVar(&out, "out", "", "Where to save the merged PDF (file or directory)")
	return cmd
}
