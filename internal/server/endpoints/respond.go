package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackzampolin/n8ntools/internal/config"
	"github.com/jackzampolin/n8ntools/internal/ocr"
	"github.com/jackzampolin/n8ntools/internal/pdfops"
	"github.com/jackzampolin/n8ntools/internal/providers"
	"github.com/jackzampolin/n8ntools/internal/qdrant"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
)

var (
	// errBusy is returned when no job slot frees up before the deadline.
	errBusy = errors.New("server at capacity, retry later")

	// errUploadTooLarge is returned for uploads over server.max_upload_mb.
	errUploadTooLarge = errors.New("upload too large")

	// errUnavailable is returned when a service the endpoint needs is missing.
	errUnavailable = errors.New("service not available")
)

// inputError is a request problem found by the handler itself, before any
// service is called.
type inputError struct {
	Param string
	Value string
	Valid string
	Msg   string
}

func (e *inputError) Error() string { return e.Msg }

func invalidInput(param, value, valid, format string, args ...any) error {
	return &inputError{Param: param, Value: value, Valid: valid, Msg: fmt.Sprintf(format, args...)}
}

// ErrorResponse is the body of every error reply. Empty fields are omitted.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Operation string `json:"operation,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Value     string `json:"value,omitempty"`
	Valid     string `json:"valid,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse classifies err and returns the status to send with it.
func NewErrorResponse(err error, requestID string) (int, ErrorResponse) {
	status := statusFor(err)
	resp := ErrorResponse{
		Error:     err.Error(),
		Code:      codeFor(err),
		Kind:      kindFor(err, status),
		RequestID: requestID,
	}

	var pe *pdfops.Error
	var ie *inputError
	switch {
	case errors.As(err, &pe):
		resp.Operation = pe.Op
		resp.Parameter = pe.Param
		resp.Value = pe.Value
		resp.Valid = pe.Valid
	case errors.As(err, &ie):
		resp.Parameter = ie.Param
		resp.Value = ie.Value
		resp.Valid = ie.Valid
	}
	return status, resp
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	var apiErr *providers.APIError
	var ie *inputError

	switch {
	case errors.As(err, &maxErr), errors.Is(err, errUploadTooLarge),
		errors.Is(err, ocr.ErrFileTooLarge), errors.Is(err, providers.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, providers.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &ie):
		return http.StatusBadRequest
	}

	switch pdfops.KindOf(err) {
	case pdfops.KindValidation:
		return http.StatusBadRequest
	case pdfops.KindUnreadable:
		return http.StatusUnprocessableEntity
	case pdfops.KindInternal:
		return http.StatusInternalServerError
	}

	switch {
	case errors.Is(err, ocr.ErrMissingAPIKey), errors.Is(err, ocr.ErrMalformedAPIKey),
		errors.Is(err, providers.ErrAuthentication), errors.Is(err, providers.ErrNoAPIKey),
		errors.Is(err, qdrant.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ocr.ErrKeyRateLimited), errors.Is(err, providers.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, qdrant.ErrCollectionExists):
		return http.StatusConflict
	case errors.Is(err, qdrant.ErrNotFound), errors.Is(err, config.ErrUnknownKey):
		return http.StatusNotFound
	case errors.Is(err, qdrant.ErrUnreachable), errors.As(err, &apiErr), errors.Is(err, qdrant.ErrBadRequest):
		return http.StatusBadGateway
	case errors.Is(err, qdrant.ErrInvalidRequest),
		errors.Is(err, ocr.ErrEmptyFile), errors.Is(err, ocr.ErrUnsupportedType),
		errors.Is(err, ocr.ErrInvalidURL), errors.Is(err, ocr.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, providers.ErrNotConfigured), errors.Is(err, errUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

var errorCodes = []struct {
	err  error
	code string
}{
	{pdfops.ErrEmptySpecification, "empty_specification"},
	{pdfops.ErrInvalidRangeSyntax, "invalid_range_syntax"},
	{pdfops.ErrRangeOutOfBounds, "range_out_of_bounds"},
	{pdfops.ErrInvalidRangeOrder, "invalid_range_order"},
	{pdfops.ErrInvalidBatchSize, "invalid_batch_size"},
	{pdfops.ErrEmptyDocument, "empty_document"},
	{pdfops.ErrPageIndexInvalid, "page_index_invalid"},
	{pdfops.ErrTooFewSources, "too_few_sources"},
	{pdfops.ErrTooManySources, "too_many_sources"},
	{pdfops.ErrPageSelectionOutOfBounds, "page_selection_out_of_bounds"},
	{pdfops.ErrUnknownStrategy, "unknown_strategy"},
	{pdfops.ErrInvalidSelection, "invalid_selection"},
	{pdfops.ErrArchiveCollision, "archive_collision"},
	{pdfops.ErrPartitionInconsistent, "partition_inconsistent"},
	{pdfops.ErrUnreadableDocument, "unreadable_document"},
	{errBusy, "at_capacity"},
	{errUploadTooLarge, "upload_too_large"},
	{ocr.ErrFileTooLarge, "upload_too_large"},
	{ocr.ErrMissingAPIKey, "missing_api_key"},
	{ocr.ErrMalformedAPIKey, "invalid_api_key_format"},
	{ocr.ErrKeyRateLimited, "rate_limit_exceeded"},
	{ocr.ErrEmptyFile, "empty_file"},
	{ocr.ErrUnsupportedType, "unsupported_file_type"},
	{ocr.ErrInvalidURL, "invalid_url"},
	{ocr.ErrInvalidFormat, "invalid_format"},
	{providers.ErrAuthentication, "authentication_failed"},
	{providers.ErrNoAPIKey, "missing_api_key"},
	{providers.ErrRateLimited, "upstream_rate_limited"},
	{providers.ErrTimeout, "upstream_timeout"},
	{providers.ErrDocumentTooLarge, "document_too_large"},
	{providers.ErrNotConfigured, "provider_not_configured"},
	{qdrant.ErrInvalidRequest, "invalid_request"},
	{qdrant.ErrCollectionExists, "collection_exists"},
	{qdrant.ErrNotFound, "collection_not_found"},
	{qdrant.ErrUnauthorized, "qdrant_unauthorized"},
	{qdrant.ErrUnreachable, "qdrant_unreachable"},
	{qdrant.ErrBadRequest, "qdrant_rejected"},
	{config.ErrUnknownKey, "unknown_setting"},
	{context.DeadlineExceeded, "timeout"},
}

func codeFor(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	var ie *inputError
	if errors.As(err, &ie) {
		return "invalid_input"
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return "upload_too_large"
	}
	return ""
}

func kindFor(err error, status int) string {
	if k := pdfops.KindOf(err); k != pdfops.KindUnknown {
		return k.String()
	}
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return "validation"
	case http.StatusUnauthorized:
		return "authentication"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return "upstream"
	case http.StatusServiceUnavailable:
		return "unavailable"
	}
	return "internal"
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeErr classifies err, logs it and writes the error response.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := NewErrorResponse(err, svcctx.RequestIDFrom(r.Context()))
	logger := svcctx.LoggerFrom(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	if status == http.StatusTooManyRequests {
		retry := 60
		if rl, ok := providers.IsRateLimitError(err); ok && rl.RetryAfter > 0 {
			retry = int(rl.RetryAfter.Seconds())
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
	}
	writeJSON(w, status, resp)
}

// fileHeaders carries the summary headers of a binary response.
type fileHeaders struct {
	FileCount   int
	SourcePages int
	TotalPages  int
	Elapsed     time.Duration
}

// writeFile sends data as an attachment named filename.
func writeFile(w http.ResponseWriter, contentType, filename string, data []byte, h fileHeaders) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-File-Count", strconv.Itoa(h.FileCount))
	w.Header().Set("X-Source-Pages", strconv.Itoa(h.SourcePages))
	w.Header().Set("X-Total-Pages", strconv.Itoa(h.TotalPages))
	w.Header().Set("X-Processing-Time-Ms", strconv.FormatInt(h.Elapsed.Milliseconds(), 10))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// upload is one file read from a multipart request.
type upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// multipart parts above this size spill to temp files.
const formMemory = 32 << 20

// parseUploadForm parses a multipart body of at most files uploads of
// server.max_upload_mb each.
func parseUploadForm(w http.ResponseWriter, r *http.Request, files int) error {
	maxBytes := svcctx.ConfigFrom(r.Context()).Server.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes*int64(files)+1<<20)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		if isTooLarge(err) {
			return fmt.Errorf("%w: request body exceeds %d MB", errUploadTooLarge, maxBytes*int64(files)>>20)
		}
		return invalidInput("", "", "multipart/form-data", "failed to parse form: %v", err)
	}
	return nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// formFile reads the single upload in field.
func formFile(r *http.Request, field string) (*upload, error) {
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, invalidInput(field, "", "", "no file uploaded in field %q", field)
	}
	return readUpload(r, files[0])
}

// formFiles reads every upload in field, in request order.
func formFiles(r *http.Request, field string) ([]*upload, error) {
	headers := r.MultipartForm.File[field]
	uploads := make([]*upload, 0, len(headers))
	for _, fh := range headers {
		u, err := readUpload(r, fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func readUpload(r *http.Request, fh *multipart.FileHeader) (*upload, error) {
	maxBytes := svcctx.ConfigFrom(r.Context()).Server.MaxUploadBytes()
	if fh.Size > maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d MB", errUploadTooLarge, fh.Filename, fh.Size, maxBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return &upload{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}

// formInt reads an optional integer field.
func formInt(r *http.Request, field string, def int) (int, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalidInput(field, v, "integer", "%s must be an integer", field)
	}
	return n, nil
}

// formBool reads an optional boolean field.
func formBool(r *http.Request, field string, def bool) (bool, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, invalidInput(field, v, "true, false", "%s must be a boolean", field)
	}
	return b, nil
}

// runJob holds a job slot while fn runs. With a positive timeout fn's
// context carries that deadline, which also bounds the wait for a slot.
func runJob(r *http.Request, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx := r.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if jobs := svcctx.JobsFrom(ctx); jobs != nil {
		if err := jobs.Acquire(ctx, 1); err != nil {
			return errBusy
		}
		defer jobs.Release(1)
	}

	if err := fn(ctx); err != nil {
		if ctx.Err() == context.DeadlineExceeded && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return err
	}
	return nil
}

// requestTimeout is limits.request_timeout_seconds for this request.
func requestTimeout(r *http.Request) time.Duration {
	return svcctx.ConfigFrom(r.Context()).Limits.RequestTimeout()
}

// msSince is the elapsed time in milliseconds, rounded to two decimals.
func msSince(start time.Time) float64 {
	return math.Round(float64(time.Since(start).Microseconds())/10) / 100
}
