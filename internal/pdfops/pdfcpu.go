package pdfops

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFCodec implements Codec on pdfcpu.
type PDFCodec struct {
	conf *model.Configuration
}

var _ Codec = (*PDFCodec)(nil)

// NewPDFCodec returns a codec that reads documents in relaxed validation
// mode, which accepts the slightly malformed files most producers emit.
// Every document it writes is in canonical form, so the same input always
// produces the same bytes.
func NewPDFCodec() *PDFCodec {
	return &PDFCodec{conf: newConfiguration()}
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	// canonicalize works on classic cross-reference tables only.
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

func (c *PDFCodec) write(ctx *model.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("pdfcpu write: %w", err)
	}
	return canonicalForm(buf.Bytes())
}

func canonicalForm(data []byte) ([]byte, error) {
	out, err := canonicalize(data)
	if err != nil {
		return nil, fmt.Errorf("canonical form: %w", err)
	}
	return out, nil
}

func (c *PDFCodec) read(data []byte) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), c.conf)
	if err != nil {
		return nil, err
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, err
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, err
	}
	return ctx, nil
}

// Open parses data and counts its pages.
func (c *PDFCodec) Open(name string, data []byte) (*SourceDocument, error) {
	ctx, err := c.read(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, name, err)
	}
	if ctx.PageCount < 1 {
		return nil, newError("open", "file", name, "at least 1 page", ErrEmptyDocument)
	}
	return NewSourceDocument(name, data, ctx.PageCount, ctx), nil
}

func (c *PDFCodec) context(src *SourceDocument) (*model.Context, error) {
	if ctx, ok := src.State().(*model.Context); ok {
		return ctx, nil
	}
	return c.read(src.Bytes())
}

// ExtractPages extracts each ascending run of pages separately and joins
// the runs, so arbitrary orders and repeats come out as requested.
func (c *PDFCodec) ExtractPages(src *SourceDocument, pages []int) ([]byte, error) {
	if err := checkPages("extract", src.PageCount(), pages); err != nil {
		return nil, err
	}
	ctx, err := c.context(src)
	if err != nil {
		return nil, err
	}

	runs := ascendingRuns(pages)
	parts := make([][]byte, 0, len(runs))
	for _, run := range runs {
		out, err := pdfcpu.ExtractPages(ctx, run, false)
		if err != nil {
			return nil, fmt.Errorf("pdfcpu extract pages %v: %w", run, err)
		}
		data, err := c.write(out)
		if err != nil {
			return nil, err
		}
		parts = append(parts, data)
	}
	return c.Concat(parts)
}

// Concat joins complete PDFs in order.
func (c *PDFCodec) Concat(parts [][]byte) ([]byte, error) {
	switch len(parts) {
	case 0:
		return nil, newError("concat", "parts", "0", "at least 1", ErrEmptyDocument)
	case 1:
		return parts[0], nil
	}

	readers := make([]io.ReadSeeker, len(parts))
	for i, p := range parts {
		readers[i] = bytes.NewReader(p)
	}
	// MergeRaw adjusts the configuration it is given.
	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, newConfiguration()); err != nil {
		return nil, fmt.Errorf("pdfcpu merge: %w", err)
	}
	return canonicalForm(buf.Bytes())
}

// Info reports page count, version, encryption, information dictionary and
// the size of the first page.
func (c *PDFCodec) Info(src *SourceDocument) (DocumentInfo, error) {
	ctx, err := c.context(src)
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	info := DocumentInfo{
		PageCount:     ctx.PageCount,
		FileSizeBytes: src.Size(),
		FileSizeMB:    megabytes(src.Size()),
		Encrypted:     ctx.Encrypt != nil,
		Metadata: Metadata{
			Title:        ctx.Title,
			Author:       ctx.Author,
			Subject:      ctx.Subject,
			Keywords:     ctx.Keywords,
			Creator:      ctx.Creator,
			Producer:     ctx.Producer,
			CreationDate: ctx.XRefTable.CreationDate,
			ModDate:      ctx.XRefTable.ModDate,
		},
	}
	if ctx.HeaderVersion != nil {
		info.Version = ctx.HeaderVersion.String()
	}
	if len(ctx.Properties) > 0 {
		info.Metadata.Properties = make(map[string]string, len(ctx.Properties))
		for k, v := range ctx.Properties {
			info.Metadata.Properties[k] = v
		}
	}

	dims, err := ctx.PageDims()
	if err == nil && len(dims) > 0 {
		info.PageDimensions = NewPageDimensions(dims[0].Width, dims[0].Height)
	}
	return info, nil
}

var descriptiveKeys = []string{"Title", "Author", "Subject", "Keywords", "Creator"}

// SetMetadata rewrites the descriptive entries of the info dictionary.
// The producer and date entries never survive a write; see canonicalize.
func (c *PDFCodec) SetMetadata(data []byte, meta *Metadata) ([]byte, error) {
	ctx, err := c.read(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	if ctx.Info == nil {
		ir, err := ctx.IndRefForNewObject(types.NewDict())
		if err != nil {
			return nil, fmt.Errorf("pdfcpu new info dict: %w", err)
		}
		ctx.Info = ir
	}
	d, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || d == nil {
		return nil, fmt.Errorf("pdfcpu info dict: %w", err)
	}

	for _, k := range descriptiveKeys {
		d.Delete(k)
	}
	// The parsed fields are kept in step with the dictionary since the
	// writer may consult either.
	if meta == nil {
		meta = &Metadata{}
	}
	ctx.Title, ctx.Author, ctx.Subject = meta.Title, meta.Author, meta.Subject
	ctx.Keywords, ctx.Creator = meta.Keywords, meta.Creator

	values := map[string]string{
		"Title":    meta.Title,
		"Author":   meta.Author,
		"Subject":  meta.Subject,
		"Keywords": meta.Keywords,
		"Creator":  meta.Creator,
	}
	for _, k := range descriptiveKeys {
		if v := values[k]; v != "" {
			d.Insert(k, types.StringLiteral(escapeLiteral(v)))
		}
	}

	return c.write(ctx)
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}
