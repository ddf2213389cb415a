package pdfops

import (
	"strconv"
)

// SourceDocument is a parsed input document. It is read-only for the
// lifetime of a request and owned by the caller that opened it.
type SourceDocument struct {
	name      string
	data      []byte
	pageCount int

	// state is codec-private (a parsed pdfcpu context for PDFCodec).
	state any
}

// NewSourceDocument is used by Codec implementations.
func NewSourceDocument(name string, data []byte, pageCount int, state any) *SourceDocument {
	return &SourceDocument{name: name, data: data, pageCount: pageCount, state: state}
}

func (d *SourceDocument) Name() string  { return d.name }
func (d *SourceDocument) PageCount() int { return d.pageCount }
func (d *SourceDocument) Bytes() []byte  { return d.data }
func (d *SourceDocument) Size() int      { return len(d.data) }
func (d *SourceDocument) State() any     { return d.state }

// PageRange is a 1-indexed inclusive span of pages.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Pages expands the range into explicit page numbers.
func (r PageRange) Pages() []int {
	pages := make([]int, 0, r.End-r.Start+1)
	for p := r.Start; p <= r.End; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Label renders "5" for a single page and "1-3" otherwise.
func (r PageRange) Label() string {
	return rangeLabel(r.Start, r.End)
}

func rangeLabel(start, end int) string {
	if start == end {
		return strconv.Itoa(start)
	}
	return strconv.Itoa(start) + "-" + strconv.Itoa(end)
}

// PageGroup is the ordered list of pages that make up one output document.
type PageGroup struct {
	Label string
	Pages []int
}

// OutputDocument is one produced document, held in memory.
type OutputDocument struct {
	Number int
	Label  string
	Pages  []int
	Data   []byte
}

// Metadata is the descriptive information block of a PDF.
type Metadata struct {
	Title        string            `json:"title"`
	Author       string            `json:"author"`
	Subject      string            `json:"subject"`
	Keywords     string            `json:"keywords"`
	Creator      string            `json:"creator"`
	Producer     string            `json:"producer"`
	CreationDate string            `json:"creation_date"`
	ModDate      string            `json:"modification_date"`
	Properties   map[string]string `json:"custom_properties,omitempty"`
}

// PageDimensions is a page size in points and inches.
type PageDimensions struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	WidthInches  float64 `json:"width_inches"`
	HeightInches float64 `json:"height_inches"`
}

// NewPageDimensions converts a point size (1/72 inch) into dimensions.
func NewPageDimensions(width, height float64) *PageDimensions {
	return &PageDimensions{
		Width:        round2(width),
		Height:       round2(height),
		WidthInches:  round2(width / 72),
		HeightInches: round2(height / 72),
	}
}

// DocumentInfo describes a source document without modifying it.
type DocumentInfo struct {
	PageCount      int             `json:"page_count"`
	FileSizeBytes  int             `json:"file_size_bytes"`
	FileSizeMB     float64         `json:"file_size_mb"`
	Encrypted      bool            `json:"encrypted"`
	Version        string          `json:"pdf_version"`
	Metadata       Metadata        `json:"metadata"`
	PageDimensions *PageDimensions `json:"page_dimensions"`
}

// Codec is the document library collaborator. Implementations must not
// mutate the source document.
type Codec interface {
	// Open parses data. Returns ErrUnreadableDocument on failure.
	Open(name string, data []byte) (*SourceDocument, error)

	// ExtractPages builds a new document holding pages of src in the given
	// order. Pages may repeat and need not be ascending.
	ExtractPages(src *SourceDocument, pages []int) ([]byte, error)

	// Concat joins complete documents in order.
	Concat(parts [][]byte) ([]byte, error)

	// Info reads the document's descriptive information.
	Info(src *SourceDocument) (DocumentInfo, error)

	// SetMetadata rewrites the information block of data. A nil meta clears
	// the descriptive fields.
	SetMetadata(data []byte, meta *Metadata) ([]byte, error)
}

func megabytes(n int) float64 {
	return round2(float64(n) / (1024 * 1024))
}

func round2(f float64) float64 {
	if f < 0 {
		return -round2(-f)
	}
	return float64(int64(f*100+0.5)) / 100
}
