package testutil

import (
	"bytes"
	"fmt"
)

// PDFOptions controls the document produced by BuildPDF.
type PDFOptions struct {
	Pages  int
	Title  string
	Author string
	// Tag is written before the page number on every page, so pages from
	// different test documents can be told apart ("A" gives "(A-1)").
	Tag string
	// Width and Height are the page size in points. Defaults to US Letter.
	Width, Height int
}

// MultiPagePDF returns a valid PDF with n Letter-sized pages. Page i shows
// the text "page-i".
func MultiPagePDF(n int) []byte {
	return BuildPDF(PDFOptions{Pages: n, Tag: "page"})
}

// PageMarker is the string literal BuildPDF writes on page of a document
// tagged tag.
func PageMarker(tag string, page int) string {
	return fmt.Sprintf("(%s-%d)", tag, page)
}

// BuildPDF writes a minimal but well-formed PDF 1.4 file with a correct
// cross-reference table.
func BuildPDF(opts PDFOptions) []byte {
	if opts.Pages < 1 {
		opts.Pages = 1
	}
	if opts.Tag == "" {
		opts.Tag = "page"
	}
	if opts.Width == 0 {
		opts.Width = 612
	}
	if opts.Height == 0 {
		opts.Height = 792
	}

	// Object layout: 1 catalog, 2 page tree, 3 font, 4 info, then a page
	// object and a content stream per page.
	const firstPage = 5
	objects := make([]string, 0, firstPage-1+2*opts.Pages)

	kids := new(bytes.Buffer)
	for i := 0; i < opts.Pages; i++ {
		fmt.Fprintf(kids, "%d 0 R ", firstPage+2*i)
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", bytes.TrimSpace(kids.Bytes()), opts.Pages),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Title (%s) /Author (%s) /Producer (n8ntools-test) >>", opts.Title, opts.Author),
	)
	for i := 0; i < opts.Pages; i++ {
		pageObj := firstPage + 2*i
		stream := fmt.Sprintf("BT /F1 24 Tf 72 700 Td %s Tj ET", PageMarker(opts.Tag, i+1))
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
				opts.Width, opts.Height, pageObj+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
