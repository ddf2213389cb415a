// Package ocr turns Mistral OCR results into the response bodies served by
// the OCR endpoints, and validates what callers send in.
package ocr

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackzampolin/n8ntools/internal/providers"
)

// ResponseShape selects the body returned by the OCR endpoints.
type ResponseShape int

const (
	// ShapeEnhanced is the n8n-friendly body with combined text, HTML and
	// processing info.
	ShapeEnhanced ResponseShape = iota
	// ShapeOfficial mirrors the Mistral OCR API response.
	ShapeOfficial
)

// ParseShape accepts "enhanced" (the default for "") and "official".
func ParseShape(s string) (ResponseShape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "enhanced":
		return ShapeEnhanced, nil
	case "official", "mistral":
		return ShapeOfficial, nil
	}
	return 0, fmt.Errorf("%w: format %q is not one of official, enhanced", ErrInvalidFormat, s)
}

func (s ResponseShape) String() string {
	if s == ShapeOfficial {
		return "official"
	}
	return "enhanced"
}

// SourceType records where the document came from.
type SourceType string

const (
	SourceFileUpload SourceType = "file_upload"
	SourceURL        SourceType = "url"
)

// Source describes the OCR input for response metadata.
type Source struct {
	Type       SourceType
	Identifier string // filename or URL
	MimeType   string
	SizeBytes  int
}

// Result is everything a response body is built from.
type Result struct {
	Response        *providers.OCRResponse
	Source          Source
	IncludeImages   bool
	IncludeMetadata bool
	Elapsed         time.Duration
	ProcessedAt     time.Time
}

// Render builds the response body for shape. The shape is chosen once by
// the caller; both constructors fill every field.
func Render(shape ResponseShape, r Result) any {
	switch shape {
	case ShapeOfficial:
		return NewOfficialResponse(r)
	default:
		return NewEnhancedResponse(r)
	}
}
