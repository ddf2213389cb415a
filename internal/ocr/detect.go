package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/url"
	"path"
	"strings"
)

var (
	// ErrInvalidFormat is returned for an unknown response format.
	ErrInvalidFormat = errors.New("invalid response format")

	// ErrEmptyFile is returned for a zero-byte upload.
	ErrEmptyFile = errors.New("empty file uploaded")

	// ErrFileTooLarge is returned when an upload exceeds the limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnsupportedType is returned when the content is not a PDF or a
	// supported image.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrInvalidURL is returned for URLs that are not absolute http(s).
	ErrInvalidURL = errors.New("invalid document URL")
)

// FileType is a detected document type.
type FileType struct {
	Extension string `json:"extension"`
	MimeType  string `json:"mime_type"`
}

// IsImage reports whether the type is a raster image.
func (t FileType) IsImage() bool {
	return strings.HasPrefix(t.MimeType, "image/")
}

var (
	TypePDF  = FileType{Extension: "pdf", MimeType: "application/pdf"}
	TypePNG  = FileType{Extension: "png", MimeType: "image/png"}
	TypeJPEG = FileType{Extension: "jpeg", MimeType: "image/jpeg"}
	TypeTIFF = FileType{Extension: "tiff", MimeType: "image/tiff"}
)

// SupportedTypes lists the accepted inputs.
var SupportedTypes = []FileType{TypePDF, TypePNG, TypeJPEG, TypeTIFF}

// DetectType identifies data by its magic bytes. Content types and file
// extensions sent by clients are not trusted.
func DetectType(data []byte) (FileType, error) {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return TypePDF, nil
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return TypePNG, nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return TypeJPEG, nil
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return TypeTIFF, nil
	}
	return FileType{}, fmt.Errorf("%w: expected PDF, PNG, JPEG or TIFF", ErrUnsupportedType)
}

// TypeFromURL guesses the type from the URL path extension. Unknown
// extensions are treated as PDF.
func TypeFromURL(raw string) FileType {
	u, err := url.Parse(raw)
	if err != nil {
		return TypePDF
	}
	switch strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), ".")) {
	case "png":
		return TypePNG
	case "jpg", "jpeg":
		return TypeJPEG
	case "tif", "tiff":
		return TypeTIFF
	}
	return TypePDF
}

// FileInfo describes a validated upload.
type FileInfo struct {
	Filename     string   `json:"filename"`
	SizeBytes    int      `json:"size_bytes"`
	SizeMB       float64  `json:"size_mb"`
	DetectedType FileType `json:"detected_type"`
}

// ValidateUpload checks size and type. A PDF must also carry an EOF marker.
func ValidateUpload(filename string, data []byte, maxBytes int64) (FileInfo, error) {
	info := FileInfo{
		Filename:  filename,
		SizeBytes: len(data),
		SizeMB:    math.Round(float64(len(data))/(1<<20)*100) / 100,
	}
	if len(data) == 0 {
		return info, ErrEmptyFile
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return info, fmt.Errorf("%w: %d bytes exceeds the %d MB limit", ErrFileTooLarge, len(data), maxBytes>>20)
	}
	ft, err := DetectType(data)
	if err != nil {
		return info, err
	}
	if ft == TypePDF && !bytes.Contains(data, []byte("%%EOF")) {
		return info, fmt.Errorf("%w: PDF is missing its EOF marker", ErrUnsupportedType)
	}
	info.DetectedType = ft
	return info, nil
}

// ValidateURL accepts absolute http and https URLs.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}
