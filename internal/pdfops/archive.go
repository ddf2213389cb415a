package pdfops

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Unit names the kind of split an archive was built from.
type Unit string

const (
	UnitRange Unit = "ranges"
	UnitPage  Unit = "pages"
	UnitBatch Unit = "batches"
)

// DefaultPrefix is used when no usable prefix can be derived.
const DefaultPrefix = "document"

const maxPrefixLen = 50

// entryModified is stamped on every archive entry so identical input gives
// identical archive bytes.
var entryModified = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// SanitizePrefix keeps [A-Za-z0-9._-], truncates to 50 characters and
// falls back to DefaultPrefix.
func SanitizePrefix(prefix string) string {
	var b strings.Builder
	for _, c := range prefix {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
			b.WriteRune(c)
		case c == ' ':
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "._-")
	if len(out) > maxPrefixLen {
		out = strings.TrimRight(out[:maxPrefixLen], "._-")
	}
	if out == "" {
		return DefaultPrefix
	}
	return out
}

// PrefixFromFilename derives a prefix from an uploaded file's name.
func PrefixFromFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	return SanitizePrefix(strings.TrimSuffix(base, filepath.Ext(base)))
}

// EntryName returns the archive filename of output number (1-based) out of
// total outputs.
func EntryName(prefix string, unit Unit, number, total int, label string) string {
	switch unit {
	case UnitPage:
		return fmt.Sprintf("%s_page_%s.pdf", prefix, pad(number, total, 3))
	case UnitBatch:
		return fmt.Sprintf("%s_batch%s_pages_%s.pdf", prefix, pad(number, total, 2), label)
	default:
		return fmt.Sprintf("%s_part%s_pages_%s.pdf", prefix, pad(number, total, 2), label)
	}
}

// ArchiveName returns the ZIP filename for a split.
func ArchiveName(prefix string, unit Unit) string {
	return prefix + "_" + string(unit) + ".zip"
}

func pad(n, total, minWidth int) string {
	width := max(len(strconv.Itoa(total)), minWidth)
	return fmt.Sprintf("%0*d", width, n)
}

// ArchiveEntry is one named file in an archive.
type ArchiveEntry struct {
	Name string
	Data []byte
}

// BuildArchive writes entries, in order, into an in-memory ZIP.
// Duplicate names return ErrArchiveCollision.
func BuildArchive(entries []ArchiveEntry) ([]byte, error) {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Name]; dup {
			return nil, newError("build archive", "entry", e.Name, "unique names", ErrArchiveCollision)
		}
		seen[e.Name] = struct{}{}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Deflate,
			Modified: entryModified,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("failed to write archive entry %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// OutputSummary describes one document inside a split archive.
type OutputSummary struct {
	Number    int    `json:"number"`
	Label     string `json:"label"`
	PageCount int    `json:"page_count"`
	Filename  string `json:"filename"`
	SizeBytes int    `json:"size_bytes"`
}

// SplitSummary reports what a split produced.
type SplitSummary struct {
	Unit             Unit            `json:"unit"`
	TotalPages       int             `json:"total_pages"`
	TotalOutputs     int             `json:"total_outputs"`
	Outputs          []OutputSummary `json:"outputs"`
	FileSizeMB       float64         `json:"file_size_mb"`
	ProcessingTimeMS int64           `json:"processing_time_ms"`
	ArchiveFilename  string          `json:"archive_filename"`
	ArchiveSizeBytes int             `json:"archive_size_bytes"`
}

// Archive is a finished split: ZIP bytes plus the summary describing them.
type Archive struct {
	Filename string
	Data     []byte
	Summary  SplitSummary
}

// Assemble names the outputs, builds the ZIP and its summary. Processing
// time is measured from started.
func Assemble(prefix string, unit Unit, src *SourceDocument, outputs []OutputDocument, started time.Time) (*Archive, error) {
	prefix = SanitizePrefix(prefix)

	entries := make([]ArchiveEntry, len(outputs))
	summaries := make([]OutputSummary, len(outputs))
	for i, out := range outputs {
		name := EntryName(prefix, unit, out.Number, len(outputs), out.Label)
		entries[i] = ArchiveEntry{Name: name, Data: out.Data}
		summaries[i] = OutputSummary{
			Number:    out.Number,
			Label:     out.Label,
			PageCount: len(out.Pages),
			Filename:  name,
			SizeBytes: len(out.Data),
		}
	}

	data, err := BuildArchive(entries)
	if err != nil {
		return nil, err
	}

	filename := ArchiveName(prefix, unit)
	return &Archive{
		Filename: filename,
		Data:     data,
		Summary:  NewSplitSummary(unit, src, summaries, filename, len(data), time.Since(started)),
	}, nil
}

// NewSplitSummary is the only way a SplitSummary is built.
func NewSplitSummary(unit Unit, src *SourceDocument, outputs []OutputSummary, archiveName string, archiveSize int, elapsed time.Duration) SplitSummary {
	if outputs == nil {
		outputs = []OutputSummary{}
	}
	return SplitSummary{
		Unit:             unit,
		TotalPages:       src.PageCount(),
		TotalOutputs:     len(outputs),
		Outputs:          outputs,
		FileSizeMB:       megabytes(src.Size()),
		ProcessingTimeMS: elapsed.Milliseconds(),
		ArchiveFilename:  archiveName,
		ArchiveSizeBytes: archiveSize,
	}
}
