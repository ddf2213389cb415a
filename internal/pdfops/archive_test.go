package pdfops

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestEntryName(t *testing.T) {
	tests := []struct {
		unit   Unit
		number int
		total  int
		label  string
		want   string
	}{
		{UnitRange, 1, 3, "1-3", "doc_part01_pages_1-3.pdf"},
		{UnitRange, 2, 3, "5", "doc_part02_pages_5.pdf"},
		{UnitPage, 7, 12, "7", "doc_page_007.pdf"},
		{UnitPage, 7, 1200, "7", "doc_page_0007.pdf"},
		{UnitBatch, 3, 3, "21-25", "doc_batch03_pages_21-25.pdf"},
		{UnitBatch, 3, 150, "21-30", "doc_batch003_pages_21-30.pdf"},
	}
	for _, tt := range tests {
		if got := EntryName("doc", tt.unit, tt.number, tt.total, tt.label); got != tt.want {
			t.Errorf("EntryName(%s, %d, %d) = %q, want %q", tt.unit, tt.number, tt.total, got, tt.want)
		}
	}
}

func TestSanitizePrefix(t *testing.T) {
	tests := map[string]string{
		"report":              "report",
		"Q3 results":          "Q3_results",
		"../../etc/passwd":    "etcpasswd",
		"":                    DefaultPrefix,
		"%%%":                 DefaultPrefix,
		strings.Repeat("a", 80): strings.Repeat("a", 50),
	}
	for in, want := range tests {
		if got := SanitizePrefix(in); got != want {
			t.Errorf("SanitizePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrefixFromFilename(t *testing.T) {
	tests := map[string]string{
		"invoice.pdf":             "invoice",
		"/tmp/upload/scan 01.pdf": "scan_01",
		`C:\docs\contract.PDF`:    "contract",
		"":                        DefaultPrefix,
	}
	for in, want := range tests {
		if got := PrefixFromFilename(in); got != want {
			t.Errorf("PrefixFromFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		out[f.Name] = string(b)
	}
	return out
}

func TestBuildArchive(t *testing.T) {
	entries := []ArchiveEntry{
		{Name: "a.pdf", Data: []byte("first")},
		{Name: "b.pdf", Data: []byte("second")},
	}
	data, err := BuildArchive(entries)
	if err != nil {
		t.Fatal(err)
	}
	files := readZip(t, data)
	if files["a.pdf"] != "first" || files["b.pdf"] != "second" {
		t.Errorf("archive contents = %v", files)
	}

	again, err := BuildArchive(entries)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Error("identical entries should produce identical archives")
	}
}

func TestBuildArchive_Collision(t *testing.T) {
	_, err := BuildArchive([]ArchiveEntry{{Name: "x.pdf"}, {Name: "x.pdf"}})
	if !errors.Is(err, ErrArchiveCollision) {
		t.Fatalf("error = %v, want ErrArchiveCollision", err)
	}
	if KindOf(err) != KindInternal {
		t.Errorf("KindOf = %v, want internal", KindOf(err))
	}
}

func TestAssemble_Summary(t *testing.T) {
	codec := newFakeCodec()
	src := codec.doc("A", 25)
	batches, _ := Partition(25, 10)
	outputs, err := NewSplitter(codec).Split(t.Context(), src, BatchGroups(batches))
	if err != nil {
		t.Fatal(err)
	}

	archive, err := Assemble("book", UnitBatch, src, outputs, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	s := archive.Summary
	if s.TotalPages != 25 || s.TotalOutputs != 3 {
		t.Errorf("summary totals = %d pages / %d outputs", s.TotalPages, s.TotalOutputs)
	}
	wantLabels := []string{"1-10", "11-20", "21-25"}
	wantCounts := []int{10, 10, 5}
	for i, o := range s.Outputs {
		if o.Label != wantLabels[i] || o.PageCount != wantCounts[i] {
			t.Errorf("output %d = %+v", i, o)
		}
	}
	if s.ArchiveFilename != "book_batches.zip" || archive.Filename != s.ArchiveFilename {
		t.Errorf("archive filename = %q", s.ArchiveFilename)
	}
	if s.ArchiveSizeBytes != len(archive.Data) {
		t.Errorf("archive size = %d, data = %d", s.ArchiveSizeBytes, len(archive.Data))
	}
	if s.ProcessingTimeMS < 0 {
		t.Errorf("processing time = %d", s.ProcessingTimeMS)
	}

	files := readZip(t, archive.Data)
	if got := files["book_batch03_pages_21-25.pdf"]; got != "A21 A22 A23 A24 A25" {
		t.Errorf("last batch contents = %q", got)
	}
}

func TestNewSplitSummary_FillsEveryField(t *testing.T) {
	src := NewSourceDocument("x", make([]byte, 3*1024*1024), 4, nil)
	s := NewSplitSummary(UnitPage, src, nil, "x_pages.zip", 99, 1500*time.Millisecond)

	if s.Outputs == nil {
		t.Error("Outputs should be an empty slice, not nil")
	}
	if s.FileSizeMB != 3 {
		t.Errorf("FileSizeMB = %v", s.FileSizeMB)
	}
	if s.ProcessingTimeMS != 1500 || s.ArchiveSizeBytes != 99 || s.Unit != UnitPage {
		t.Errorf("summary = %+v", s)
	}
}

func TestSplit_UniqueEntryNames(t *testing.T) {
	codec := newFakeCodec()
	svc := NewService(ServiceConfig{Codec: codec})

	check := func(t *testing.T, archive *Archive) {
		t.Helper()
		seen := map[string]bool{}
		for _, o := range archive.Summary.Outputs {
			if seen[o.Filename] {
				t.Fatalf("duplicate entry %q", o.Filename)
			}
			seen[o.Filename] = true
		}
		if files := readZip(t, archive.Data); len(files) != len(seen) {
			t.Fatalf("archive has %d entries, summary %d", len(files), len(seen))
		}
	}

	t.Run("ranges", func(t *testing.T) {
		src := codec.doc("A", 5)
		specs := []string{"1-3,1-3", "2,2,2", "1-3,2-3,1-3", strings.TrimSuffix(strings.Repeat("1,", 120), ",")}
		for _, spec := range specs {
			archive, err := svc.SplitRanges(t.Context(), src, spec, "doc")
			if err != nil {
				t.Fatalf("SplitRanges(%q): %v", spec, err)
			}
			check(t, archive)
		}
	})

	t.Run("pages", func(t *testing.T) {
		for _, n := range []int{1, 9, 10, 99, 100, 120} {
			archive, err := svc.SplitPages(t.Context(), codec.doc("A", n), "doc")
			if err != nil {
				t.Fatalf("SplitPages(%d pages): %v", n, err)
			}
			check(t, archive)
		}
	})

	t.Run("batches", func(t *testing.T) {
		for pages := 1; pages <= 60; pages++ {
			src := codec.doc("A", pages)
			for size := 1; size <= 7; size++ {
				archive, err := svc.SplitBatches(t.Context(), src, size, "doc")
				if err != nil {
					t.Fatalf("SplitBatches(%d, %d): %v", pages, size, err)
				}
				check(t, archive)
			}
		}
	})
}
