package pdfops

import (
	"fmt"
	"strconv"
)

// Batch is one contiguous chunk of a batch split.
type Batch struct {
	Number int `json:"number"`
	Start  int `json:"start"`
	End    int `json:"end"`
}

func (b Batch) Label() string  { return rangeLabel(b.Start, b.End) }
func (b Batch) PageCount() int { return b.End - b.Start + 1 }

// Partition divides pages [1, pageCount] into ceil(pageCount/batchSize)
// contiguous batches. Every batch except possibly the last has exactly
// batchSize pages.
func Partition(pageCount, batchSize int) ([]Batch, error) {
	const op = "partition"

	if batchSize < 1 {
		return nil, newError(op, "batch_size", strconv.Itoa(batchSize), "at least 1", ErrInvalidBatchSize)
	}
	if pageCount < 1 {
		return nil, newError(op, "page_count", strconv.Itoa(pageCount), "at least 1", ErrEmptyDocument)
	}

	n := (pageCount + batchSize - 1) / batchSize
	batches := make([]Batch, n)
	for i := range batches {
		start := i*batchSize + 1
		batches[i] = Batch{
			Number: i + 1,
			Start:  start,
			End:    min(start+batchSize-1, pageCount),
		}
	}

	if err := checkPartition(batches, pageCount); err != nil {
		return nil, err
	}
	return batches, nil
}

// checkPartition verifies the batches tile [1, pageCount] with no gap or
// overlap.
func checkPartition(batches []Batch, pageCount int) error {
	next := 1
	for _, b := range batches {
		if b.Start != next || b.End < b.Start {
			return newError("partition", "batch", strconv.Itoa(b.Number),
				fmt.Sprintf("expected start %d", next), ErrPartitionInconsistent)
		}
		next = b.End + 1
	}
	if next != pageCount+1 {
		return newError("partition", "page_count", strconv.Itoa(pageCount),
			fmt.Sprintf("covered %d", next-1), ErrPartitionInconsistent)
	}
	return nil
}

// BatchGroups turns batches into page groups for the splitter.
func BatchGroups(batches []Batch) []PageGroup {
	groups := make([]PageGroup, len(batches))
	for i, b := range batches {
		groups[i] = PageGroup{Label: b.Label(), Pages: PageRange{Start: b.Start, End: b.End}.Pages()}
	}
	return groups
}

// PlannedBatch is a batch as it would appear in the archive.
type PlannedBatch struct {
	Number    int    `json:"number"`
	Label     string `json:"label"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
	PageCount int    `json:"page_count"`
	Filename  string `json:"filename"`
}

// BatchPlan is the dry-run result of a batch split.
type BatchPlan struct {
	TotalPages      int            `json:"total_pages"`
	BatchSize       int            `json:"batch_size"`
	TotalBatches    int            `json:"total_batches"`
	ArchiveFilename string         `json:"archive_filename"`
	Batches         []PlannedBatch `json:"batches"`
}

// PreviewBatches computes what a batch split would produce without
// touching the document. It shares Partition and EntryName with the real
// split so boundaries and filenames always agree.
func PreviewBatches(pageCount, batchSize int, prefix string) (*BatchPlan, error) {
	batches, err := Partition(pageCount, batchSize)
	if err != nil {
		return nil, err
	}
	prefix = SanitizePrefix(prefix)

	plan := &BatchPlan{
		TotalPages:      pageCount,
		BatchSize:       batchSize,
		TotalBatches:    len(batches),
		ArchiveFilename: ArchiveName(prefix, UnitBatch),
		Batches:         make([]PlannedBatch, len(batches)),
	}
	for i, b := range batches {
		plan.Batches[i] = PlannedBatch{
			Number:    b.Number,
			Label:     b.Label(),
			StartPage: b.Start,
			EndPage:   b.End,
			PageCount: b.PageCount(),
			Filename:  EntryName(prefix, UnitBatch, b.Number, len(batches), b.Label()),
		}
	}
	return plan, nil
}
