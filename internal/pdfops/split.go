package pdfops

import (
	"context"
	"fmt"
	"strconv"
)

// Splitter produces one output document per page group.
type Splitter struct {
	codec Codec
}

func NewSplitter(codec Codec) *Splitter {
	return &Splitter{codec: codec}
}

// Split extracts every group from src. Pages keep the exact order of each
// group, repeats included. Either every output is produced or an error is
// returned.
func (s *Splitter) Split(ctx context.Context, src *SourceDocument, groups []PageGroup) ([]OutputDocument, error) {
	for _, g := range groups {
		if err := checkPages("split", src.PageCount(), g.Pages); err != nil {
			return nil, err
		}
	}

	outputs := make([]OutputDocument, 0, len(groups))
	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.codec.ExtractPages(src, g.Pages)
		if err != nil {
			return nil, fmt.Errorf("failed to extract pages %s: %w", g.Label, err)
		}
		outputs = append(outputs, OutputDocument{
			Number: i + 1,
			Label:  g.Label,
			Pages:  g.Pages,
			Data:   data,
		})
	}
	return outputs, nil
}

func checkPages(op string, pageCount int, pages []int) error {
	if len(pages) == 0 {
		return newError(op, "pages", "", "at least one page", ErrPageIndexInvalid)
	}
	for _, p := range pages {
		if p < 1 || p > pageCount {
			return newError(op, "page", strconv.Itoa(p), fmt.Sprintf("1-%d", pageCount), ErrPageIndexInvalid)
		}
	}
	return nil
}

// ascendingRuns cuts pages into maximal runs of strictly increasing page
// numbers. Page libraries that extract by page set can only emit a run in
// document order; runs are concatenated afterwards.
func ascendingRuns(pages []int) [][]int {
	var runs [][]int
	start := 0
	for i := 1; i <= len(pages); i++ {
		if i == len(pages) || pages[i] <= pages[i-1] {
			runs = append(runs, pages[start:i])
			start = i
		}
	}
	return runs
}
