package pdfops

import (
	"context"
	"fmt"
	"strconv"
)

// Strategy is how pages from several sources are combined.
type Strategy string

const (
	StrategyAppend     Strategy = "append"
	StrategyInterleave Strategy = "interleave"
)

// ParseStrategy accepts "append" (the default when empty) or "interleave".
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyAppend:
		return StrategyAppend, nil
	case StrategyInterleave:
		return StrategyInterleave, nil
	default:
		return "", newError("merge", "strategy", s, "append, interleave", ErrUnknownStrategy)
	}
}

// DefaultMaxSources caps the number of documents in one merge.
const DefaultMaxSources = 20

// PageSelection restricts a merge source to some of its pages with either
// Pages or Ranges; setting both is an error. An empty selection means every
// page.
type PageSelection struct {
	Pages  []int  `json:"pages,omitempty"`
	Ranges string `json:"ranges,omitempty"`
}

func (s *PageSelection) empty() bool {
	return s == nil || (len(s.Pages) == 0 && s.Ranges == "")
}

// MergeSpec describes a merge. Selections is keyed by source index.
type MergeSpec struct {
	Strategy         Strategy
	Selections       map[int]*PageSelection
	PreserveMetadata bool
	MaxSources       int
}

// PageRef is one page of the merged output.
type PageRef struct {
	Source int `json:"source"`
	Page   int `json:"page"`
}

// PlanMerge computes the output page sequence for sources with the given
// page counts. It touches no document data.
func PlanMerge(pageCounts []int, spec MergeSpec) ([]PageRef, error) {
	const op = "merge"

	maxSources := spec.MaxSources
	if maxSources <= 0 {
		maxSources = DefaultMaxSources
	}
	n := strconv.Itoa(len(pageCounts))
	if len(pageCounts) < 2 {
		return nil, newError(op, "sources", n, "at least 2", ErrTooFewSources)
	}
	if len(pageCounts) > maxSources {
		return nil, newError(op, "sources", n, fmt.Sprintf("at most %d", maxSources), ErrTooManySources)
	}
	for idx := range spec.Selections {
		if idx < 0 || idx >= len(pageCounts) {
			return nil, newError(op, "selection", strconv.Itoa(idx),
				fmt.Sprintf("source index 0-%d", len(pageCounts)-1), ErrPageSelectionOutOfBounds)
		}
	}

	selected := make([][]int, len(pageCounts))
	for i, count := range pageCounts {
		pages, err := selectPages(i, count, spec.Selections[i])
		if err != nil {
			return nil, err
		}
		selected[i] = pages
	}

	switch spec.Strategy {
	case "", StrategyAppend:
		return appendPlan(selected), nil
	case StrategyInterleave:
		return interleavePlan(selected), nil
	default:
		return nil, newError(op, "strategy", string(spec.Strategy), "append, interleave", ErrUnknownStrategy)
	}
}

func selectPages(source, pageCount int, sel *PageSelection) ([]int, error) {
	param := fmt.Sprintf("selections[%d]", source)
	valid := fmt.Sprintf("1-%d", pageCount)

	if sel.empty() {
		return PageRange{Start: 1, End: pageCount}.Pages(), nil
	}
	if len(sel.Pages) > 0 && sel.Ranges != "" {
		return nil, newError("merge", param, sel.Ranges, "pages or ranges, not both", ErrInvalidSelection)
	}
	if len(sel.Pages) > 0 {
		for _, p := range sel.Pages {
			if p < 1 || p > pageCount {
				return nil, newError("merge", param, strconv.Itoa(p), valid, ErrPageSelectionOutOfBounds)
			}
		}
		return append([]int(nil), sel.Pages...), nil
	}

	ranges, err := ParseRanges(sel.Ranges, pageCount)
	if err != nil {
		// Out-of-range selections are reported as selection errors so the
		// caller can tell which source was wrong.
		if KindOf(err) == KindValidation {
			return nil, newError("merge", param, sel.Ranges, valid, ErrPageSelectionOutOfBounds)
		}
		return nil, err
	}
	var pages []int
	for _, r := range ranges {
		pages = append(pages, r.Pages()...)
	}
	return pages, nil
}

func appendPlan(selected [][]int) []PageRef {
	var plan []PageRef
	for src, pages := range selected {
		for _, p := range pages {
			plan = append(plan, PageRef{Source: src, Page: p})
		}
	}
	return plan
}

// interleavePlan takes one page from each source in turn. Sources that run
// out drop out of the rotation.
func interleavePlan(selected [][]int) []PageRef {
	var plan []PageRef
	for round := 0; ; round++ {
		took := false
		for src, pages := range selected {
			if round < len(pages) {
				plan = append(plan, PageRef{Source: src, Page: pages[round]})
				took = true
			}
		}
		if !took {
			return plan
		}
	}
}

// MergeResult is the merged document and what went into it.
type MergeResult struct {
	Data       []byte
	Plan       []PageRef
	TotalPages int
	Sources    int
	Metadata   *Metadata
}

// Combiner materializes merge plans through a Codec.
type Combiner struct {
	codec Codec
}

func NewCombiner(codec Codec) *Combiner {
	return &Combiner{codec: codec}
}

// Merge combines sources according to spec.
func (c *Combiner) Merge(ctx context.Context, sources []*SourceDocument, spec MergeSpec) (*MergeResult, error) {
	counts := make([]int, len(sources))
	for i, s := range sources {
		counts[i] = s.PageCount()
	}
	plan, err := PlanMerge(counts, spec)
	if err != nil {
		return nil, err
	}

	// Consecutive refs into the same source are extracted together.
	var parts [][]byte
	for start := 0; start < len(plan); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + 1
		for end < len(plan) && plan[end].Source == plan[start].Source {
			end++
		}
		pages := make([]int, 0, end-start)
		for _, ref := range plan[start:end] {
			pages = append(pages, ref.Page)
		}
		data, err := c.codec.ExtractPages(sources[plan[start].Source], pages)
		if err != nil {
			return nil, fmt.Errorf("failed to extract pages from source %d: %w", plan[start].Source, err)
		}
		parts = append(parts, data)
		start = end
	}

	merged, err := c.codec.Concat(parts)
	if err != nil {
		return nil, fmt.Errorf("failed to concatenate merge parts: %w", err)
	}

	var meta *Metadata
	if spec.PreserveMetadata {
		info, err := c.codec.Info(sources[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read metadata of first source: %w", err)
		}
		meta = &Metadata{
			Title:    info.Metadata.Title,
			Author:   info.Metadata.Author,
			Subject:  info.Metadata.Subject,
			Keywords: info.Metadata.Keywords,
			Creator:  info.Metadata.Creator,
		}
	}
	merged, err = c.codec.SetMetadata(merged, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to write merge metadata: %w", err)
	}

	return &MergeResult{
		Data:       merged,
		Plan:       plan,
		TotalPages: len(plan),
		Sources:    len(sources),
		Metadata:   meta,
	}, nil
}
