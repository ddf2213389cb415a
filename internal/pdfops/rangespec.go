package pdfops

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseRanges parses a comma-separated page specification such as
// "1-3,5,7-9" against a document of pageCount pages.
//
// Each token is either a single page "N" or an inclusive span "A-B".
// Token order and repetition are preserved. Empty tokens (as produced by a
// trailing comma) are skipped.
func ParseRanges(spec string, pageCount int) ([]PageRange, error) {
	const op = "parse ranges"

	if strings.TrimSpace(spec) == "" {
		return nil, newError(op, "ranges", spec, "e.g. 1-3,5,7-9", ErrEmptySpecification)
	}

	var ranges []PageRange
	for _, raw := range strings.Split(spec, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		r, err := parseToken(token)
		if err != nil {
			return nil, newError(op, "ranges", token, "N or A-B with positive integers", err)
		}
		if r.Start > r.End {
			return nil, newError(op, "ranges", token, "start must not exceed end", ErrInvalidRangeOrder)
		}
		if r.Start < 1 || r.End > pageCount {
			return nil, newError(op, "ranges", token, fmt.Sprintf("1-%d", pageCount), ErrRangeOutOfBounds)
		}
		ranges = append(ranges, r)
	}

	if len(ranges) == 0 {
		return nil, newError(op, "ranges", spec, "e.g. 1-3,5,7-9", ErrEmptySpecification)
	}
	return ranges, nil
}

func parseToken(token string) (PageRange, error) {
	start, end, isSpan := strings.Cut(token, "-")
	if !isSpan {
		n, err := parsePage(token)
		if err != nil {
			return PageRange{}, err
		}
		return PageRange{Start: n, End: n}, nil
	}

	a, err := parsePage(strings.TrimSpace(start))
	if err != nil {
		return PageRange{}, err
	}
	b, err := parsePage(strings.TrimSpace(end))
	if err != nil {
		return PageRange{}, err
	}
	return PageRange{Start: a, End: b}, nil
}

// parsePage accepts only unsigned decimal digits. Numbers too large for an
// int saturate, so they fail the bounds check rather than the syntax one.
func parsePage(s string) (int, error) {
	if s == "" {
		return 0, ErrInvalidRangeSyntax
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, ErrInvalidRangeSyntax
		}
	}
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt, nil
	}
	if err != nil {
		return 0, ErrInvalidRangeSyntax
	}
	return n, nil
}

// RangeGroups turns parsed ranges into one page group per range.
func RangeGroups(ranges []PageRange) []PageGroup {
	groups := make([]PageGroup, len(ranges))
	for i, r := range ranges {
		groups[i] = PageGroup{Label: r.Label(), Pages: r.Pages()}
	}
	return groups
}

// PageGroups returns one single-page group per page of the document.
func PageGroups(pageCount int) []PageGroup {
	groups := make([]PageGroup, pageCount)
	for i := range groups {
		p := i + 1
		groups[i] = PageGroup{Label: strconv.Itoa(p), Pages: []int{p}}
	}
	return groups
}
