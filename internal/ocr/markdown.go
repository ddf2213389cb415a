package ocr

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	blankRuns   = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
	spaceRuns   = regexp.MustCompile(`[ \t]{2,}`)
	imageRefPat = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
)

// md renders OCR markdown. Mistral emits GFM tables and $...$ formulas.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		treeblood.MathML(),
	),
)

const pageRule = "=================================================="

// CombineText joins page markdown. Multi-page documents get a header per
// page; blank pages are skipped.
func CombineText(pages []PageText) string {
	var b strings.Builder
	total := len(pages)
	for _, p := range pages {
		text := cleanText(p.Markdown)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if total > 1 {
			fmt.Fprintf(&b, "%s\nPAGE %d of %d\n%s\n\n", pageRule, p.Number, total, pageRule)
		}
		b.WriteString(text)
	}
	return b.String()
}

// PageText is one page of markdown with its 1-based number.
type PageText struct {
	Number   int
	Markdown string
}

// RenderHTML converts markdown to HTML.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// imageRef is a markdown image reference such as ![img-0.jpeg](img-0.jpeg).
type imageRef struct {
	Alt    string
	Target string
}

func imageRefs(markdown string) []imageRef {
	matches := imageRefPat.FindAllStringSubmatch(markdown, -1)
	refs := make([]imageRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, imageRef{Alt: m[1], Target: m[2]})
	}
	return refs
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
