package ocr

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackzampolin/n8ntools/internal/providers"
)

// ServiceProvider is reported in processing_info.
const ServiceProvider = "mistral-ai"

// EnhancedResponse is the default OCR body.
type EnhancedResponse struct {
	Status         string          `json:"status"`
	Message        string          `json:"message"`
	ExtractedText  string          `json:"extracted_text"`
	ExtractedHTML  string          `json:"extracted_html"`
	Images         []EnhancedImage `json:"images"`
	Metadata       *EnhancedMeta   `json:"metadata"`
	ProcessingInfo ProcessingInfo  `json:"processing_info"`
	Pages          []EnhancedPage  `json:"pages"`
	Warnings       []string        `json:"warnings"`
}

// EnhancedPage is per-page text for consumers that iterate pages.
type EnhancedPage struct {
	PageNumber int    `json:"page_number"`
	Markdown   string `json:"markdown"`
	Characters int    `json:"characters"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	DPI        int    `json:"dpi"`
}

// EnhancedImage is an image found on a page. Images only referenced from
// the markdown, with no region data, have TextReference set.
type EnhancedImage struct {
	ID             string      `json:"id"`
	SequenceNumber int         `json:"sequence_number"`
	PageNumber     int         `json:"page_number"`
	Coordinates    Coordinates `json:"coordinates"`
	Annotation     string      `json:"annotation"`
	MimeType       string      `json:"mime_type"`
	Base64         *string     `json:"base64"`
	TextReference  bool        `json:"text_reference"`
}

type Coordinates struct {
	Absolute AbsoluteBox  `json:"absolute"`
	Relative *RelativeBox `json:"relative"`
}

type AbsoluteBox struct {
	TopLeftX     int `json:"top_left_x"`
	TopLeftY     int `json:"top_left_y"`
	BottomRightX int `json:"bottom_right_x"`
	BottomRightY int `json:"bottom_right_y"`
	Width        int `json:"width"`
	Height       int `json:"height"`
}

// RelativeBox holds percentages of the page size.
type RelativeBox struct {
	TopLeftXPercent     float64 `json:"top_left_x_percent"`
	TopLeftYPercent     float64 `json:"top_left_y_percent"`
	BottomRightXPercent float64 `json:"bottom_right_x_percent"`
	BottomRightYPercent float64 `json:"bottom_right_y_percent"`
}

type EnhancedMeta struct {
	SourceType       SourceType `json:"source_type"`
	SourceIdentifier string     `json:"source_identifier"`
	MimeType         string     `json:"mime_type"`
	PageCount        int        `json:"page_count"`
	TotalCharacters  int        `json:"total_characters"`
	TotalWords       int        `json:"total_words"`
	TotalImages      int        `json:"total_images"`
	DocSizeBytes     int        `json:"doc_size_bytes"`
	Model            string     `json:"model"`
	ProcessedAt      time.Time  `json:"processed_at"`
}

type ProcessingInfo struct {
	ProcessingTimeMS   int64              `json:"processing_time_ms"`
	SourceType         SourceType         `json:"source_type"`
	AIModelUsed        string             `json:"ai_model_used"`
	ServiceProvider    string             `json:"service_provider"`
	PagesProcessed     int                `json:"pages_processed"`
	PerformanceMetrics PerformanceMetrics `json:"performance_metrics"`
}

type PerformanceMetrics struct {
	PagesPerSecond      float64 `json:"pages_per_second"`
	CharactersPerSecond float64 `json:"characters_per_second"`
}

// NewEnhancedResponse builds the enhanced body. Images are listed only
// when requested; metadata is null unless requested.
func NewEnhancedResponse(r Result) *EnhancedResponse {
	resp := r.Response
	if resp == nil {
		resp = &providers.OCRResponse{}
	}

	texts := make([]PageText, len(resp.Pages))
	pages := make([]EnhancedPage, len(resp.Pages))
	for i, p := range resp.Pages {
		texts[i] = PageText{Number: p.Index + 1, Markdown: p.Markdown}
		pages[i] = EnhancedPage{
			PageNumber: p.Index + 1,
			Markdown:   p.Markdown,
			Characters: utf8.RuneCountInString(p.Markdown),
		}
		if d := p.Dimensions; d != nil {
			pages[i].Width, pages[i].Height, pages[i].DPI = d.Width, d.Height, d.DPI
		}
	}
	text := CombineText(texts)

	out := &EnhancedResponse{
		Status:        "success",
		Message:       fmt.Sprintf("OCR processing completed for %s", r.Source.Type),
		ExtractedText: text,
		Images:        []EnhancedImage{},
		Pages:         pages,
		Warnings:      []string{},
	}

	html, err := RenderHTML(text)
	if err != nil {
		out.Warnings = append(out.Warnings, err.Error())
	}
	out.ExtractedHTML = html

	if r.IncludeImages {
		out.Images = collectImages(resp.Pages)
	}

	pagesProcessed := len(resp.Pages)
	if resp.UsageInfo != nil && resp.UsageInfo.PagesProcessed > 0 {
		pagesProcessed = resp.UsageInfo.PagesProcessed
	}
	chars := utf8.RuneCountInString(text)
	out.ProcessingInfo = ProcessingInfo{
		ProcessingTimeMS: r.Elapsed.Milliseconds(),
		SourceType:       r.Source.Type,
		AIModelUsed:      resp.Model,
		ServiceProvider:  ServiceProvider,
		PagesProcessed:   pagesProcessed,
		PerformanceMetrics: PerformanceMetrics{
			PagesPerSecond:      perSecond(pagesProcessed, r.Elapsed),
			CharactersPerSecond: perSecond(chars, r.Elapsed),
		},
	}

	if r.IncludeMetadata {
		size := r.Source.SizeBytes
		if resp.UsageInfo != nil && resp.UsageInfo.DocSizeBytes != nil {
			size = *resp.UsageInfo.DocSizeBytes
		}
		processedAt := r.ProcessedAt
		if processedAt.IsZero() {
			processedAt = time.Now().UTC()
		}
		out.Metadata = &EnhancedMeta{
			SourceType:       r.Source.Type,
			SourceIdentifier: r.Source.Identifier,
			MimeType:         r.Source.MimeType,
			PageCount:        len(resp.Pages),
			TotalCharacters:  chars,
			TotalWords:       countWords(text),
			TotalImages:      len(out.Images),
			DocSizeBytes:     size,
			Model:            resp.Model,
			ProcessedAt:      processedAt,
		}
	}
	return out
}

// collectImages numbers images across the document. When Mistral returned
// no image regions, markdown references are listed instead.
func collectImages(pages []providers.OCRPage) []EnhancedImage {
	images := []EnhancedImage{}
	seq := 1
	for _, p := range pages {
		for _, img := range p.Images {
			images = append(images, newImage(seq, p, img))
			seq++
		}
	}
	if len(images) > 0 {
		return images
	}

	for _, p := range pages {
		for _, ref := range imageRefs(p.Markdown) {
			annotation := ref.Alt
			if annotation == "" {
				annotation = "Text reference to image: " + ref.Target
			}
			images = append(images, EnhancedImage{
				ID:             fmt.Sprintf("ref_%d", seq),
				SequenceNumber: seq,
				PageNumber:     p.Index + 1,
				Annotation:     annotation,
				MimeType:       mimeFromName(ref.Target),
				TextReference:  true,
			})
			seq++
		}
	}
	return images
}

func newImage(seq int, page providers.OCRPage, img providers.OCRImage) EnhancedImage {
	id := img.ID
	if id == "" {
		id = fmt.Sprintf("img_%d_%d", page.Index+1, seq)
	}
	out := EnhancedImage{
		ID:             id,
		SequenceNumber: seq,
		PageNumber:     page.Index + 1,
		Coordinates: Coordinates{
			Absolute: AbsoluteBox{
				TopLeftX:     img.TopLeftX,
				TopLeftY:     img.TopLeftY,
				BottomRightX: img.BottomRightX,
				BottomRightY: img.BottomRightY,
				Width:        img.BottomRightX - img.TopLeftX,
				Height:       img.BottomRightY - img.TopLeftY,
			},
		},
		MimeType: mimeFromName(id),
		Base64:   img.ImageBase64,
	}
	if img.ImageAnnotation != nil {
		out.Annotation = *img.ImageAnnotation
	}
	if img.ImageBase64 != nil {
		if mt := mimeFromBase64(*img.ImageBase64); mt != "" {
			out.MimeType = mt
		}
	}
	if d := page.Dimensions; d != nil && d.Width > 0 && d.Height > 0 {
		w, h := float64(d.Width), float64(d.Height)
		out.Coordinates.Relative = &RelativeBox{
			TopLeftXPercent:     percent(img.TopLeftX, w),
			TopLeftYPercent:     percent(img.TopLeftY, h),
			BottomRightXPercent: percent(img.BottomRightX, w),
			BottomRightYPercent: percent(img.BottomRightY, h),
		}
	}
	return out
}

func percent(v int, of float64) float64 {
	return math.Round(float64(v)/of*10000) / 100
}

func perSecond(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return math.Round(float64(n)/d.Seconds()*100) / 100
}

// mimeFromBase64 reads a data URL prefix or the encoded magic bytes.
func mimeFromBase64(s string) string {
	if strings.HasPrefix(s, "data:") {
		if end := strings.IndexAny(s, ";,"); end > 5 {
			return s[5:end]
		}
	}
	switch {
	case strings.HasPrefix(s, "/9j/"):
		return "image/jpeg"
	case strings.HasPrefix(s, "iVBORw0KGgo"):
		return "image/png"
	case strings.HasPrefix(s, "R0lGOD"):
		return "image/gif"
	case strings.HasPrefix(s, "UklGR"):
		return "image/webp"
	}
	return ""
}

func mimeFromName(name string) string {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return "image/unknown"
	}
	ext := strings.ToLower(name[dot+1:])
	if ext == "jpg" {
		ext = "jpeg"
	}
	return "image/" + ext
}
