package ocr

import (
	"github.com/jackzampolin/n8ntools/internal/providers"
)

// OfficialResponse mirrors the Mistral OCR API. Unlike the upstream body,
// optional fields are always present (null or zero) so consumers can rely
// on the keys.
type OfficialResponse struct {
	Pages              []OfficialPage `json:"pages"`
	Model              string         `json:"model"`
	DocumentAnnotation *string        `json:"document_annotation"`
	UsageInfo          OfficialUsage  `json:"usage_info"`
}

type OfficialPage struct {
	Index      int             `json:"index"`
	Markdown   string          `json:"markdown"`
	Images     []OfficialImage `json:"images"`
	Dimensions OfficialDims    `json:"dimensions"`
}

type OfficialImage struct {
	ID              string  `json:"id"`
	TopLeftX        int     `json:"top_left_x"`
	TopLeftY        int     `json:"top_left_y"`
	BottomRightX    int     `json:"bottom_right_x"`
	BottomRightY    int     `json:"bottom_right_y"`
	ImageBase64     *string `json:"image_base64"`
	ImageAnnotation *string `json:"image_annotation"`
}

type OfficialDims struct {
	DPI    int `json:"dpi"`
	Height int `json:"height"`
	Width  int `json:"width"`
}

type OfficialUsage struct {
	PagesProcessed int `json:"pages_processed"`
	DocSizeBytes   int `json:"doc_size_bytes"`
}

// NewOfficialResponse builds the official body. Missing usage data falls
// back to the page count and the source size.
func NewOfficialResponse(r Result) *OfficialResponse {
	resp := r.Response
	if resp == nil {
		resp = &providers.OCRResponse{}
	}

	out := &OfficialResponse{
		Pages:              make([]OfficialPage, 0, len(resp.Pages)),
		Model:              resp.Model,
		DocumentAnnotation: resp.DocumentAnnotation,
		UsageInfo: OfficialUsage{
			PagesProcessed: len(resp.Pages),
			DocSizeBytes:   r.Source.SizeBytes,
		},
	}
	if u := resp.UsageInfo; u != nil {
		out.UsageInfo.PagesProcessed = u.PagesProcessed
		if u.DocSizeBytes != nil {
			out.UsageInfo.DocSizeBytes = *u.DocSizeBytes
		}
	}

	for _, p := range resp.Pages {
		page := OfficialPage{
			Index:    p.Index,
			Markdown: p.Markdown,
			Images:   make([]OfficialImage, 0, len(p.Images)),
		}
		if p.Dimensions != nil {
			page.Dimensions = OfficialDims{DPI: p.Dimensions.DPI, Height: p.Dimensions.Height, Width: p.Dimensions.Width}
		}
		for _, img := range p.Images {
			oi := OfficialImage{
				ID:              img.ID,
				TopLeftX:        img.TopLeftX,
				TopLeftY:        img.TopLeftY,
				BottomRightX:    img.BottomRightX,
				BottomRightY:    img.BottomRightY,
				ImageAnnotation: img.ImageAnnotation,
			}
			if r.IncludeImages {
				oi.ImageBase64 = img.ImageBase64
			}
			page.Images = append(page.Images, oi)
		}
		out.Pages = append(out.Pages, page)
	}
	return out
}
