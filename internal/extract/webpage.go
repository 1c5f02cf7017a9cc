package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/docfold/docfold/internal/chunk"
)

// WebMeta is the metadata carried by web-page chunks.
type WebMeta struct {
	Title string `json:"title"`
}

// contentSelectors is the main-content cascade, tried in strict priority
// order. The first selector yielding non-empty text wins; matches are
// never combined. Markup varies too widely across sources for a single
// selector, so the cascade trades precision for coverage.
var contentSelectors = []string{
	"main",
	"[role=main]",
	"article",
	"#main",
	"#main-content",
	"#content",
	".main",
	".main-content",
	".content",
	".content-body",
	".news-article",
}

// ExtractWebPage returns exactly one chunk holding the page's best main
// content. It never fails on malformed markup; the worst case is the
// full-document text fallback with title "N/A".
func ExtractWebPage(htmlSrc string) chunk.Chunk[WebMeta] {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return chunk.Chunk[WebMeta]{Metadata: WebMeta{Title: "N/A"}}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "N/A"
	}

	// Non-visible elements are stripped before any text extraction so
	// the fallback path reports the document's visible text only.
	doc.Find("script, style, noscript, head").Remove()

	text := mainContent(doc)
	return chunk.Chunk[WebMeta]{Text: text, Metadata: WebMeta{Title: title}}
}

func mainContent(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text := normalizeText(sel.Text()); text != "" {
			return text
		}
	}
	return normalizeText(doc.Find("body").Text())
}

// normalizeText trims each line and collapses runs of blank lines.
func normalizeText(text string) string {
	var out []string
	blank := true
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
