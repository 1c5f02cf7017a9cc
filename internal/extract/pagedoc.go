// Package extract turns heterogeneous raw sources into ordered chunk
// sequences with format-specific metadata, and supplies the combine
// strategies the chunk reducer pairs with each format.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/docfold/docfold/internal/chunk"
)

// PageMeta is the metadata carried by paginated-document chunks.
// PageStart and PageEnd are 1-indexed and PageStart <= PageEnd.
type PageMeta struct {
	PageStart      int    `json:"page_start"`
	PageEnd        int    `json:"page_end"`
	Source         string `json:"source"`
	Title          string `json:"title,omitempty"`
	SecondaryTitle string `json:"secondary_title,omitempty"`
	PageCount      int    `json:"page_count"`
}

// PageRenderer renders one page of a paginated document as plain text.
// Implementations may render pages however they like (including remotely);
// ExtractPages calls RenderPage in page order.
type PageRenderer interface {
	PageCount() int
	RenderPage(ctx context.Context, page int) (string, error)
}

// ExtractPages emits one chunk per physical page of the document.
// The secondary title is the second non-empty line of page 1, kept as a
// fallback label since embedded document titles are frequently absent.
// A render failure fails the extraction; skipping pages is caller policy.
func ExtractPages(ctx context.Context, r PageRenderer, source, title string) ([]chunk.Chunk[PageMeta], error) {
	total := r.PageCount()
	chunks := make([]chunk.Chunk[PageMeta], 0, total)

	var secondary string
	for page := 1; page <= total; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		text, err := r.RenderPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("render page %d of %s; %w", page, source, err)
		}
		if page == 1 {
			secondary = secondLine(text)
		}

		chunks = append(chunks, chunk.Chunk[PageMeta]{
			Text: text,
			Metadata: PageMeta{
				PageStart: page,
				PageEnd:   page,
				Source:    source,
				Title:     title,
				PageCount: total,
			},
		})
	}

	for i := range chunks {
		chunks[i].Metadata.SecondaryTitle = secondary
	}
	return chunks, nil
}

// ExtractPDF extracts page chunks from a PDF byte buffer.
func ExtractPDF(ctx context.Context, data []byte, source string) ([]chunk.Chunk[PageMeta], error) {
	r, err := NewPDFRenderer(data)
	if err != nil {
		return nil, err
	}
	return ExtractPages(ctx, r, source, pdfTitle(data))
}

// secondLine returns the second non-empty line of text, trimmed.
func secondLine(text string) string {
	var seen int
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		seen++
		if seen == 2 {
			return line
		}
	}
	return ""
}

// PDFRenderer renders pages from an in-memory PDF document.
type PDFRenderer struct {
	reader *pdf.Reader
}

// NewPDFRenderer parses the PDF and returns a renderer over its pages.
func NewPDFRenderer(data []byte) (*PDFRenderer, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("invalid PDF header")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse PDF; %w", err)
	}
	return &PDFRenderer{reader: reader}, nil
}

// PageCount returns the number of pages in the document.
func (r *PDFRenderer) PageCount() int {
	return r.reader.NumPage()
}

// RenderPage returns the plain text of the 1-indexed page.
func (r *PDFRenderer) RenderPage(ctx context.Context, page int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := r.reader.Page(page)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d not present", page)
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract text; %w", err)
	}
	return text, nil
}

var pdfTitlePattern = regexp.MustCompile(`/Title\s*\(([^)]*)\)`)

// pdfTitle pulls the /Title entry out of the raw PDF bytes, if any.
// Titles held in encoded streams are not recovered; the secondary title
// exists for exactly that case.
func pdfTitle(data []byte) string {
	match := pdfTitlePattern.FindSubmatch(data)
	if len(match) < 2 {
		return ""
	}
	title := string(match[1])
	title = strings.ReplaceAll(title, `\(`, "(")
	title = strings.ReplaceAll(title, `\)`, ")")
	title = strings.ReplaceAll(title, `\\`, `\`)
	return strings.TrimSpace(title)
}

// PageStrategy merges page chunks from the same source document. When a
// merge overflows the token budget the merged token sequence is split at
// the exact budget boundary; the trailing half inherits the second
// chunk's page metadata even though its text is a partial prefix.
type PageStrategy struct{}

// Combine implements chunk.Strategy.
func (PageStrategy) Combine(first, second chunk.Chunk[PageMeta], rctx *chunk.Context) ([]chunk.Chunk[PageMeta], error) {
	if first.Metadata.Source != second.Metadata.Source {
		return []chunk.Chunk[PageMeta]{first, second}, nil
	}

	meta := first.Metadata
	meta.PageStart = min(first.Metadata.PageStart, second.Metadata.PageStart)
	meta.PageEnd = max(first.Metadata.PageEnd, second.Metadata.PageEnd)

	merged := chunk.Chunk[PageMeta]{
		Text:     first.Text + "\n\n" + second.Text,
		Metadata: meta,
	}
	merged.Encoded = rctx.Codec.Encode(merged.Text)
	if len(merged.Encoded) <= rctx.TargetTokens {
		return []chunk.Chunk[PageMeta]{merged}, nil
	}

	// The admission check upstream compares the pre-merge sizes, so the
	// joined text can still overflow. Split the already-tokenized merged
	// sequence at the budget boundary and decode each half. Decoding can
	// land mid-token, so the halves are left without a token cache.
	ids := merged.Encoded
	head := chunk.Chunk[PageMeta]{
		Text:     rctx.Codec.Decode(ids[:rctx.TargetTokens]),
		Metadata: first.Metadata,
	}
	tail := chunk.Chunk[PageMeta]{
		Text:     rctx.Codec.Decode(ids[rctx.TargetTokens:]),
		Metadata: second.Metadata,
	}
	return []chunk.Chunk[PageMeta]{head, tail}, nil
}
