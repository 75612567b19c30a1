package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"hirenest/application/ports"

	"github.com/go-pdf/fpdf"
)

const (
	bodyFontSize    = 10.5
	lineHeight      = 5.2
	headingFontSize = 14
	subheadFontSize = 12
	pageMargin      = 18.0
)

// PDFRenderer lays out plain text as an A4 document. Lines starting with
// '#' become headings and lines starting with '-', '*' or '•' become bullets.
type PDFRenderer struct {
	font string
}

// NewPDFRenderer creates a renderer using a core font
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{font: "Helvetica"}
}

var _ ports.DocumentRenderer = (*PDFRenderer)(nil)

// RenderPDF implements ports.DocumentRenderer
func (r *PDFRenderer) RenderPDF(ctx context.Context, title, text string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(title, true)
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, pageMargin)
	doc.AddPage()

	// Core fonts are cp1252; translate so accented names survive
	tr := doc.UnicodeTranslatorFromDescriptor("")

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			doc.Ln(lineHeight / 2)
		case strings.HasPrefix(trimmed, "## "), strings.HasPrefix(trimmed, "### "):
			doc.Ln(1.5)
			doc.SetFont(r.font, "B", subheadFontSize)
			doc.MultiCell(0, lineHeight+1, tr(stripInline(strings.TrimLeft(trimmed, "# "))), "", "L", false)
		case strings.HasPrefix(trimmed, "# "):
			doc.SetFont(r.font, "B", headingFontSize)
			doc.MultiCell(0, lineHeight+2, tr(stripInline(strings.TrimLeft(trimmed, "# "))), "", "L", false)
			doc.Ln(1)
		case isBullet(trimmed):
			doc.SetFont(r.font, "", bodyFontSize)
			doc.SetX(pageMargin + 4)
			doc.CellFormat(4, lineHeight, tr("•"), "", 0, "L", false, 0, "")
			doc.MultiCell(0, lineHeight, tr(stripInline(strings.TrimSpace(trimmed[bulletWidth(trimmed):]))), "", "L", false)
		default:
			doc.SetFont(r.font, "", bodyFontSize)
			doc.MultiCell(0, lineHeight, tr(stripInline(trimmed)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "• ")
}

func bulletWidth(line string) int {
	if strings.HasPrefix(line, "•") {
		return len("•")
	}
	return 1
}

// stripInline drops Markdown emphasis markers the model tends to emit
func stripInline(s string) string {
	return strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
}
