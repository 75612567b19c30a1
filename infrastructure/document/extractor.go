// Package document converts resumes between PDF and plain text.
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"hirenest/application/ports"
	pkgerrors "hirenest/pkg/errors"

	"github.com/ledongthuc/pdf"
)

// maxExtractedText bounds the text handed to the model
const maxExtractedText = 1 << 20

// PDFExtractor reads the text layer of PDF documents. Plain text documents
// are returned unchanged.
type PDFExtractor struct{}

// NewPDFExtractor creates an extractor
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

var _ ports.DocumentExtractor = (*PDFExtractor)(nil)

// ExtractText implements ports.DocumentExtractor
func (e *PDFExtractor) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", pkgerrors.NewValidationError("document is empty")
	}

	if !isPDF(data, contentType) {
		if strings.HasPrefix(http.DetectContentType(data), "text/") {
			return string(data), nil
		}
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unsupported document type %q", contentType))
	}

	text, err := extractPDF(data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("document has no text layer")
	}
	return text, nil
}

func isPDF(data []byte, contentType string) bool {
	return bytes.HasPrefix(data, []byte("%PDF-")) || strings.HasPrefix(contentType, "application/pdf")
}

// extractPDF recovers from panics in the parser, which is not hardened
// against malformed input.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(plain, maxExtractedText)); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}
