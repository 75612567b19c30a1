package document

import (
	"context"
	"strings"
	"testing"

	pkgerrors "hirenest/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tailoredResume = `# Jane Doe
Senior Backend Engineer

## Experience
- Built **event driven** order pipelines in Go
* Cut p99 latency by 40%

## Skills
Go, DynamoDB, Kubernetes`

func TestRenderThenExtract(t *testing.T) {
	ctx := context.Background()

	data, err := NewPDFRenderer().RenderPDF(ctx, "Jane Doe resume", tailoredResume)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "%PDF-"))

	text, err := NewPDFExtractor().ExtractText(ctx, data, "application/pdf")
	require.NoError(t, err)

	compact := strings.Join(strings.Fields(text), "")
	assert.Contains(t, compact, "JaneDoe")
	assert.Contains(t, compact, "Experience")
	assert.Contains(t, compact, "eventdriven")
	assert.NotContains(t, compact, "**")
}

func TestExtractText(t *testing.T) {
	ctx := context.Background()
	extractor := NewPDFExtractor()

	text, err := extractor.ExtractText(ctx, []byte("Plain text resume\nGo developer"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "Plain text resume\nGo developer", text)

	_, err = extractor.ExtractText(ctx, nil, "application/pdf")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = extractor.ExtractText(ctx, []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, "image/png")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = extractor.ExtractText(ctx, []byte("%PDF-1.7 truncated"), "application/pdf")
	assert.Error(t, err)
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPDFRenderer().RenderPDF(ctx, "title", "body")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInlineHelpers(t *testing.T) {
	assert.True(t, isBullet("- item"))
	assert.True(t, isBullet("• item"))
	assert.False(t, isBullet("-item"))
	assert.Equal(t, len("•"), bulletWidth("• item"))
	assert.Equal(t, 1, bulletWidth("* item"))
	assert.Equal(t, "bold and code", stripInline("**bold** and `code`"))
}
