package utils

import (
	"encoding/base64"
	"testing"
	"time"

	apperrors "hirenest/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURL(t *testing.T) {
	pdf := []byte("%PDF-1.4 minimal")
	encoded := base64.StdEncoding.EncodeToString(pdf)

	tests := []struct {
		name     string
		input    string
		wantType string
		wantExt  string
		wantData []byte
		wantErr  bool
	}{
		{
			name:     "typed data url",
			input:    "data:application/pdf;base64," + encoded,
			wantType: "application/pdf",
			wantExt:  ".pdf",
			wantData: pdf,
		},
		{
			name:     "bare base64 is sniffed",
			input:    encoded,
			wantType: "application/pdf",
			wantExt:  ".pdf",
			wantData: pdf,
		},
		{
			name:     "surrounding whitespace",
			input:    "  data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello")) + "\n",
			wantType: "text/plain",
			wantExt:  ".txt",
			wantData: []byte("hello"),
		},
		{name: "empty", input: "   ", wantErr: true},
		{name: "missing comma", input: "data:image/png;base64", wantErr: true},
		{name: "not base64 encoded", input: "data:text/plain,hello", wantErr: true},
		{name: "invalid payload", input: "data:image/png;base64,@@@", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := DecodeDataURL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, payload.ContentType)
			assert.Equal(t, tt.wantExt, payload.Extension())
			assert.Equal(t, tt.wantData, payload.Data)
		})
	}
}

func TestIsDataURL(t *testing.T) {
	assert.True(t, IsDataURL(" data:image/png;base64,AAAA"))
	assert.False(t, IsDataURL("https://cdn.example.com/a.png"))
	assert.False(t, IsDataURL(""))
}

func TestPayloadExtension_Unknown(t *testing.T) {
	assert.Equal(t, ".bin", Payload{ContentType: "application/zip"}.Extension())
	assert.Equal(t, ".jpg", Payload{ContentType: "image/jpeg"}.Extension())
}

func TestFormatSortKey(t *testing.T) {
	earlier := time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC)
	later := earlier.Add(1500 * time.Millisecond)

	assert.Equal(t, "2024-03-01T09:05:00.000Z", FormatSortKey(earlier))
	assert.Less(t, FormatSortKey(earlier), FormatSortKey(later))

	now := NowUTC()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%int(time.Millisecond))
}
