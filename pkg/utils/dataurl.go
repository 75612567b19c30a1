package utils

import (
	"encoding/base64"
	"net/http"
	"strings"

	apperrors "hirenest/pkg/errors"
)

// Payload is a decoded inline upload.
type Payload struct {
	Data        []byte
	ContentType string
}

// Extension returns a file extension for the payload's content type.
func (p Payload) Extension() string {
	switch p.ContentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	case "text/plain", "text/plain; charset=utf-8":
		return ".txt"
	default:
		return ".bin"
	}
}

// DecodeDataURL decodes a `data:<type>;base64,<payload>` string. Bare base64
// without the data URL prefix is accepted and its type is sniffed.
func DecodeDataURL(s string) (Payload, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Payload{}, apperrors.NewValidationError("upload payload is empty")
	}

	contentType := ""
	encoded := s
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return Payload{}, apperrors.NewValidationError("malformed data url")
		}
		meta := s[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return Payload{}, apperrors.NewValidationError("data url must be base64 encoded")
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		encoded = s[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Payload{}, apperrors.NewValidationError("upload payload is not valid base64").WithCause(err)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return Payload{Data: data, ContentType: contentType}, nil
}

// IsDataURL reports whether s looks like an inline upload rather than an
// existing blob reference.
func IsDataURL(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}
