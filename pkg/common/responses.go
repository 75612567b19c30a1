package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	pkgerrors "hirenest/pkg/errors"
)

// MaxBodyBytes bounds request bodies. Inline images and resumes arrive as
// data URLs, so the limit is generous.
const MaxBodyBytes int64 = 12 << 20

// MessageResponse is the body of operations that only acknowledge success
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondJSON sends data as a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondMessage sends {"message": message}
func RespondMessage(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, MessageResponse{Message: message})
}

// ParseJSONBody decodes the request body into v. With strict set, keys that
// do not map to a field of v are rejected. Decoding problems are returned as
// validation errors.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}, strict bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	if strict {
		decoder.DisallowUnknownFields()
	}

	if err := decoder.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return pkgerrors.NewValidationError("Request body is required")
		case errors.As(err, &maxErr):
			return pkgerrors.NewValidationError(fmt.Sprintf("Request body must not exceed %d bytes", maxErr.Limit))
		default:
			return pkgerrors.NewValidationError("Invalid request body: " + err.Error()).WithCause(err)
		}
	}
	return nil
}
