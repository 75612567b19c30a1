package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "hirenest/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileBody struct {
	Name     string `json:"name"`
	Headline string `json:"headline"`
}

func TestParseJSONBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		strict  bool
		want    profileBody
		wantErr string
	}{
		{name: "valid", body: `{"name":"Alice","headline":"Engineer"}`, want: profileBody{Name: "Alice", Headline: "Engineer"}},
		{name: "unknown keys ignored when lenient", body: `{"name":"Alice","role":"admin"}`, want: profileBody{Name: "Alice"}},
		{name: "unknown keys rejected when strict", body: `{"name":"Alice","role":"admin"}`, strict: true, wantErr: "unknown field"},
		{name: "empty body", body: "", wantErr: "Request body is required"},
		{name: "malformed", body: `{"name":`, wantErr: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/v1/users/profile", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var got profileBody
			err := ParseJSONBody(rec, req, &got, tt.strict)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONBody_TooLarge(t *testing.T) {
	payload := `{"name":"` + strings.Repeat("a", int(MaxBodyBytes)) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts/create", strings.NewReader(payload))

	var got profileBody
	err := ParseJSONBody(httptest.NewRecorder(), req, &got, false)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "must not exceed")
}

func TestRespondMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondMessage(rec, http.StatusCreated, "User created successfully")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body MessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "User created successfully", body.Message)
}
