// Package handlers adapts HTTP requests to the application services and
// buses. Handlers never build error responses themselves; every failure goes
// through the shared ErrorHandler.
package handlers

import (
	"net/http"
	"strings"

	"hirenest/pkg/auth"
	pkgerrors "hirenest/pkg/errors"

	"github.com/go-chi/chi/v5"
)

// currentUser returns the identity placed in the context by the
// authentication middleware.
func currentUser(r *http.Request) (*auth.UserContext, error) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return nil, pkgerrors.NewUnauthorizedError("")
	}
	return user, nil
}

// pathParam returns a trimmed chi URL parameter, or a validation error
// carrying message when it is empty.
func pathParam(r *http.Request, name, message string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		return "", pkgerrors.NewValidationError(message)
	}
	return value, nil
}
