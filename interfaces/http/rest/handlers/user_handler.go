package handlers

import (
	"context"
	"net/http"

	"hirenest/domain/core/entities"
	"hirenest/pkg/common"
	pkgerrors "hirenest/pkg/errors"
)

// ProfileService is the part of the user service used over HTTP
type ProfileService interface {
	GetProfile(ctx context.Context, username string) (*entities.User, error)
	Suggestions(ctx context.Context, userID string) ([]entities.UserSummary, error)
	UpdateProfile(ctx context.Context, userID string, changes entities.ProfileChanges) (*entities.User, error)
}

// UserHandler handles profile requests
type UserHandler struct {
	profiles ProfileService
	errors   *pkgerrors.ErrorHandler
}

// NewUserHandler creates a new user handler
func NewUserHandler(profiles ProfileService, errs *pkgerrors.ErrorHandler) *UserHandler {
	return &UserHandler{profiles: profiles, errors: errs}
}

// Suggestions handles GET /users/suggestions
func (h *UserHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	suggestions, err := h.profiles.Suggestions(r.Context(), caller.UserID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, suggestions)
}

// GetProfile handles GET /users/{username}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username, err := pathParam(r, "username", "Username is required")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	user, err := h.profiles.GetProfile(r.Context(), username)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /users/profile. Unknown keys are rejected.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var changes entities.ProfileChanges
	if err := common.ParseJSONBody(w, r, &changes, true); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	user, err := h.profiles.UpdateProfile(r.Context(), caller.UserID, changes)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, user)
}
