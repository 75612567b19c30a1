package handlers

import (
	"context"
	"net/http"

	"hirenest/application/services"
	"hirenest/domain/core/entities"
	"hirenest/pkg/auth"
	"hirenest/pkg/common"
	pkgerrors "hirenest/pkg/errors"

	"go.uber.org/zap"
)

// AccountService is the part of the auth service used over HTTP
type AccountService interface {
	Signup(ctx context.Context, req services.SignupRequest) (*entities.User, string, error)
	Login(ctx context.Context, req services.LoginRequest) (*entities.User, string, error)
	Me(ctx context.Context, userID string) (*entities.User, error)
}

// AuthHandler handles signup, login and session requests
type AuthHandler struct {
	accounts     AccountService
	errors       *pkgerrors.ErrorHandler
	secureCookie bool
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler. secureCookie marks the session
// cookie Secure, which production deployments require.
func NewAuthHandler(accounts AccountService, errs *pkgerrors.ErrorHandler, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		errors:       errs,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if err := common.ParseJSONBody(w, r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	user, token, err := h.accounts.Signup(r.Context(), req)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	auth.SetSessionCookie(w, token, h.secureCookie)
	h.logger.Info("User signed up", zap.String("userID", user.ID))
	common.RespondMessage(w, http.StatusCreated, "User created successfully")
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := common.ParseJSONBody(w, r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	_, token, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	auth.SetSessionCookie(w, token, h.secureCookie)
	common.RespondMessage(w, http.StatusOK, "Logged in successfully")
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookie)
	common.RespondMessage(w, http.StatusOK, "Logged out successfully")
}

// MyProfile handles GET /auth/my-profile
func (h *AuthHandler) MyProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	user, err := h.accounts.Me(r.Context(), caller.UserID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, user)
}
