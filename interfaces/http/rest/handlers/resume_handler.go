package handlers

import (
	"context"
	"net/http"

	"hirenest/application/services"
	"hirenest/pkg/common"
	pkgerrors "hirenest/pkg/errors"
)

// ResumeTailor is the part of the resume service used over HTTP
type ResumeTailor interface {
	Restructure(ctx context.Context, userID string, req services.RestructureRequest) (*services.RestructureResult, error)
}

// ResumeHandler handles resume tailoring requests
type ResumeHandler struct {
	resumes ResumeTailor
	errors  *pkgerrors.ErrorHandler
}

// NewResumeHandler creates a new resume handler
func NewResumeHandler(resumes ResumeTailor, errs *pkgerrors.ErrorHandler) *ResumeHandler {
	return &ResumeHandler{resumes: resumes, errors: errs}
}

// Restructure handles POST /restructure. The pipeline runs under the
// request context, so a client that disconnects cancels it.
func (h *ResumeHandler) Restructure(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req services.RestructureRequest
	if err := common.ParseJSONBody(w, r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.resumes.Restructure(r.Context(), caller.UserID, req)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}
