package handlers

import (
	"context"
	"net/http"

	"hirenest/domain/core/entities"
	"hirenest/pkg/common"
	pkgerrors "hirenest/pkg/errors"
)

// NotificationLister is the part of the notification service used over HTTP
type NotificationLister interface {
	List(ctx context.Context, userID string) ([]entities.NotificationView, error)
	MarkRead(ctx context.Context, id, userID string) (*entities.Notification, error)
	Delete(ctx context.Context, id, userID string) error
}

// NotificationHandler handles notification requests
type NotificationHandler struct {
	notifications NotificationLister
	errors        *pkgerrors.ErrorHandler
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications NotificationLister, errs *pkgerrors.ErrorHandler) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, errors: errs}
}

// List handles GET /notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	notifications, err := h.notifications.List(r.Context(), caller.UserID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, notifications)
}

// MarkRead handles PUT /notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	id, err := pathParam(r, "id", "Notification ID is required")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	notification, err := h.notifications.MarkRead(r.Context(), id, caller.UserID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, notification)
}

// Delete handles DELETE /notifications/{id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	id, err := pathParam(r, "id", "Notification ID is required")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.notifications.Delete(r.Context(), id, caller.UserID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Notification deleted successfully")
}
