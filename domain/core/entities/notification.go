package entities

import (
	"time"

	"hirenest/domain/core/valueobjects"
	pkgerrors "hirenest/pkg/errors"
)

// NotificationType is the kind of event a notification reports
type NotificationType string

const (
	NotificationLike               NotificationType = "like"
	NotificationComment            NotificationType = "comment"
	NotificationConnectionAccepted NotificationType = "connectionAccepted"
)

// Notification is an in-app record of something that happened to a user
type Notification struct {
	ID            string           `json:"id"`
	RecipientID   string           `json:"recipient"`
	Type          NotificationType `json:"type"`
	RelatedUserID string           `json:"relatedUserId,omitempty"`
	RelatedPostID string           `json:"relatedPostId,omitempty"`
	Read          bool             `json:"read"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// NewNotification creates an unread notification
func NewNotification(recipientID string, kind NotificationType, relatedUserID, relatedPostID string, now time.Time) (*Notification, error) {
	if recipientID == "" {
		return nil, pkgerrors.NewValidationError("recipient is required")
	}
	switch kind {
	case NotificationLike, NotificationComment, NotificationConnectionAccepted:
	default:
		return nil, pkgerrors.NewValidationError("unknown notification type")
	}

	return &Notification{
		ID:            valueobjects.NewID(),
		RecipientID:   recipientID,
		Type:          kind,
		RelatedUserID: relatedUserID,
		RelatedPostID: relatedPostID,
		CreatedAt:     now,
	}, nil
}

// PostExcerpt is the part of a post shown next to a notification
type PostExcerpt struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

// NotificationView is a notification with related user and post resolved
type NotificationView struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient"`
	Type        NotificationType `json:"type"`
	RelatedUser *UserSummary     `json:"relatedUser,omitempty"`
	RelatedPost *PostExcerpt     `json:"relatedPost,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"createdAt"`
}
