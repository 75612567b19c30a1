package queries

import (
	pkgerrors "hirenest/pkg/errors"
)

// ListIncomingRequestsQuery lists pending requests addressed to UserID
type ListIncomingRequestsQuery struct {
	UserID string `json:"user_id"`
}

// Validate checks the query
func (q ListIncomingRequestsQuery) Validate() error {
	return requireUser(q.UserID)
}

// ListConnectionsQuery lists the connections of UserID
type ListConnectionsQuery struct {
	UserID string `json:"user_id"`
}

// Validate checks the query
func (q ListConnectionsQuery) Validate() error {
	return requireUser(q.UserID)
}

// GetConnectionStatusQuery resolves how ViewerID relates to TargetID
type GetConnectionStatusQuery struct {
	ViewerID string `json:"viewer_id"`
	TargetID string `json:"target_id"`
}

// Validate checks the query
func (q GetConnectionStatusQuery) Validate() error {
	if err := requireUser(q.ViewerID); err != nil {
		return err
	}
	if q.TargetID == "" {
		return pkgerrors.NewValidationError("user id is required")
	}
	return nil
}

func requireUser(userID string) error {
	if userID == "" {
		return pkgerrors.NewUnauthorizedError("")
	}
	return nil
}
