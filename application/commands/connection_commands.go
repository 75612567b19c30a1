package commands

import (
	"hirenest/domain/core/entities"
	pkgerrors "hirenest/pkg/errors"
)

// SendConnectionRequestCommand invites RecipientID to connect with SenderID
type SendConnectionRequestCommand struct {
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
}

// Validate checks the command
func (c SendConnectionRequestCommand) Validate() error {
	if c.SenderID == "" || c.RecipientID == "" {
		return pkgerrors.NewValidationError("sender and recipient are required")
	}
	if c.SenderID == c.RecipientID {
		return pkgerrors.NewValidationError("You can't send connection request to yourself.").
			WithCode("INVALID_OPERATION")
	}
	return nil
}

// SendConnectionRequestResult reports the pending request. Created is false
// when an identical pending request already existed.
type SendConnectionRequestResult struct {
	Request *entities.ConnectionRequest
	Created bool
}

// AcceptConnectionRequestCommand accepts RequestID on behalf of ActingUserID
type AcceptConnectionRequestCommand struct {
	RequestID    string `json:"request_id"`
	ActingUserID string `json:"acting_user_id"`
}

// Validate checks the command
func (c AcceptConnectionRequestCommand) Validate() error {
	return validateDecision(c.RequestID, c.ActingUserID)
}

// RejectConnectionRequestCommand rejects RequestID on behalf of ActingUserID
type RejectConnectionRequestCommand struct {
	RequestID    string `json:"request_id"`
	ActingUserID string `json:"acting_user_id"`
}

// Validate checks the command
func (c RejectConnectionRequestCommand) Validate() error {
	return validateDecision(c.RequestID, c.ActingUserID)
}

func validateDecision(requestID, actingUserID string) error {
	if requestID == "" {
		return pkgerrors.NewValidationError("Invalid request ID")
	}
	if actingUserID == "" {
		return pkgerrors.NewUnauthorizedError("")
	}
	return nil
}

// RemoveConnectionCommand drops the connection between UserID and OtherID
type RemoveConnectionCommand struct {
	UserID  string `json:"user_id"`
	OtherID string `json:"other_id"`
}

// Validate checks the command
func (c RemoveConnectionCommand) Validate() error {
	if c.UserID == "" || c.OtherID == "" {
		return pkgerrors.NewValidationError("user ids are required")
	}
	if c.UserID == c.OtherID {
		return pkgerrors.NewValidationError("You can't remove a connection to yourself.").
			WithCode("INVALID_OPERATION")
	}
	return nil
}
