package entities

import (
	"time"

	"hirenest/domain/core/valueobjects"
	"hirenest/domain/events"
	pkgerrors "hirenest/pkg/errors"
)

// ConnectionStatus is the lifecycle state of a connection request
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// IsTerminal reports whether no further transition is allowed
func (s ConnectionStatus) IsTerminal() bool {
	return s == ConnectionAccepted || s == ConnectionRejected
}

// ConnectionRequest is a directed invitation from sender to recipient.
// It moves from pending to accepted or rejected exactly once.
type ConnectionRequest struct {
	id          string
	senderID    string
	recipientID string
	status      ConnectionStatus
	createdAt   time.Time
	updatedAt   time.Time

	events []events.DomainEvent
}

// NewConnectionRequest creates a pending request
func NewConnectionRequest(senderID, recipientID string, now time.Time) (*ConnectionRequest, error) {
	if senderID == "" || recipientID == "" {
		return nil, pkgerrors.NewValidationError("sender and recipient are required")
	}
	if senderID == recipientID {
		return nil, pkgerrors.NewValidationError("You can't send connection request to yourself.").
			WithCode("INVALID_OPERATION")
	}

	req := &ConnectionRequest{
		id:          valueobjects.NewID(),
		senderID:    senderID,
		recipientID: recipientID,
		status:      ConnectionPending,
		createdAt:   now,
		updatedAt:   now,
	}
	req.addEvent(events.NewConnectionRequested(req.id, senderID, recipientID, now))
	return req, nil
}

// ReconstructConnectionRequest rebuilds a request from stored data
func ReconstructConnectionRequest(id, senderID, recipientID string, status ConnectionStatus, createdAt, updatedAt time.Time) *ConnectionRequest {
	return &ConnectionRequest{
		id:          id,
		senderID:    senderID,
		recipientID: recipientID,
		status:      status,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (r *ConnectionRequest) ID() string               { return r.id }
func (r *ConnectionRequest) SenderID() string         { return r.senderID }
func (r *ConnectionRequest) RecipientID() string      { return r.recipientID }
func (r *ConnectionRequest) Status() ConnectionStatus { return r.status }
func (r *ConnectionRequest) CreatedAt() time.Time     { return r.createdAt }
func (r *ConnectionRequest) UpdatedAt() time.Time     { return r.updatedAt }

// IsPending reports whether the request still awaits a decision
func (r *ConnectionRequest) IsPending() bool {
	return r.status == ConnectionPending
}

// Accept transitions the request to accepted on behalf of actingUserID.
// Ownership is checked before state, so a stranger always gets Forbidden.
func (r *ConnectionRequest) Accept(actingUserID string, now time.Time) error {
	if err := r.transition(actingUserID, ConnectionAccepted, now); err != nil {
		return err
	}
	r.addEvent(events.NewConnectionAccepted(r.id, r.senderID, r.recipientID, now))
	return nil
}

// Reject transitions the request to rejected on behalf of actingUserID
func (r *ConnectionRequest) Reject(actingUserID string, now time.Time) error {
	if err := r.transition(actingUserID, ConnectionRejected, now); err != nil {
		return err
	}
	r.addEvent(events.NewConnectionRejected(r.id, r.senderID, r.recipientID, now))
	return nil
}

func (r *ConnectionRequest) transition(actingUserID string, to ConnectionStatus, now time.Time) error {
	if actingUserID != r.recipientID {
		return pkgerrors.NewForbiddenError("Not authorized to respond to this request")
	}
	if r.status != ConnectionPending {
		return pkgerrors.NewInvalidStateError("Connection request has already been processed").
			WithDetails(map[string]interface{}{"status": string(r.status)})
	}
	r.status = to
	r.updatedAt = now
	return nil
}

// GetUncommittedEvents returns events raised since the last commit
func (r *ConnectionRequest) GetUncommittedEvents() []events.DomainEvent {
	return r.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (r *ConnectionRequest) MarkEventsAsCommitted() {
	r.events = nil
}

func (r *ConnectionRequest) addEvent(e events.DomainEvent) {
	r.events = append(r.events, e)
}

// IncomingRequest is a pending request enriched with its sender's profile
type IncomingRequest struct {
	ID        string            `json:"id"`
	Sender    ConnectionSummary `json:"sender"`
	Recipient string            `json:"recipient"`
	Status    ConnectionStatus  `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

// RelationshipStatus is the relationship of a viewer to another user
type RelationshipStatus string

const (
	RelationshipConnected    RelationshipStatus = "connected"
	RelationshipPending      RelationshipStatus = "pending"
	RelationshipReceived     RelationshipStatus = "received"
	RelationshipNotConnected RelationshipStatus = "not_connected"
)

// ConnectionStatusView is the answer to a relationship status query. RequestID
// is set only for the received state.
type ConnectionStatusView struct {
	Status    RelationshipStatus `json:"status"`
	RequestID string             `json:"requestId,omitempty"`
}
