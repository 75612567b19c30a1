package ports

import (
	"context"

	"hirenest/domain/core/entities"
)

// UserRepository defines the interface for the identity store
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type UserRepository interface {
	// Create persists a new user. Username and email uniqueness are enforced
	// atomically; a clash returns a Conflict error coded USERNAME_TAKEN or EMAIL_TAKEN.
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by id (NotFound when absent)
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByUsername retrieves a user by unique handle
	GetByUsername(ctx context.Context, username string) (*entities.User, error)

	// GetByEmail retrieves a user by unique contact address
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// GetByIDs retrieves the users that exist among ids, in the order given
	GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error)

	// UpdateProfile writes profile fields. previousUsername is the handle
	// before the change so its uniqueness claim can be moved.
	UpdateProfile(ctx context.Context, user *entities.User, previousUsername string) error

	// ListSuggestions returns up to limit users whose id is not in exclude
	ListSuggestions(ctx context.Context, exclude []string, limit int) ([]*entities.User, error)
}

// ConnectionRepository persists connection requests and the symmetric
// connection edges. Every multi-record change is applied atomically.
type ConnectionRepository interface {
	// CreateRequest stores req unless a pending request for the same ordered
	// pair exists. It returns the stored pending request and whether it was created.
	CreateRequest(ctx context.Context, req *entities.ConnectionRequest) (*entities.ConnectionRequest, bool, error)

	// GetRequest retrieves a request by id (NotFound when absent)
	GetRequest(ctx context.Context, id string) (*entities.ConnectionRequest, error)

	// FindPending returns the pending request from sender to recipient, or nil
	FindPending(ctx context.Context, senderID, recipientID string) (*entities.ConnectionRequest, error)

	// ListIncoming returns pending requests addressed to recipientID, newest first
	ListIncoming(ctx context.Context, recipientID string) ([]*entities.ConnectionRequest, error)

	// Accept persists an accepted request together with both connection
	// edges and the sender's notification. It fails with InvalidState when the
	// stored request is no longer pending.
	Accept(ctx context.Context, req *entities.ConnectionRequest, notification *entities.Notification) error

	// Reject persists a rejected request; InvalidState when no longer pending
	Reject(ctx context.Context, req *entities.ConnectionRequest) error

	// RemoveConnection drops both edges between the two users. Idempotent.
	RemoveConnection(ctx context.Context, userID, otherID string) error
}

// PostRepository defines the interface for post persistence
type PostRepository interface {
	Create(ctx context.Context, post *entities.Post) error

	// GetByID retrieves a post (NotFound when absent)
	GetByID(ctx context.Context, id string) (*entities.Post, error)

	// Update writes likes, comments and content when the stored version still
	// equals expectedVersion; otherwise it returns a Conflict coded CONCURRENT_MODIFICATION.
	Update(ctx context.Context, post *entities.Post, expectedVersion int) error

	Delete(ctx context.Context, id string) error

	// ListByAuthors returns posts written by any of authorIDs, newest first
	ListByAuthors(ctx context.Context, authorIDs []string, limit int) ([]*entities.Post, error)
}

// NotificationRepository defines the interface for the notification sink
type NotificationRepository interface {
	Create(ctx context.Context, notification *entities.Notification) error

	// ListByRecipient returns notifications for a user, newest first
	ListByRecipient(ctx context.Context, recipientID string) ([]*entities.Notification, error)

	// MarkRead sets the read flag when the notification belongs to recipientID
	MarkRead(ctx context.Context, id, recipientID string) (*entities.Notification, error)

	// Delete removes the notification when it belongs to recipientID
	Delete(ctx context.Context, id, recipientID string) error
}

// Conflict codes returned by repositories
const (
	CodeUsernameTaken          = "USERNAME_TAKEN"
	CodeEmailTaken             = "EMAIL_TAKEN"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)
