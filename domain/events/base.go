package events

import (
	"time"
)

// SourceBackend is the event source name used on the event bus
const SourceBackend = "hirenest.backend"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     1,
	}
}

// Event type names
const (
	TypeUserRegistered      = "user.registered"
	TypeProfileUpdated      = "user.profile_updated"
	TypeConnectionRequested = "connection.requested"
	TypeConnectionAccepted  = "connection.accepted"
	TypeConnectionRejected  = "connection.rejected"
	TypeConnectionRemoved   = "connection.removed"
	TypePostCreated         = "post.created"
	TypePostDeleted         = "post.deleted"
	TypePostLiked           = "post.liked"
	TypePostCommented       = "post.commented"
	TypeResumeRestructured  = "resume.restructured"
)

// User Events

// UserRegistered is raised when an account is created
type UserRegistered struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// NewUserRegistered creates a UserRegistered event
func NewUserRegistered(userID, username string, timestamp time.Time) UserRegistered {
	return UserRegistered{
		BaseEvent: newBase(userID, TypeUserRegistered, timestamp),
		UserID:    userID,
		Username:  username,
	}
}

// ProfileUpdated is raised when a user changes profile fields
type ProfileUpdated struct {
	BaseEvent
	UserID string   `json:"user_id"`
	Fields []string `json:"fields"`
}

// NewProfileUpdated creates a ProfileUpdated event
func NewProfileUpdated(userID string, fields []string, timestamp time.Time) ProfileUpdated {
	return ProfileUpdated{
		BaseEvent: newBase(userID, TypeProfileUpdated, timestamp),
		UserID:    userID,
		Fields:    fields,
	}
}

// Connection Events

// ConnectionRequested is raised when a user invites another user
type ConnectionRequested struct {
	BaseEvent
	RequestID   string `json:"request_id"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
}

// NewConnectionRequested creates a ConnectionRequested event
func NewConnectionRequested(requestID, senderID, recipientID string, timestamp time.Time) ConnectionRequested {
	return ConnectionRequested{
		BaseEvent:   newBase(requestID, TypeConnectionRequested, timestamp),
		RequestID:   requestID,
		SenderID:    senderID,
		RecipientID: recipientID,
	}
}

// ConnectionAccepted is raised when the recipient accepts a request
type ConnectionAccepted struct {
	BaseEvent
	RequestID   string `json:"request_id"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
}

// NewConnectionAccepted creates a ConnectionAccepted event
func NewConnectionAccepted(requestID, senderID, recipientID string, timestamp time.Time) ConnectionAccepted {
	return ConnectionAccepted{
		BaseEvent:   newBase(requestID, TypeConnectionAccepted, timestamp),
		RequestID:   requestID,
		SenderID:    senderID,
		RecipientID: recipientID,
	}
}

// ConnectionRejected is raised when the recipient rejects a request
type ConnectionRejected struct {
	BaseEvent
	RequestID   string `json:"request_id"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
}

// NewConnectionRejected creates a ConnectionRejected event
func NewConnectionRejected(requestID, senderID, recipientID string, timestamp time.Time) ConnectionRejected {
	return ConnectionRejected{
		BaseEvent:   newBase(requestID, TypeConnectionRejected, timestamp),
		RequestID:   requestID,
		SenderID:    senderID,
		RecipientID: recipientID,
	}
}

// ConnectionRemoved is raised when either party drops a connection
type ConnectionRemoved struct {
	BaseEvent
	UserID  string `json:"user_id"`
	OtherID string `json:"other_id"`
}

// NewConnectionRemoved creates a ConnectionRemoved event
func NewConnectionRemoved(userID, otherID string, timestamp time.Time) ConnectionRemoved {
	return ConnectionRemoved{
		BaseEvent: newBase(userID, TypeConnectionRemoved, timestamp),
		UserID:    userID,
		OtherID:   otherID,
	}
}

// Post Events

// PostCreated is raised when a post is published
type PostCreated struct {
	BaseEvent
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
	HasImage bool   `json:"has_image"`
}

// NewPostCreated creates a PostCreated event
func NewPostCreated(postID, authorID string, hasImage bool, timestamp time.Time) PostCreated {
	return PostCreated{
		BaseEvent: newBase(postID, TypePostCreated, timestamp),
		PostID:    postID,
		AuthorID:  authorID,
		HasImage:  hasImage,
	}
}

// PostDeleted is raised when an author deletes a post
type PostDeleted struct {
	BaseEvent
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
}

// NewPostDeleted creates a PostDeleted event
func NewPostDeleted(postID, authorID string, timestamp time.Time) PostDeleted {
	return PostDeleted{
		BaseEvent: newBase(postID, TypePostDeleted, timestamp),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// PostLiked is raised when a like is added or removed
type PostLiked struct {
	BaseEvent
	PostID string `json:"post_id"`
	UserID string `json:"user_id"`
	Liked  bool   `json:"liked"`
}

// NewPostLiked creates a PostLiked event
func NewPostLiked(postID, userID string, liked bool, timestamp time.Time) PostLiked {
	return PostLiked{
		BaseEvent: newBase(postID, TypePostLiked, timestamp),
		PostID:    postID,
		UserID:    userID,
		Liked:     liked,
	}
}

// PostCommented is raised when a comment is appended
type PostCommented struct {
	BaseEvent
	PostID    string `json:"post_id"`
	CommentID string `json:"comment_id"`
	UserID    string `json:"user_id"`
}

// NewPostCommented creates a PostCommented event
func NewPostCommented(postID, commentID, userID string, timestamp time.Time) PostCommented {
	return PostCommented{
		BaseEvent: newBase(postID, TypePostCommented, timestamp),
		PostID:    postID,
		CommentID: commentID,
		UserID:    userID,
	}
}

// ResumeRestructured is raised when a tailored resume has been stored
type ResumeRestructured struct {
	BaseEvent
	UserID    string `json:"user_id"`
	OutputRef string `json:"output_ref"`
}

// NewResumeRestructured creates a ResumeRestructured event
func NewResumeRestructured(userID, outputRef string, timestamp time.Time) ResumeRestructured {
	return ResumeRestructured{
		BaseEvent: newBase(userID, TypeResumeRestructured, timestamp),
		UserID:    userID,
		OutputRef: outputRef,
	}
}
