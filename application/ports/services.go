package ports

import (
	"context"
	"time"

	"hirenest/domain/events"
)

// BlobStore is the object storage collaborator for images, resumes and
// generated documents. References returned by Put are opaque to callers.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, ref string) ([]byte, string, error)
	Delete(ctx context.Context, ref string) error
}

// Email is one outbound message
type Email struct {
	To       string
	ToName   string
	Subject  string
	HTML     string
	Category string
}

// Mailer delivers a single email synchronously
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// EmailQueue accepts emails for background delivery. Enqueue never blocks and
// reports whether the email was accepted.
type EmailQueue interface {
	Enqueue(email Email) bool
}

// TextTransformer rewrites a document according to an instruction
type TextTransformer interface {
	Transform(ctx context.Context, document, instruction string) (string, error)
}

// DocumentExtractor turns an uploaded document into plain text
type DocumentExtractor interface {
	ExtractText(ctx context.Context, data []byte, contentType string) (string, error)
}

// DocumentRenderer renders plain text into a PDF document
type DocumentRenderer interface {
	RenderPDF(ctx context.Context, title, text string) ([]byte, error)
}

// EventBus defines the interface for publishing domain events
type EventBus interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching serialized values
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
