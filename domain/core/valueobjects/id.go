package valueobjects

import (
	"github.com/google/uuid"
)

// NewID returns a new random identifier for any record
func NewID() string {
	return uuid.New().String()
}

// IsValidID reports whether s is a well-formed record identifier
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
