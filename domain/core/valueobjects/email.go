package valueobjects

import (
	"regexp"
	"strings"

	pkgerrors "hirenest/pkg/errors"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
)

// NormalizeEmail lower-cases and trims an email address, rejecting anything
// that does not look like local@domain.tld.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !IsValidEmail(email) {
		return "", pkgerrors.NewValidationError("Invalid email format")
	}
	return email, nil
}

// IsValidEmail reports whether email has a plausible address shape.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeUsername trims a username and checks its character set.
func NormalizeUsername(username string, maxLength int) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", pkgerrors.NewValidationError("username is required")
	}
	if maxLength > 0 && len(username) > maxLength {
		return "", pkgerrors.NewValidationError("username is too long")
	}
	if !usernamePattern.MatchString(username) {
		return "", pkgerrors.NewValidationError("username may only contain letters, digits, '.', '_' and '-'")
	}
	return username, nil
}
