package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[\w.@+\-]+$`)
)

const (
	maxUsernameLength = 150
	maxPasswordLength = 1024
	// MaxNoteLength bounds notebook notes in characters
	MaxNoteLength = 1000
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateUsername accepts what the backend's user model accepts:
// letters, digits and @.+-_ up to 150 characters.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return ValidationError{Field: "username", Message: "username is too long"}
	}
	if !usernameRegex.MatchString(username) {
		return ValidationError{Field: "username", Message: "username may only contain letters, digits and @.+-_"}
	}
	return nil
}

// ValidatePassword only checks presence and size. Password rules belong to
// the backend.
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) > maxPasswordLength {
		return ValidationError{Field: "password", Message: "password is too long"}
	}
	return nil
}

// NormalizeNote checks a notebook note's length. Notes are stored exactly
// as typed; a blank note clears it.
func NormalizeNote(note string) (string, error) {
	if strings.TrimSpace(note) == "" {
		return "", nil
	}
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return "", ValidationError{Field: "note", Message: fmt.Sprintf("note must be at most %d characters", MaxNoteLength)}
	}
	if !utf8.ValidString(note) {
		return "", ValidationError{Field: "note", Message: "note is not valid text"}
	}
	return note, nil
}
