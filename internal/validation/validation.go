package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxAnswerLength caps a journal answer, in characters
const MaxAnswerLength = 500

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrRequired = errors.New("value is required")
	ErrInvalid  = errors.New("value is invalid")
	ErrTooLong  = errors.New("value is too long")
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required", Err: ErrRequired}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format", Err: ErrInvalid}
	}
	return nil
}

// ValidateAnswer trims a journal answer, drops control characters other than
// newlines and checks it is neither blank nor too long
func ValidateAnswer(field, text string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, text)
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return "", ValidationError{Field: field, Message: "answer is required", Err: ErrRequired}
	}
	if utf8.RuneCountInString(cleaned) > MaxAnswerLength {
		return "", ValidationError{
			Field:   field,
			Message: fmt.Sprintf("answer must be at most %d characters", MaxAnswerLength),
			Err:     ErrTooLong,
		}
	}
	return cleaned, nil
}
