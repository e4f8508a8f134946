package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// User-facing messages.
const (
	MsgRequired            = "This field is required"
	MsgTitleRequired       = "Note title is required"
	MsgDescriptionRequired = "Note description is required"
)

var (
	ErrRequired = errors.New("required")
	ErrTooLong  = errors.New("too long")
)

// Error is a failed rule for one input field.
type Error struct {
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Message returns the user-facing text of a validation error, or "" for nil.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}

// Field returns the field a validation error refers to, or "".
func Field(err error) string {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Field
	}
	return ""
}

// Limits caps note field lengths, counted in runes.
type Limits struct {
	MaxTitle       int
	MaxDescription int
}

func ValidateRequired(value string) error {
	if strings.TrimSpace(value) == "" {
		return &Error{Message: MsgRequired, Err: ErrRequired}
	}
	return nil
}

// ValidateLoginCredentials checks username first, then password.
func ValidateLoginCredentials(username, password string) error {
	return first(LoginFieldErrors(username, password))
}

// LoginFieldErrors reports every empty login field, username first.
func LoginFieldErrors(username, password string) []error {
	var errs []error
	if ValidateRequired(username) != nil {
		errs = append(errs, &Error{Field: "username", Message: MsgRequired, Err: ErrRequired})
	}
	if ValidateRequired(password) != nil {
		errs = append(errs, &Error{Field: "password", Message: MsgRequired, Err: ErrRequired})
	}
	return errs
}

// ValidateNoteData reports the first missing field, title before description.
func ValidateNoteData(title, description string) error {
	return first(NoteFieldErrors(title, description))
}

// NoteFieldErrors reports every missing note field, title first.
func NoteFieldErrors(title, description string) []error {
	var errs []error
	if ValidateRequired(title) != nil {
		errs = append(errs, &Error{Field: "title", Message: MsgTitleRequired, Err: ErrRequired})
	}
	if ValidateRequired(description) != nil {
		errs = append(errs, &Error{Field: "description", Message: MsgDescriptionRequired, Err: ErrRequired})
	}
	return errs
}

func first(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// ValidateNoteLength checks the trimmed fields against the limits.
// A zero limit disables that check.
func ValidateNoteLength(title, description string, limits Limits) error {
	if limits.MaxTitle > 0 && utf8.RuneCountInString(strings.TrimSpace(title)) > limits.MaxTitle {
		return &Error{
			Field:   "title",
			Message: fmt.Sprintf("Note title must be at most %d characters", limits.MaxTitle),
			Err:     ErrTooLong,
		}
	}
	if limits.MaxDescription > 0 && utf8.RuneCountInString(strings.TrimSpace(description)) > limits.MaxDescription {
		return &Error{
			Field:   "description",
			Message: fmt.Sprintf("Note description must be at most %d characters", limits.MaxDescription),
			Err:     ErrTooLong,
		}
	}
	return nil
}
