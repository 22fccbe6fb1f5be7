package identity

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidCode   = errors.New("invalid registration code")
	ErrExpired       = errors.New("registration code has expired")
	ErrAlreadyUsed   = errors.New("registration code has already been used")
	ErrWrongPassword = errors.New("current password is incorrect")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDependency    = errors.New("dependency failure")
)

// Error pairs an error kind with a message that is safe to show callers.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func NewError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Dependency wraps a storage or infrastructure failure. The cause is kept for
// logs; PublicMessage never exposes it.
func Dependency(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDependency) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDependency, err)
}

var kinds = []error{
	ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict, ErrInvalidCode,
	ErrExpired, ErrAlreadyUsed, ErrWrongPassword, ErrInvalidInput, ErrDependency,
}

// Kind reports which sentinel err belongs to, or nil for unclassified errors.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// PublicMessage returns the text a response body may carry for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && !errors.Is(e.Kind, ErrDependency) && e.Msg != "" {
		return e.Msg
	}
	switch k := Kind(err); k {
	case nil, ErrDependency:
		return "internal error"
	default:
		return k.Error()
	}
}
