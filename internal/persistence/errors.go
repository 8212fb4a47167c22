package persistence

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeNotFound = "NOT_FOUND"
	textCodeBadState = "BAD_STATE"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("layouts: not found")
	// ErrBadState is matched by every BadStateError.
	ErrBadState = errors.New("layouts: bad state")
)

// NotFoundError is returned when an id, locale, placeholder or identifier
// does not resolve in the requested status.
type NotFoundError struct {
	Resource string
	Key      string
}

// NewNotFound builds a NotFoundError for the resource and key.
func NewNotFound(resource string, key any) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: fmt.Sprint(key)}
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("could not find %s", e.Resource)
	}
	return fmt.Sprintf("could not find %s with identifier %q", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// BadStateError is returned when an invariant or precondition is violated.
// Argument names the offending argument, Reason is human readable.
type BadStateError struct {
	Argument string
	Reason   string
}

// NewBadState builds a BadStateError for the argument.
func NewBadState(argument, reason string) *BadStateError {
	return &BadStateError{Argument: argument, Reason: reason}
}

func (e *BadStateError) Error() string {
	return fmt.Sprintf("argument %q has an invalid state. %s", e.Argument, e.Reason)
}

func (e *BadStateError) Unwrap() error {
	return ErrBadState
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsBadState reports whether err carries a BadStateError.
func IsBadState(err error) bool {
	return errors.Is(err, ErrBadState)
}

// Categorize tags engine errors with go-errors categories so API layers can
// map them onto transport status codes. Unknown errors pass through untouched.
func Categorize(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return goerrors.Wrap(err, goerrors.CategoryNotFound, notFound.Error()).
			WithTextCode(textCodeNotFound)
	}
	var badState *BadStateError
	if errors.As(err, &badState) {
		return goerrors.Wrap(err, goerrors.CategoryValidation, badState.Error()).
			WithTextCode(textCodeBadState)
	}
	return err
}
