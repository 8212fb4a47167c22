package layouts

import "github.com/goliatone/go-layouts/internal/persistence"

var (
	// ErrNotFound matches every NotFoundError returned by the engine.
	ErrNotFound = persistence.ErrNotFound
	// ErrBadState matches every BadStateError returned by the engine.
	ErrBadState = persistence.ErrBadState
)

type (
	NotFoundError = persistence.NotFoundError
	BadStateError = persistence.BadStateError
)

func IsNotFound(err error) bool { return persistence.IsNotFound(err) }

func IsBadState(err error) bool { return persistence.IsBadState(err) }

// CategorizeError tags engine errors with go-errors categories for API layers.
func CategorizeError(err error) error { return persistence.Categorize(err) }
