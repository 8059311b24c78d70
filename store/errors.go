package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a query that must yield a row yielded none.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable indicates the store could not be reached or a query
	// failed while executing.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrInvalidDriver indicates an unsupported driver name.
	ErrInvalidDriver = errors.New("invalid driver")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
