// Package apperr defines the error kinds the service distinguishes at its
// boundaries. A habit that doesn't exist and a habit owned by another user
// both surface as ErrNotFound so callers cannot probe for other users' data.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }
