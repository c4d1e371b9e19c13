package repositories

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned when an ID cannot be parsed
	ErrInvalidID = errors.New("invalid id")
	// ErrConflict is returned when a unique relation already exists
	ErrConflict = errors.New("already exists")
)
