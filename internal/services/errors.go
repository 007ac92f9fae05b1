// Package services holds the directory operations around the lifecycle engine:
// training slots, colleges, student profiles, session validation and health.
package services

import "errors"

var (
	// ErrNotFound is returned when the addressed record does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned for unusable input
	ErrInvalid = errors.New("invalid input")
	// ErrDuplicate is returned when a unique name is already taken
	ErrDuplicate = errors.New("already exists")
	// ErrInUse is returned when a record is still referenced by applications
	ErrInUse = errors.New("in use")
	// ErrResolved is returned for a temp college that was already promoted or merged
	ErrResolved = errors.New("already resolved")
)
