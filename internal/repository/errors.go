package repository

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")

	// ErrDuplicatePhone is returned when registering a phone number that is
	// already taken.
	ErrDuplicatePhone = errors.New("repository: phone number already registered")
)
