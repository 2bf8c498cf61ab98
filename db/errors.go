package db

import "errors"

var (
	// ErrInvalidInput is returned for empty or malformed addresses and user agents.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorageUnavailable is returned when the underlying persistence cannot be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
