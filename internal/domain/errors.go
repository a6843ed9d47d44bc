package domain

import "errors"

var (
	// ErrUnauthorized is returned when the remote platform rejects the stored credential
	// or when no credential is stored at all.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
