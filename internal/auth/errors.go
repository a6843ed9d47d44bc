package auth

import "errors"

var (
	// ErrNoChecks is returned when a middleware is built without permission checks.
	ErrNoChecks = errors.New("no permission checks given")
)
