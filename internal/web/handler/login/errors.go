// Package login provides HTTP handlers for signing the operator in.
//
// This file defines exported error values used throughout the login flow.
package login

import "errors"

var (
	// ErrInvalidFormData is returned when the submitted login form cannot be parsed
	// or fails validation.
	ErrInvalidFormData = errors.New("invalid form data")

	// ErrInvalidCredentials is returned when the business platform rejects the username
	// and password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrSessionRejected is returned when the platform accepted the password but rejected the
	// issued credential right after.
	ErrSessionRejected = errors.New("the platform rejected the new session, please sign in again")

	// ErrPlatformUnavailable is returned when the business platform could not be asked.
	ErrPlatformUnavailable = errors.New("business platform unavailable, please retry")
)
