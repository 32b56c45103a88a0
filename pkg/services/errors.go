// Package services contains the application's business logic, composed from
// the repositories, outbound clients and the search subsystem.
package services

import "errors"

// Sentinel errors the API layer maps to HTTP status codes
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrForbidden          = errors.New("operation not permitted")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrInvalidInput       = errors.New("invalid input")
)
