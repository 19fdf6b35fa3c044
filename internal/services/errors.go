package services

import "errors"

// Sentinel errors surfaced by the service layer. Handlers map them to HTTP
// status codes; everything else is treated as an internal error.
var (
	// ErrIdentifierNotFound means a non-email login identifier matched no
	// username.
	ErrIdentifierNotFound = errors.New("identifier not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailRegistered is the distinct signup error for an email that
	// already has an account; it must never be reported as success.
	ErrEmailRegistered   = errors.New("email already registered")
	ErrEmailNotConfirmed = errors.New("email address not confirmed")
	ErrInvalidEmail      = errors.New("a valid email address is required")
	ErrUsernameTaken     = errors.New("username already taken")
	// ErrUsernameImmutable: usernames can be attached once but never changed.
	ErrUsernameImmutable = errors.New("username cannot be changed once set")
	ErrInvalidToken      = errors.New("invalid or expired token")
	// ErrNotFound covers both a missing row and a row not owned by the
	// requester, so handlers fall back to a safe route either way.
	ErrNotFound = errors.New("not found")
)
