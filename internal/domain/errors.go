package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrTokenInvalid marks a push failure whose provider error code says the
	// registration is permanently gone (disabled or malformed endpoint). Only
	// this failure class triggers a token purge.
	ErrTokenInvalid = errors.New("push token invalid")
)
