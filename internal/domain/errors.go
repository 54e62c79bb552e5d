package domain

import "errors"

var (
	// Backend lookup and write errors
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflicts with an existing record")
	ErrUnauthorized = errors.New("unauthorized: check api.token")

	// Transport errors
	ErrBackendUnavailable = errors.New("backend unavailable")

	// Input errors
	ErrValidation   = errors.New("validation failed")
	ErrInvalidInput = errors.New("invalid input")

	// Run journal errors
	ErrRunMiss    = errors.New("run not found")
	ErrRunExpired = errors.New("run expired")
)
