package adapter

import "errors"

var (
	// ErrNotAvailable is returned when the loopback service does not answer
	// or the URL fails loopback validation.
	ErrNotAvailable = errors.New("llm service not available")

	// ErrModelNotAllowed is returned for model identifiers outside the
	// compiled-in allowlist.
	ErrModelNotAllowed = errors.New("model not allowed")

	// ErrInvalidResponse is returned when the service answers with an
	// unparseable body.
	ErrInvalidResponse = errors.New("invalid llm response")

	// ErrTimeout is returned when the caller's deadline expires. Adapter
	// calls never block indefinitely.
	ErrTimeout = errors.New("llm request timed out")
)
