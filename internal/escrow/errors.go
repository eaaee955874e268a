package escrow

import "errors"

// Error taxonomy for the state machine. Handlers map these onto HTTP
// categories; anything else is treated as an internal error.
var (
	// ErrInvalidInput marks missing or malformed input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden marks an authenticated actor that is not the party the
	// transition requires. Distinct from a precondition failure.
	ErrForbidden = errors.New("actor is not permitted to perform this action")
	// ErrStateConflict marks a precondition failure on the project's current
	// status, including a lost optimistic-concurrency race.
	ErrStateConflict = errors.New("project status does not permit this action")
	// ErrNotFound marks an unknown project id.
	ErrNotFound = errors.New("project not found")
	// ErrIdempotencyConflict marks an Idempotency-Key replayed with a
	// different payload, or one whose first attempt is still in flight.
	ErrIdempotencyConflict = errors.New("idempotency key already used with a different request")
)
