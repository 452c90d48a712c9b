package model

import "errors"

// Sentinel errors shared across the engine. Services wrap these with
// fmt.Errorf("%w: detail") so handlers can map them to HTTP statuses
// with errors.Is while keeping the human-readable detail.
var (
	// ErrValidation is returned for malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced event, team, ticket or
	// user does not exist or the caller lacks visibility.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller's role or ownership does
	// not permit the operation.
	ErrForbidden = errors.New("access denied")

	// ErrCapacityExceeded is returned when an event is full, merchandise
	// is out of stock, or the team limit is reached. It is an expected
	// terminal outcome, not a fault.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrAlreadyRegistered is returned when the (user, event) pair
	// already holds a Confirmed ticket.
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrAlreadyInTeam is returned when the user already belongs to a
	// team for the event.
	ErrAlreadyInTeam = errors.New("already in a team for this event")

	// ErrStateConflict is returned when an operation is not legal for
	// the entity's current lifecycle status.
	ErrStateConflict = errors.New("operation not allowed in current status")

	// ErrInvalidCredentials is returned on failed login. Callers must
	// not distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("email or password is incorrect")
)

// ReasonCode returns the stable machine-readable code for a domain
// error, or "server_error" for anything outside the taxonomy.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_failed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrAlreadyInTeam):
		return "already_in_team"
	case errors.Is(err, ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "server_error"
	}
}
