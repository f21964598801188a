package ride

import "errors"

// The lifecycle error taxonomy. HTTP maps these to status codes; nothing
// in this package retries on any of them.
var (
	// ErrNotFound means the ride (or a referenced party) does not exist.
	ErrNotFound = errors.New("ride not found")
	// ErrInvalidState means the requested transition is not legal from
	// the ride's current status.
	ErrInvalidState = errors.New("transition not allowed from current status")
	// ErrForbidden means the acting party is not authorized for this ride.
	ErrForbidden = errors.New("party not authorized for this ride")
	// ErrInvalidOtp means the supplied trip-start secret does not match.
	ErrInvalidOtp = errors.New("otp mismatch")
	// ErrConflict means a concurrent confirm won the ride first.
	ErrConflict = errors.New("ride already taken")
	// ErrUpstreamUnavailable means a dependency (geocoder, index, store)
	// failed; the operation may be retried by the caller.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrInvalidInput means a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
)
