package errs

import "errors"

// Failure taxonomy for the booking client. Every gateway call failure is
// marked with exactly one of these before it crosses the usecase boundary.
var (
	// ErrValidation is detected client-side and never reaches the network.
	ErrValidation = errors.New("validation error")

	// ErrConflict means the server rejected the request because its state
	// moved on (seats taken, lock expired or already confirmed).
	ErrConflict = errors.New("conflict")

	// ErrExpired is raised by the local countdown, without a round trip.
	ErrExpired = errors.New("lock expired")

	// ErrNetwork covers transport failures and 5xx responses; the in-flight
	// idempotency key is kept so the same request can be retried.
	ErrNetwork = errors.New("network error")

	// ErrPaymentDeclined is a terminal business outcome, not a defect.
	ErrPaymentDeclined = errors.New("payment declined")

	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrMalformedResponse = errors.New("malformed server response")
	ErrActionInFlight    = errors.New("action already in flight")
	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrDesynchronized    = errors.New("client desynchronized from server")
	ErrOTPRequired       = errors.New("otp verification required")
	ErrResendCooldown    = errors.New("resend cooldown active")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrSessionNotFound   = errors.New("no stored session")
)
