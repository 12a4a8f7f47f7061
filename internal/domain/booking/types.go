package booking

// Phase is the client-observable state of a single booking attempt.
type Phase string

const (
	PhaseSelectingSeats Phase = "selecting_seats"
	PhaseLocking        Phase = "locking"
	PhaseLocked         Phase = "locked"
	PhaseConfirming     Phase = "confirming"
	PhaseConfirmed      Phase = "confirmed"
	PhasePaying         Phase = "paying"
	PhaseSucceeded      Phase = "succeeded"
	PhaseFailed         Phase = "failed"
	PhaseTimedOut       Phase = "timed_out"
	PhaseLockExpired    Phase = "lock_expired"
	PhaseCancelled      Phase = "cancelled"
)

func (p Phase) String() string {
	return string(p)
}

func (p Phase) IsValid() bool {
	switch p {
	case PhaseSelectingSeats, PhaseLocking, PhaseLocked, PhaseConfirming,
		PhaseConfirmed, PhasePaying, PhaseSucceeded, PhaseFailed,
		PhaseTimedOut, PhaseLockExpired, PhaseCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the attempt can proceed no further; only a new
// attempt can follow.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseSucceeded, PhaseFailed, PhaseTimedOut, PhaseLockExpired, PhaseCancelled:
		return true
	default:
		return false
	}
}

// HoldsLock reports whether a live server-side seat hold exists in this
// phase. The navigation guard is armed exactly while this is true.
func (p Phase) HoldsLock() bool {
	return p == PhaseLocked || p == PhaseConfirming
}

// PaymentOutcome is the processing intent submitted to the payment endpoint.
type PaymentOutcome string

const (
	PaymentSuccess PaymentOutcome = "SUCCESS"
	PaymentFailure PaymentOutcome = "FAILURE"
	PaymentTimeout PaymentOutcome = "TIMEOUT"
)

func (o PaymentOutcome) IsValid() bool {
	switch o {
	case PaymentSuccess, PaymentFailure, PaymentTimeout:
		return true
	default:
		return false
	}
}

func (o PaymentOutcome) String() string {
	return string(o)
}

// EventKind identifies a state machine input.
type EventKind string

const (
	EvSeatsSelected    EventKind = "seats_selected"
	EvLockRequested    EventKind = "lock_requested"
	EvLockAcquired     EventKind = "lock_acquired"
	EvLockFailed       EventKind = "lock_failed"
	EvConfirmRequested EventKind = "confirm_requested"
	EvConfirmSucceeded EventKind = "confirm_succeeded"
	EvConfirmFailed    EventKind = "confirm_failed"
	EvLockExpired      EventKind = "lock_expired"
	EvCancelRequested  EventKind = "cancel_requested"
	EvPaymentRequested EventKind = "payment_requested"
	EvPaymentSucceeded EventKind = "payment_succeeded"
	EvPaymentDeclined  EventKind = "payment_declined"
	EvPaymentTimedOut  EventKind = "payment_timed_out"
	EvPaymentFailed    EventKind = "payment_failed"
)
