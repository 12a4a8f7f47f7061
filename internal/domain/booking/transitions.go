package booking

import (
	"time"

	"eventix-client/internal/pkg/errs"

	"github.com/google/uuid"
)

// Event is a single state machine input with the payload belonging to its
// kind. Unused fields stay zero.
type Event struct {
	Kind          EventKind
	Seats         int       // EvSeatsSelected, EvLockRequested
	Key           uuid.UUID // request kinds carry the minted idempotency key
	LockID        string    // EvLockAcquired
	LockExpiresAt time.Time // EvLockAcquired
	BookingID     string    // EvConfirmSucceeded
	Reason        string    // failure kinds: human-readable cause
}

type transition struct {
	from  Phase
	event EventKind
	to    Phase
	guard func(a *Attempt, now time.Time, ev Event) error
	apply func(a *Attempt, ev Event)
}

// The table is the only place phase changes happen. Lock/expiry races resolve
// here: whichever event is applied first wins, and the loser finds no edge
// from the new phase.
var transitions = []transition{
	{from: PhaseSelectingSeats, event: EvSeatsSelected, to: PhaseSelectingSeats,
		guard: guardSeatRange,
		apply: func(a *Attempt, ev Event) { a.requestedSeats = ev.Seats },
	},
	{from: PhaseSelectingSeats, event: EvLockRequested, to: PhaseLocking,
		guard: guardSeatRange,
		apply: func(a *Attempt, ev Event) {
			a.requestedSeats = ev.Seats
			a.idempotencyKey = ev.Key
		},
	},
	{from: PhaseLocking, event: EvLockAcquired, to: PhaseLocked,
		apply: func(a *Attempt, ev Event) { a.setLock(ev.LockID, ev.LockExpiresAt) },
	},
	{from: PhaseLocking, event: EvLockFailed, to: PhaseSelectingSeats,
		apply: func(a *Attempt, ev Event) { a.lastError = ev.Reason },
	},
	{from: PhaseLocked, event: EvConfirmRequested, to: PhaseConfirming,
		guard: guardLockAlive,
		apply: func(a *Attempt, ev Event) { a.idempotencyKey = ev.Key },
	},
	{from: PhaseLocked, event: EvLockExpired, to: PhaseLockExpired, apply: applyExpiry},
	{from: PhaseConfirming, event: EvLockExpired, to: PhaseLockExpired, apply: applyExpiry},
	{from: PhaseLocked, event: EvCancelRequested, to: PhaseCancelled,
		apply: func(a *Attempt, _ Event) { a.clearLock() },
	},
	{from: PhaseConfirming, event: EvCancelRequested, to: PhaseCancelled,
		apply: func(a *Attempt, _ Event) { a.clearLock() },
	},
	{from: PhaseConfirming, event: EvConfirmSucceeded, to: PhaseConfirmed,
		apply: func(a *Attempt, ev Event) { a.bookingID = ev.BookingID },
	},
	{from: PhaseConfirming, event: EvConfirmFailed, to: PhaseLocked,
		apply: func(a *Attempt, ev Event) { a.lastError = ev.Reason },
	},
	{from: PhaseConfirmed, event: EvPaymentRequested, to: PhasePaying,
		apply: func(a *Attempt, ev Event) {
			a.idempotencyKey = ev.Key
			a.clearLock() // the hold is converted; only bookingID matters now
		},
	},
	{from: PhasePaying, event: EvPaymentSucceeded, to: PhaseSucceeded},
	{from: PhasePaying, event: EvPaymentDeclined, to: PhaseFailed},
	{from: PhasePaying, event: EvPaymentTimedOut, to: PhaseTimedOut},
	{from: PhasePaying, event: EvPaymentFailed, to: PhaseConfirmed,
		apply: func(a *Attempt, ev Event) { a.lastError = ev.Reason },
	},
}

func transitionFor(from Phase, kind EventKind) (transition, bool) {
	for _, t := range transitions {
		if t.from == from && t.event == kind {
			return t, true
		}
	}
	return transition{}, false
}

// Apply drives the attempt through one event. Events with no edge from the
// current phase never mutate state: terminal phases absorb stragglers with a
// desynchronization error, anything else is an invalid transition.
func (a *Attempt) Apply(now time.Time, ev Event) error {
	t, ok := transitionFor(a.phase, ev.Kind)
	if !ok {
		if a.phase.IsTerminal() {
			return errs.Mark(
				errs.Newf("event %s arrived after terminal phase %s", ev.Kind, a.phase),
				errs.ErrDesynchronized,
			)
		}
		return errs.Mark(
			errs.Newf("no transition from %s on %s", a.phase, ev.Kind),
			errs.ErrInvalidTransition,
		)
	}

	if t.guard != nil {
		if err := t.guard(a, now, ev); err != nil {
			return err
		}
	}

	if isUserAction(ev.Kind) {
		a.lastError = ""
	}
	if t.apply != nil {
		t.apply(a, ev)
	}
	a.phase = t.to
	return nil
}

// isUserAction marks the kinds that begin a new user intent; each of them
// clears the previous failure reason.
func isUserAction(kind EventKind) bool {
	switch kind {
	case EvSeatsSelected, EvLockRequested, EvConfirmRequested, EvPaymentRequested, EvCancelRequested:
		return true
	default:
		return false
	}
}

func guardSeatRange(a *Attempt, _ time.Time, ev Event) error {
	if ev.Seats < 1 || ev.Seats > a.availableSeats {
		return errs.Mark(
			errs.Newf("requested %d seats, %d available", ev.Seats, a.availableSeats),
			errs.ErrValidation,
		)
	}
	return nil
}

func guardLockAlive(a *Attempt, now time.Time, _ Event) error {
	if !now.Before(a.lockExpiresAt) {
		return errs.Mark(errs.New("lock already expired"), errs.ErrExpired)
	}
	return nil
}

func applyExpiry(a *Attempt, _ Event) {
	a.clearLock()
	a.lastError = "Lock expired! Please lock seats again."
}
