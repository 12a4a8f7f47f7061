package booking

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is the single in-progress booking for one event. It is mutated
// exclusively through Apply; no other component writes to it.
type Attempt struct {
	eventID        string
	eventName      string
	requestedSeats int
	availableSeats int
	amount         int64

	phase         Phase
	lockID        string
	lockExpiresAt time.Time
	bookingID     string

	idempotencyKey uuid.UUID
	lastError      string
}

// NewAttempt starts at seat selection with the event's last-known
// availability. availableSeats is refreshed before every lock request since
// it can change server-side at any time.
func NewAttempt(eventID, eventName string, availableSeats int, amount int64) *Attempt {
	return &Attempt{
		eventID:        eventID,
		eventName:      eventName,
		requestedSeats: 1,
		availableSeats: availableSeats,
		amount:         amount,
		phase:          PhaseSelectingSeats,
	}
}

func (a *Attempt) EventID() string           { return a.eventID }
func (a *Attempt) EventName() string         { return a.eventName }
func (a *Attempt) RequestedSeats() int       { return a.requestedSeats }
func (a *Attempt) AvailableSeats() int       { return a.availableSeats }
func (a *Attempt) Amount() int64             { return a.amount }
func (a *Attempt) Phase() Phase              { return a.phase }
func (a *Attempt) LockID() string            { return a.lockID }
func (a *Attempt) LockExpiresAt() time.Time  { return a.lockExpiresAt }
func (a *Attempt) BookingID() string         { return a.bookingID }
func (a *Attempt) IdempotencyKey() uuid.UUID { return a.idempotencyKey }
func (a *Attempt) LastError() string         { return a.lastError }

// HoldsLock reports whether the server currently holds seats for this
// attempt. lockID and lockExpiresAt are set and cleared together.
func (a *Attempt) HoldsLock() bool {
	return a.phase.HoldsLock()
}

func (a *Attempt) TotalAmount() int64 {
	return a.amount * int64(a.requestedSeats)
}

// RefreshAvailability records the latest server-reported seat count. Only
// meaningful before a lock is acquired; the requested count is frozen after.
func (a *Attempt) RefreshAvailability(availableSeats int) {
	if a.phase == PhaseSelectingSeats || a.phase == PhaseLocking {
		a.availableSeats = availableSeats
	}
}

func (a *Attempt) setLock(lockID string, expiresAt time.Time) {
	a.lockID = lockID
	a.lockExpiresAt = expiresAt
}

func (a *Attempt) clearLock() {
	a.lockID = ""
	a.lockExpiresAt = time.Time{}
}
