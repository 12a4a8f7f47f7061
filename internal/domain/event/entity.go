package event

import (
	"time"

	"eventix-client/internal/pkg/errs"
)

var (
	ErrInvalidName     = errs.New("event name is required")
	ErrInvalidDate     = errs.New("event date must be in the future")
	ErrInvalidCapacity = errs.New("total seats must be positive")
	ErrInvalidAmount   = errs.New("ticket amount cannot be negative")
)

// Event is the client's read-side snapshot of one event. availableSeats is
// whatever the server last reported; it can be stale the moment it arrives.
type Event struct {
	id             string
	name           string
	description    string
	date           time.Time
	availableSeats int
	totalSeats     int
	amount         int64
}

func Reconstruct(id, name, description string, date time.Time, availableSeats, totalSeats int, amount int64) *Event {
	return &Event{
		id:             id,
		name:           name,
		description:    description,
		date:           date,
		availableSeats: availableSeats,
		totalSeats:     totalSeats,
		amount:         amount,
	}
}

func (e *Event) ID() string          { return e.id }
func (e *Event) Name() string        { return e.name }
func (e *Event) Description() string { return e.description }
func (e *Event) Date() time.Time     { return e.date }
func (e *Event) AvailableSeats() int { return e.availableSeats }
func (e *Event) TotalSeats() int     { return e.totalSeats }
func (e *Event) Amount() int64       { return e.amount }

func (e *Event) IsSoldOut() bool {
	return e.availableSeats <= 0
}

// CanAccommodate is the client-side pre-check before a lock request; the
// server remains the authority and may still reject with a conflict.
func (e *Event) CanAccommodate(seats int) bool {
	return seats >= 1 && seats <= e.availableSeats
}

// Draft is a new event being created by an admin.
type Draft struct {
	Name        string
	Description string
	Date        time.Time
	TotalSeats  int
	Amount      int64
}

func (d Draft) Validate(now time.Time) error {
	if d.Name == "" {
		return errs.Mark(ErrInvalidName, errs.ErrValidation)
	}
	if !d.Date.After(now) {
		return errs.Mark(ErrInvalidDate, errs.ErrValidation)
	}
	if d.TotalSeats < 1 {
		return errs.Mark(ErrInvalidCapacity, errs.ErrValidation)
	}
	if d.Amount < 0 {
		return errs.Mark(ErrInvalidAmount, errs.ErrValidation)
	}
	return nil
}
