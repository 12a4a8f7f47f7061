package queries

import (
	"context"
	"time"
)

// Read models rendered by the presentation layer. Kept apart from the
// write-side snapshots in commands so listing shapes can grow without
// touching the state machine.
type EventView struct {
	ID             string
	Name           string
	Description    string
	Date           time.Time
	AvailableSeats int
	TotalSeats     int
	Amount         int64
	SoldOut        bool
}

type BookingView struct {
	ID        string
	EventName string
	Seats     int
	Status    string
	CreatedAt time.Time
}

type EventReader interface {
	ListEvents(ctx context.Context, userRole string) ([]EventView, error)
	GetEventView(ctx context.Context, eventID string) (*EventView, error)
}

type BookingReader interface {
	ListBookings(ctx context.Context) ([]BookingView, error)
	GetBooking(ctx context.Context, bookingID string) (*BookingView, error)
}
