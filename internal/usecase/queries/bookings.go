package queries

import (
	"context"
	"log/slog"
	"sort"
)

type BookingQueries struct {
	reader BookingReader
	logger *slog.Logger
}

func NewBookingQueries(reader BookingReader, logger *slog.Logger) *BookingQueries {
	return &BookingQueries{reader: reader, logger: logger}
}

// List returns the user's bookings, newest first.
func (q *BookingQueries) List(ctx context.Context) ([]BookingView, error) {
	views, err := q.reader.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views, nil
}

func (q *BookingQueries) Get(ctx context.Context, bookingID string) (*BookingView, error) {
	return q.reader.GetBooking(ctx, bookingID)
}
