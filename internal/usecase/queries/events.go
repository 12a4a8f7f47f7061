package queries

import (
	"context"
	"log/slog"
	"sort"

	"github.com/samber/lo"
)

type EventQueries struct {
	reader EventReader
	logger *slog.Logger
}

func NewEventQueries(reader EventReader, logger *slog.Logger) *EventQueries {
	return &EventQueries{reader: reader, logger: logger}
}

// List returns the events visible to the given role, soonest first.
func (q *EventQueries) List(ctx context.Context, userRole string) ([]EventView, error) {
	views, err := q.reader.ListEvents(ctx, userRole)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Date.Before(views[j].Date)
	})
	return views, nil
}

// ListOpen filters out sold-out events for the seat selection screen.
func (q *EventQueries) ListOpen(ctx context.Context, userRole string) ([]EventView, error) {
	views, err := q.List(ctx, userRole)
	if err != nil {
		return nil, err
	}
	return lo.Filter(views, func(v EventView, _ int) bool {
		return !v.SoldOut
	}), nil
}

func (q *EventQueries) Get(ctx context.Context, eventID string) (*EventView, error) {
	return q.reader.GetEventView(ctx, eventID)
}
