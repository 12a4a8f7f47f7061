package commands

import (
	"context"
	"log/slog"
	"sync"

	"eventix-client/internal/domain/event"
	"eventix-client/internal/domain/user"
	"eventix-client/internal/pkg/clock"
	"eventix-client/internal/pkg/errs"
	"eventix-client/internal/pkg/idempotency"

	"github.com/google/uuid"
)

// EventCommands handles administrative event creation with the same
// idempotency-key discipline as the booking flow.
type EventCommands struct {
	gateway EventAdminGateway
	keys    idempotency.Provider
	store   SessionStore
	clock   clock.Clock
	logger  *slog.Logger

	mu        sync.Mutex
	createKey uuid.UUID
}

func NewEventCommands(gateway EventAdminGateway, keys idempotency.Provider, store SessionStore, clk clock.Clock, logger *slog.Logger) *EventCommands {
	return &EventCommands{
		gateway: gateway,
		keys:    keys,
		store:   store,
		clock:   clk,
		logger:  logger,
	}
}

func (e *EventCommands) CreateEvent(ctx context.Context, draft event.Draft) (*EventSnapshot, error) {
	current, ok := e.store.CurrentUser()
	if !ok {
		return nil, errs.ErrSessionNotFound
	}
	role, err := user.NewRole(current.Role)
	if err != nil || !role.CanManageEvents() {
		return nil, errs.ErrPermissionDenied
	}
	if err := draft.Validate(e.clock.Now()); err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.createKey == uuid.Nil {
		e.createKey = e.keys.NewKey()
	}
	key := e.createKey
	e.mu.Unlock()

	created, err := e.gateway.CreateEvent(ctx, draft, key)
	if err != nil {
		return nil, err // key kept so a retry cannot create a second event
	}

	e.mu.Lock()
	e.createKey = uuid.Nil
	e.mu.Unlock()

	e.logger.Info("event created", "event_id", created.ID, "name", created.Name)
	return created, nil
}

// CancellationCommands cancels a confirmed booking from the dashboard.
type CancellationCommands struct {
	gateway CancellationGateway
	logger  *slog.Logger
}

func NewCancellationCommands(gateway CancellationGateway, logger *slog.Logger) *CancellationCommands {
	return &CancellationCommands{gateway: gateway, logger: logger}
}

func (c *CancellationCommands) CancelBooking(ctx context.Context, bookingID string) error {
	if bookingID == "" {
		return errs.Mark(errs.New("booking id is required"), errs.ErrValidation)
	}
	if err := c.gateway.CancelBooking(ctx, bookingID); err != nil {
		return err
	}
	c.logger.Info("booking cancelled", "booking_id", bookingID)
	return nil
}
