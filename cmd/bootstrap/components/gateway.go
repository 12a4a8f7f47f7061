package components

import (
	"errors"
	"log/slog"

	"eventix-client/internal/infra/api"
	"eventix-client/internal/infra/session"
	"eventix-client/internal/pkg/config"
	"eventix-client/internal/pkg/errs"
	"eventix-client/internal/usecase/commands"
	"eventix-client/internal/usecase/queries"

	"go.uber.org/fx"
)

// GatewayModule wires the HTTP client and the session file. The single
// api.Client backs every gateway and reader port.
var GatewayModule = fx.Module("gateway",
	fx.Provide(
		NewSessionStore,
		func(s *session.Store) commands.SessionStore { return s },
		func(s *session.Store) api.TokenSource { return s.Token },
		func(s *session.Store) commands.IdentitySource { return s.UserID },
		NewAPIClient,
		func(c *api.Client) commands.BookingGateway { return c },
		func(c *api.Client) commands.AuthGateway { return c },
		func(c *api.Client) commands.EventAdminGateway { return c },
		func(c *api.Client) commands.CancellationGateway { return c },
		func(c *api.Client) queries.EventReader { return c },
		func(c *api.Client) queries.BookingReader { return c },
	),
)

func NewSessionStore(cfg config.Config, logger *slog.Logger) (*session.Store, error) {
	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return nil, err
	}
	if _, err := store.Load(); err != nil && !errors.Is(err, errs.ErrSessionNotFound) {
		return nil, err
	}
	return store, nil
}

func NewAPIClient(cfg config.Config, logger *slog.Logger, token api.TokenSource) *api.Client {
	return api.New(cfg.API, logger, token)
}
