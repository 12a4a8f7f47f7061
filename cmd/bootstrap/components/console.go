package components

import (
	"log/slog"
	"os"

	"eventix-client/internal/console"
	"eventix-client/internal/usecase/commands"
	"eventix-client/internal/usecase/queries"

	"go.uber.org/fx"
)

var ConsoleModule = fx.Module("console",
	fx.Provide(
		NewConsole,
	),
)

func NewConsole(
	flow *commands.BookingFlow,
	auth *commands.AuthCommands,
	admin *commands.EventCommands,
	cancellations *commands.CancellationCommands,
	guard *commands.NavigationGuard,
	events *queries.EventQueries,
	bookings *queries.BookingQueries,
	store commands.SessionStore,
	logger *slog.Logger,
) *console.Console {
	c := console.New(os.Stdin, os.Stdout, flow, auth, admin, cancellations, events, bookings, store, logger)
	guard.SetPrompter(c)
	flow.OnCountdownTick(c.RenderTick)
	return c
}
