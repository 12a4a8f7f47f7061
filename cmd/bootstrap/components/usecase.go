package components

import (
	"log/slog"

	"eventix-client/internal/pkg/clock"
	"eventix-client/internal/pkg/idempotency"
	"eventix-client/internal/usecase/commands"
	"eventix-client/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	idempotency.NewUUIDProvider,
	// The prompter is installed by the front end once it exists.
	func(logger *slog.Logger) *commands.NavigationGuard {
		return commands.NewNavigationGuard(nil, logger)
	},
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewBookingFlow,
		commands.NewAuthCommands,
		commands.NewEventCommands,
		commands.NewCancellationCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewEventQueries,
		queries.NewBookingQueries,
	),
)
