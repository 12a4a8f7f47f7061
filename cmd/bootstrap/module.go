package bootstrap

import (
	"eventix-client/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	components.GatewayModule,
	components.UseCaseModule,
	components.ConsoleModule,
)
