package main

import (
	"context"
	"log/slog"
	"os"

	"eventix-client/cmd/bootstrap"
	"eventix-client/internal/pkg/clock"
	"eventix-client/internal/pkg/config"
	"eventix-client/internal/pkg/jwt"
	"eventix-client/internal/stubapi"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	gin.SetMode(gin.ReleaseMode)

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}
}

func startServer(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			listenAddr := ":" + cfg.Stub.Port
			logger.Info("stub backend listening", "address", listenAddr, "mode", gin.Mode())
			go func() {
				if err := engine.Run(listenAddr); err != nil {
					logger.Error("server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info("stub backend stopping")
			return nil
		},
	})
}

func main() {
	app := fx.New(
		bootstrap.ConfigModule,
		bootstrap.LoggerModule,
		fx.Provide(
			clock.NewRealClock,
			func(cfg config.Config) *jwt.Service {
				return jwt.NewService(cfg.Stub.JWTSecret, cfg.Stub.TokenDuration)
			},
			func(cfg config.Config, clk clock.Clock) *stubapi.Store {
				return stubapi.NewStore(clk, cfg.Stub.LockTTL, cfg.Stub.OTPTTL)
			},
			stubapi.NewHandler,
			stubapi.NewAuthMiddleware,
			func() *gin.Engine { return gin.New() },
		),
		fx.Invoke(
			seedDemoData,
			func(engine *gin.Engine, h *stubapi.Handler, auth *stubapi.AuthMiddleware) {
				stubapi.NewRouter(engine, h, auth)
			},
			startServer,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}

// seedDemoData gives a fresh stub something to book against.
func seedDemoData(store *stubapi.Store, clk clock.Clock, logger *slog.Logger) error {
	if _, err := store.CreateUser("Admin", "admin@eventix.local", "admin123", "admin", false); err != nil {
		return err
	}
	if _, err := store.CreateUser("Demo User", "demo@eventix.local", "demo123", "user", false); err != nil {
		return err
	}

	now := clk.Now()
	events := []struct {
		name  string
		days  int
		seats int
		price int64
	}{
		{"Summer Beats Festival", 30, 200, 75},
		{"Tech Conf 2026", 45, 500, 120},
		{"Standup Night", 7, 40, 25},
	}
	for _, e := range events {
		if _, err := store.CreateEvent(e.name, "", now.AddDate(0, 0, e.days), e.seats, e.price, ""); err != nil {
			return err
		}
	}
	logger.Info("seeded demo data", "events", len(events), "users", 2)
	return nil
}
