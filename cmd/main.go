package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"eventix-client/cmd/bootstrap"
	"eventix-client/internal/console"
	"eventix-client/internal/infra/session"
	"eventix-client/internal/usecase/commands"

	"go.uber.org/fx"
)

func main() {
	var (
		cons *console.Console
		flow *commands.BookingFlow
		auth *commands.AuthCommands
		sess *session.Store
	)

	app := fx.New(
		bootstrap.Module,
		fx.Populate(&cons, &flow, &auth, &sess),
		fx.NopLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}

	refreshIdentity(ctx, auth, sess)

	done := make(chan error, 1)
	go func() {
		done <- cons.Run(ctx)
	}()

	select {
	case err := <-done:
		if err != nil && err != context.Canceled {
			slog.Error("console exited with error", "error", err)
		}
	case sig := <-app.Wait():
		// Interrupt is the close-the-tab path: no prompt, release the lock
		// on a best-effort basis before going down.
		slog.Info("signal received, releasing any held lock", "signal", sig.Signal.String())
		flow.ReleaseOnShutdown(context.Background())
		cancel()
	}

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}

// refreshIdentity re-validates the persisted session at startup: an expired
// token logs the user out, an intact one is re-read from the server so role
// changes take effect.
func refreshIdentity(ctx context.Context, auth *commands.AuthCommands, sess *session.Store) {
	current := sess.Current()
	if current == nil {
		return
	}
	if sess.Stale(time.Now()) {
		slog.Info("stored session expired, logging out")
		if err := sess.Clear(); err != nil {
			slog.Warn("could not clear stale session", "error", err)
		}
		return
	}
	if _, err := auth.RefreshUser(ctx, current.Token); err != nil {
		slog.Warn("identity refresh failed", "error", err)
	}
}
