//go:build e2e

// Package e2e wires a real HTTP round trip: the in-memory stub backend
// behind an httptest server, talked to by the production client stack.
package e2e

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"eventix-client/internal/infra/api"
	"eventix-client/internal/infra/session"
	"eventix-client/internal/pkg/clock"
	"eventix-client/internal/pkg/config"
	"eventix-client/internal/pkg/jwt"
	"eventix-client/internal/stubapi"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type Harness struct {
	Config  config.Config
	Server  *httptest.Server
	Backend *stubapi.Store
	Client  *api.Client
	Session *session.Store
	Clock   clock.Clock
	Logger  *slog.Logger
}

// NewHarness starts a stub backend with the given lock TTL and builds the
// client stack against it.
func NewHarness(t *testing.T, lockTTL time.Duration) *Harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.NewTestConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewRealClock()

	backend := stubapi.NewStore(clk, lockTTL, cfg.Stub.OTPTTL)
	tokens := jwt.NewService(cfg.Stub.JWTSecret, cfg.Stub.TokenDuration)

	engine := gin.New()
	stubapi.NewRouter(engine, stubapi.NewHandler(backend, tokens, logger), stubapi.NewAuthMiddleware(tokens))
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	cfg.API.BaseURL = server.URL + "/api"
	cfg.Session.Path = filepath.Join(t.TempDir(), "session.json")

	sess, err := session.NewStore(cfg.Session)
	require.NoError(t, err)

	client := api.New(cfg.API, logger, sess.Token)

	return &Harness{
		Config:  cfg,
		Server:  server,
		Backend: backend,
		Client:  client,
		Session: sess,
		Clock:   clk,
		Logger:  logger,
	}
}

// LoginAs registers the account on the backend and completes a real login
// through the client, persisting the session token for later calls.
func (h *Harness) LoginAs(t *testing.T, name, email, password, role string) {
	t.Helper()
	_, err := h.Backend.CreateUser(name, email, password, role, false)
	require.NoError(t, err)

	result, err := h.Client.Login(context.Background(), email, password)
	require.NoError(t, err)
	require.NotNil(t, result.User)
	require.NoError(t, h.Session.SaveLogin(*result.User, result.Token))
}

// SeedEvent creates an event directly on the backend.
func (h *Harness) SeedEvent(t *testing.T, name string, seats int, amount int64) *stubapi.Event {
	t.Helper()
	event, err := h.Backend.CreateEvent(name, "", time.Now().AddDate(0, 1, 0), seats, amount, "")
	require.NoError(t, err)
	return event
}

// AvailableSeats reads current availability straight from the backend.
func (h *Harness) AvailableSeats(t *testing.T, eventID string) int {
	t.Helper()
	event, err := h.Backend.GetEvent(eventID)
	require.NoError(t, err)
	return event.AvailableSeats
}
