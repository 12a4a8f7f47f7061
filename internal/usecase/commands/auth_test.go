//go:build unit

package commands_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"eventix-client/internal/pkg/clock"
	"eventix-client/internal/pkg/errs"
	"eventix-client/internal/usecase/commands"
	commandsmock "eventix-client/tests/mock/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type memorySession struct {
	user  *commands.UserSnapshot
	token string
}

func (s *memorySession) SaveLogin(user commands.UserSnapshot, token string) error {
	s.user = &user
	s.token = token
	return nil
}

func (s *memorySession) Clear() error {
	s.user = nil
	s.token = ""
	return nil
}

func (s *memorySession) CurrentUser() (*commands.UserSnapshot, bool) {
	if s.user == nil {
		return nil, false
	}
	return s.user, true
}

type authFixture struct {
	auth    *commands.AuthCommands
	gateway *commandsmock.MockAuthGateway
	session *memorySession
	clk     *clock.MockClock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	gateway := commandsmock.NewMockAuthGateway(ctrl)
	session := &memorySession{}
	clk := clock.NewMockClock(testTime)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &authFixture{
		auth:    commands.NewAuthCommands(gateway, session, clk, logger),
		gateway: gateway,
		session: session,
		clk:     clk,
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	alice := &commands.UserSnapshot{ID: "u-1", Name: "Alice", Email: "alice@example.com", Role: "user"}

	t.Run("direct session", func(t *testing.T) {
		f := newAuthFixture(t)
		f.gateway.EXPECT().
			Login(ctx, "alice@example.com", "secret").
			Return(&commands.LoginResult{User: alice, Token: "tok-1"}, nil)

		got, err := f.auth.Login(ctx, "  Alice@Example.COM ", "secret")
		require.NoError(t, err)
		assert.Equal(t, "u-1", got.ID)
		assert.Equal(t, "tok-1", f.session.token, "session persisted")
	})

	t.Run("OTP challenge defers the session", func(t *testing.T) {
		f := newAuthFixture(t)
		f.gateway.EXPECT().
			Login(ctx, "alice@example.com", "secret").
			Return(&commands.LoginResult{OTPRequired: true}, nil)

		_, err := f.auth.Login(ctx, "alice@example.com", "secret")
		require.ErrorIs(t, err, errs.ErrOTPRequired)
		assert.Nil(t, f.session.user, "no session until the OTP clears")
	})

	t.Run("validation stays local", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.auth.Login(ctx, "not-an-email", "secret")
		require.ErrorIs(t, err, errs.ErrValidation)

		_, err = f.auth.Login(ctx, "alice@example.com", "")
		require.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestVerifyOTP(t *testing.T) {
	ctx := context.Background()
	alice := &commands.UserSnapshot{ID: "u-1", Name: "Alice", Email: "alice@example.com", Role: "user"}

	t.Run("completes a pending login", func(t *testing.T) {
		f := newAuthFixture(t)
		f.gateway.EXPECT().
			Login(ctx, "alice@example.com", "secret").
			Return(&commands.LoginResult{OTPRequired: true}, nil)
		f.gateway.EXPECT().
			VerifyOTP(ctx, "alice@example.com", "123456", commands.OTPPurposeLogin).
			Return(&commands.LoginResult{User: alice, Token: "tok-2"}, nil)

		_, err := f.auth.Login(ctx, "alice@example.com", "secret")
		require.ErrorIs(t, err, errs.ErrOTPRequired)

		got, err := f.auth.VerifyOTP(ctx, "123456")
		require.NoError(t, err)
		assert.Equal(t, "u-1", got.ID)
		assert.Equal(t, "tok-2", f.session.token)
	})

	t.Run("rejects malformed codes without a network call", func(t *testing.T) {
		f := newAuthFixture(t)
		for _, otp := range []string{"", "12345", "1234567", "12a456"} {
			_, err := f.auth.VerifyOTP(ctx, otp)
			require.ErrorIs(t, err, errs.ErrValidation, "otp %q", otp)
		}
	})

	t.Run("rejects when nothing is pending", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.auth.VerifyOTP(ctx, "123456")
		require.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestResendOTPCooldown(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	f.gateway.EXPECT().
		Login(ctx, "alice@example.com", "secret").
		Return(&commands.LoginResult{OTPRequired: true}, nil)
	_, err := f.auth.Login(ctx, "alice@example.com", "secret")
	require.ErrorIs(t, err, errs.ErrOTPRequired)

	// Inside the cooldown window the resend is refused locally.
	f.clk.Add(30 * time.Second)
	require.ErrorIs(t, f.auth.ResendOTP(ctx), errs.ErrResendCooldown)

	// After the window it goes through, and the window restarts.
	f.clk.Add(100 * time.Second)
	f.gateway.EXPECT().
		ResendOTP(ctx, "alice@example.com", commands.OTPPurposeLogin).
		Return(nil)
	require.NoError(t, f.auth.ResendOTP(ctx))

	f.clk.Add(10 * time.Second)
	require.ErrorIs(t, f.auth.ResendOTP(ctx), errs.ErrResendCooldown)
}

func TestRefreshUser(t *testing.T) {
	ctx := context.Background()

	t.Run("picks up a role change", func(t *testing.T) {
		f := newAuthFixture(t)
		f.session.user = &commands.UserSnapshot{ID: "u-1", Role: "user"}
		f.session.token = "tok-1"
		f.gateway.EXPECT().
			GetUser(ctx, "u-1").
			Return(&commands.UserSnapshot{ID: "u-1", Role: "admin"}, nil)

		got, err := f.auth.RefreshUser(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, "admin", got.Role)
		assert.Equal(t, "admin", f.session.user.Role)
	})

	t.Run("cached identity wins when the server is down", func(t *testing.T) {
		f := newAuthFixture(t)
		f.session.user = &commands.UserSnapshot{ID: "u-1", Role: "user"}
		f.gateway.EXPECT().
			GetUser(ctx, "u-1").
			Return(nil, errs.Mark(errs.New("unreachable"), errs.ErrNetwork))

		got, err := f.auth.RefreshUser(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, "user", got.Role)
	})

	t.Run("no session", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.auth.RefreshUser(ctx, "")
		require.ErrorIs(t, err, errs.ErrSessionNotFound)
	})
}

func TestLogoutClearsEverything(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	f.gateway.EXPECT().
		Login(ctx, "alice@example.com", "secret").
		Return(&commands.LoginResult{OTPRequired: true}, nil)
	_, err := f.auth.Login(ctx, "alice@example.com", "secret")
	require.ErrorIs(t, err, errs.ErrOTPRequired)

	require.NoError(t, f.auth.Logout())

	// The pending OTP died with the session.
	_, err = f.auth.VerifyOTP(ctx, "123456")
	require.ErrorIs(t, err, errs.ErrValidation)
}
