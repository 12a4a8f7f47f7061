//go:build e2e

package booking_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"eventix-client/internal/domain/booking"
	"eventix-client/internal/pkg/errs"
	"eventix-client/internal/pkg/idempotency"
	"eventix-client/internal/stubapi"
	"eventix-client/internal/usecase/commands"
	"eventix-client/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type alwaysYes struct{}

func (alwaysYes) Confirm(string) bool { return true }

type bookingSuite struct {
	suite.Suite
	harness *e2e.Harness
	flow    *commands.BookingFlow
	keys    *idempotency.SequenceProvider
}

func TestBookingSuite(t *testing.T) {
	suite.Run(t, new(bookingSuite))
}

func (s *bookingSuite) SetupTest() {
	s.harness = e2e.NewHarness(s.T(), 300*time.Second)
	s.harness.LoginAs(s.T(), "Alice", "alice@example.com", "pw123456", "user")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.keys = idempotency.NewSequenceProvider()
	guard := commands.NewNavigationGuard(alwaysYes{}, logger)
	s.flow = commands.NewBookingFlow(
		s.harness.Client, s.keys, s.harness.Clock, guard, s.harness.Session.UserID, logger,
	)
	s.flow.SetTickInterval(10 * time.Millisecond)
}

func (s *bookingSuite) TestFullBookingRoundTrip() {
	ctx := context.Background()
	event := s.harness.SeedEvent(s.T(), "Summer Beats", 10, 50)

	snap, err := s.flow.StartAttempt(ctx, event.ID)
	s.Require().NoError(err)
	s.Equal(booking.PhaseSelectingSeats, snap.Phase)
	s.Equal(10, snap.AvailableSeats)

	s.Require().NoError(s.flow.SelectSeats(2))
	s.Require().NoError(s.flow.RequestLock(ctx))

	snap = s.flow.Snapshot()
	s.Equal(booking.PhaseLocked, snap.Phase)
	s.NotEmpty(snap.LockID)
	s.InDelta(300, snap.RemainingSeconds, 2, "countdown runs from the server-issued expiry")
	s.Equal(8, s.harness.AvailableSeats(s.T(), event.ID))

	s.Require().NoError(s.flow.RequestConfirm(ctx))
	snap = s.flow.Snapshot()
	s.Equal(booking.PhaseConfirmed, snap.Phase)
	s.NotEmpty(snap.BookingID)

	s.Require().NoError(s.flow.SubmitPayment(ctx, booking.PaymentSuccess))
	s.Equal(booking.PhaseSucceeded, s.flow.Snapshot().Phase)

	stored, err := s.harness.Backend.GetBooking(snap.BookingID)
	s.Require().NoError(err)
	s.Equal(stubapi.BookingCompleted, stored.Status)
	s.Equal(8, s.harness.AvailableSeats(s.T(), event.ID), "paid seats stay taken")
}

func (s *bookingSuite) TestDuplicateLockKeyCollapsesServerSide() {
	ctx := context.Background()
	event := s.harness.SeedEvent(s.T(), "Tech Conf", 10, 120)
	key := uuid.New()

	first, err := s.harness.Client.LockSeats(ctx, event.ID, 3, "u-ignored", key)
	s.Require().NoError(err)
	replay, err := s.harness.Client.LockSeats(ctx, event.ID, 3, "u-ignored", key)
	s.Require().NoError(err)

	s.Equal(first.LockID, replay.LockID)
	s.Equal(7, s.harness.AvailableSeats(s.T(), event.ID), "one decrement for two sends")
}

func (s *bookingSuite) TestInsufficientSeatsConflict() {
	ctx := context.Background()
	event := s.harness.SeedEvent(s.T(), "Standup Night", 4, 25)

	_, err := s.harness.Client.LockSeats(ctx, event.ID, 3, "", uuid.New())
	s.Require().NoError(err)

	snap, err := s.flow.StartAttempt(ctx, event.ID)
	s.Require().NoError(err)
	s.Equal(1, snap.AvailableSeats)

	s.Require().NoError(s.flow.SelectSeats(1))
	// Someone grabs the last seat between selection and lock.
	_, err = s.harness.Client.LockSeats(ctx, event.ID, 1, "", uuid.New())
	s.Require().NoError(err)

	err = s.flow.RequestLock(ctx)
	s.Require().ErrorIs(err, errs.ErrConflict)
	s.Equal(booking.PhaseSelectingSeats, s.flow.Snapshot().Phase)
}

func (s *bookingSuite) TestCancelRestoresAvailability() {
	ctx := context.Background()
	event := s.harness.SeedEvent(s.T(), "Wine Tasting", 10, 60)

	_, err := s.flow.StartAttempt(ctx, event.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.flow.SelectSeats(4))
	s.Require().NoError(s.flow.RequestLock(ctx))
	s.Equal(6, s.harness.AvailableSeats(s.T(), event.ID))

	s.Require().NoError(s.flow.Cancel(ctx))
	s.Equal(booking.PhaseCancelled, s.flow.Snapshot().Phase)
	s.Equal(10, s.harness.AvailableSeats(s.T(), event.ID))
}

func (s *bookingSuite) TestServerExpiryBeatsLateConfirm() {
	ctx := context.Background()
	harness := e2e.NewHarness(s.T(), 150*time.Millisecond)
	harness.LoginAs(s.T(), "Bob", "bob@example.com", "pw123456", "user")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := commands.NewNavigationGuard(alwaysYes{}, logger)
	flow := commands.NewBookingFlow(
		harness.Client, idempotency.NewUUIDProvider(), harness.Clock, guard, harness.Session.UserID, logger,
	)
	flow.SetTickInterval(10 * time.Millisecond)

	event := harness.SeedEvent(s.T(), "Flash Sale", 5, 10)
	_, err := flow.StartAttempt(ctx, event.ID)
	s.Require().NoError(err)
	s.Require().NoError(flow.SelectSeats(1))
	s.Require().NoError(flow.RequestLock(ctx))

	// Wait out the server-side TTL, then try to confirm the dead hold.
	time.Sleep(400 * time.Millisecond)

	err = flow.RequestConfirm(ctx)
	s.Require().Error(err)
	s.True(
		errors.Is(err, errs.ErrConflict) || errors.Is(err, errs.ErrExpired) || errors.Is(err, errs.ErrDesynchronized),
		"dead hold must not confirm: %v", err,
	)
	s.Equal(5, harness.AvailableSeats(s.T(), event.ID), "server expiry restored the seats")
}

func (s *bookingSuite) TestLockRequiresAuthentication() {
	ctx := context.Background()
	event := s.harness.SeedEvent(s.T(), "Members Only", 10, 50)

	s.Require().NoError(s.harness.Session.Clear())

	_, err := s.flow.StartAttempt(ctx, event.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.flow.SelectSeats(1))

	err = s.flow.RequestLock(ctx)
	s.Require().ErrorIs(err, errs.ErrUnauthorized)
}

func (s *bookingSuite) TestOTPLogin() {
	ctx := context.Background()
	_, err := s.harness.Backend.CreateUser("Carol", "carol@example.com", "pw123456", "user", true)
	s.Require().NoError(err)

	result, err := s.harness.Client.Login(ctx, "carol@example.com", "pw123456")
	s.Require().NoError(err)
	s.True(result.OTPRequired)

	code, ok := s.harness.Backend.PeekOTP("carol@example.com")
	s.Require().True(ok)

	verified, err := s.harness.Client.VerifyOTP(ctx, "carol@example.com", code, "login")
	s.Require().NoError(err)
	s.Require().NotNil(verified.User)
	s.NotEmpty(verified.Token)
	s.Equal("Carol", verified.User.Name)
}
