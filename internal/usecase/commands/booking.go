package commands

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"eventix-client/internal/domain/booking"
	"eventix-client/internal/domain/event"
	"eventix-client/internal/pkg/clock"
	"eventix-client/internal/pkg/countdown"
	"eventix-client/internal/pkg/errs"
	"eventix-client/internal/pkg/idempotency"

	"github.com/google/uuid"
)

const (
	// Prompt texts shown when the guard intercepts an exit with a live lock.
	ExitPrompt = "Going back will cancel your seat lock. Continue?"

	shutdownCancelTimeout = 2 * time.Second
)

var (
	ErrNoActiveAttempt = errs.New("no active booking attempt")
	ErrLockStillHeld   = errs.New("a seat lock is still held; cancel it first")
)

// Snapshot is the read-only view of the current attempt handed to the
// presentation layer.
type Snapshot struct {
	EventID          string
	EventName        string
	Phase            booking.Phase
	Seats            int
	AvailableSeats   int
	AmountPerSeat    int64
	TotalAmount      int64
	RemainingSeconds int
	LockID           string
	BookingID        string
	LastError        string
}

// IdentitySource supplies the logged-in user's ID for lock requests;
// empty means unauthenticated.
type IdentitySource func() string

// BookingFlow owns the single active BookingAttempt and is the only writer
// to it. Every user intent and timer event funnels through here, one at a
// time; whichever of two racing events is processed first wins and the loser
// bounces off the transition table.
type BookingFlow struct {
	gateway  BookingGateway
	keys     idempotency.Provider
	clock    clock.Clock
	guard    *NavigationGuard
	identity IdentitySource
	logger   *slog.Logger

	tickInterval time.Duration
	onTick       func(remaining int)

	mu       sync.Mutex
	attempt  *booking.Attempt
	timer    *countdown.Timer
	inFlight bool

	// Keys held constant across retries of the same logical action and
	// discarded once that action succeeds or is abandoned.
	lockKey    uuid.UUID
	confirmKey uuid.UUID
	paymentKey uuid.UUID
}

func NewBookingFlow(
	gateway BookingGateway,
	keys idempotency.Provider,
	clk clock.Clock,
	guard *NavigationGuard,
	identity IdentitySource,
	logger *slog.Logger,
) *BookingFlow {
	return &BookingFlow{
		gateway:      gateway,
		keys:         keys,
		clock:        clk,
		guard:        guard,
		identity:     identity,
		logger:       logger,
		tickInterval: time.Second,
	}
}

// OnCountdownTick registers an observer notified with the remaining whole
// seconds on every countdown tick. Must be called before a lock is acquired.
func (f *BookingFlow) OnCountdownTick(fn func(remaining int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onTick = fn
}

// SetTickInterval shortens the countdown granularity for tests. Must be
// called before any lock is acquired.
func (f *BookingFlow) SetTickInterval(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickInterval = d
}

// StartAttempt fetches the event and opens seat selection for it, replacing
// any finished previous attempt. A live lock must be cancelled first; the
// guard exists precisely so that cannot happen silently.
func (f *BookingFlow) StartAttempt(ctx context.Context, eventID string) (Snapshot, error) {
	f.mu.Lock()
	if f.attempt != nil && f.attempt.HoldsLock() {
		f.mu.Unlock()
		return Snapshot{}, ErrLockStillHeld
	}
	f.mu.Unlock()

	snap, err := f.gateway.GetEvent(ctx, eventID)
	if err != nil {
		return Snapshot{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopTimerLocked()
	f.guard.Disarm()
	f.attempt = booking.NewAttempt(snap.ID, snap.Name, snap.AvailableSeats, snap.Amount)
	f.lockKey = uuid.Nil
	f.confirmKey = uuid.Nil
	f.paymentKey = uuid.Nil
	return f.snapshotLocked(), nil
}

func (f *BookingFlow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *BookingFlow) SelectSeats(seats int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attempt == nil {
		return ErrNoActiveAttempt
	}
	prev := f.attempt.RequestedSeats()
	if err := f.attempt.Apply(f.clock.Now(), booking.Event{Kind: booking.EvSeatsSelected, Seats: seats}); err != nil {
		return err
	}
	// "Lock n seats" with a different n is a new logical action; a key held
	// from a failed attempt at the old count must not cover it.
	if seats != prev {
		f.lockKey = uuid.Nil
	}
	return nil
}

// RequestLock re-validates availability against a fresh event read, then
// asks the server for a temporary hold. On success the countdown starts from
// the server-issued expiry and the guard arms.
func (f *BookingFlow) RequestLock(ctx context.Context) error {
	f.mu.Lock()
	if f.attempt == nil {
		f.mu.Unlock()
		return ErrNoActiveAttempt
	}
	if f.inFlight {
		f.mu.Unlock()
		return errs.ErrActionInFlight
	}
	if f.lockKey == uuid.Nil {
		f.lockKey = f.keys.NewKey()
	}
	seats := f.attempt.RequestedSeats()
	eventID := f.attempt.EventID()
	key := f.lockKey
	userID := f.identity()
	if err := f.attempt.Apply(f.clock.Now(), booking.Event{Kind: booking.EvLockRequested, Seats: seats, Key: key}); err != nil {
		f.mu.Unlock()
		return err
	}
	f.inFlight = true
	f.mu.Unlock()

	// Availability can change server-side at any moment; re-check before
	// the mutating call so an obviously stale request fails fast.
	var lock *LockSnapshot
	fresh, err := f.gateway.GetEvent(ctx, eventID)
	if err == nil {
		f.mu.Lock()
		f.attempt.RefreshAvailability(fresh.AvailableSeats)
		f.mu.Unlock()
		ev := event.Reconstruct(fresh.ID, fresh.Name, fresh.Description, fresh.Date,
			fresh.AvailableSeats, fresh.TotalSeats, fresh.Amount)
		if !ev.CanAccommodate(seats) {
			err = errs.Mark(
				errs.Newf("only %d seats still available", fresh.AvailableSeats),
				errs.ErrConflict,
			)
		}
	}
	if err == nil {
		lock, err = f.gateway.LockSeats(ctx, eventID, seats, userID, key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	now := f.clock.Now()

	if err != nil {
		if applyErr := f.attempt.Apply(now, booking.Event{Kind: booking.EvLockFailed, Reason: userMessage(err)}); applyErr != nil {
			f.logger.Warn("lock failure not applicable", "error", applyErr)
		}
		return err // lockKey kept: a retry resubmits the same request
	}

	if applyErr := f.attempt.Apply(now, booking.Event{
		Kind:          booking.EvLockAcquired,
		LockID:        lock.LockID,
		LockExpiresAt: lock.ExpiresAt,
	}); applyErr != nil {
		// The phase moved on while the response was in the air; release
		// the orphaned hold rather than sit on it until server expiry.
		// Runs off the mutex so the release round trip cannot stall
		// snapshots or the countdown.
		go f.releaseOrphanLock(lock.LockID)
		return applyErr
	}

	f.lockKey = uuid.Nil
	f.guard.Arm()
	f.startTimerLocked(lock.ExpiresAt)
	return nil
}

// RequestConfirm converts the hold into a booking while time remains.
func (f *BookingFlow) RequestConfirm(ctx context.Context) error {
	f.mu.Lock()
	if f.attempt == nil {
		f.mu.Unlock()
		return ErrNoActiveAttempt
	}
	if f.inFlight {
		f.mu.Unlock()
		return errs.ErrActionInFlight
	}
	if f.confirmKey == uuid.Nil {
		f.confirmKey = f.keys.NewKey()
	}
	if err := f.attempt.Apply(f.clock.Now(), booking.Event{Kind: booking.EvConfirmRequested, Key: f.confirmKey}); err != nil {
		f.mu.Unlock()
		return err
	}
	lockID := f.attempt.LockID()
	f.inFlight = true
	f.mu.Unlock()

	confirmed, err := f.gateway.ConfirmBooking(ctx, lockID)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	now := f.clock.Now()

	if err != nil {
		if applyErr := f.attempt.Apply(now, booking.Event{Kind: booking.EvConfirmFailed, Reason: userMessage(err)}); applyErr != nil {
			// Expiry won the race while the request was in flight.
			f.logger.Info("confirm failure after expiry", "error", applyErr)
		}
		return err // confirmKey kept; lock and countdown stay live for a retry
	}

	if applyErr := f.attempt.Apply(now, booking.Event{Kind: booking.EvConfirmSucceeded, BookingID: confirmed.ID}); applyErr != nil {
		// A confirmation landing after local expiry means the client and
		// server disagree about the lock's fate. Report, never apply.
		return errs.Mark(errs.Wrap(applyErr, "confirmation arrived after expiry"), errs.ErrDesynchronized)
	}

	f.confirmKey = uuid.Nil
	f.guard.Disarm() // the lock is converted, nothing left to protect
	f.stopTimerLocked()
	return nil
}

// SubmitPayment drives the terminal step. The outcome intent comes from the
// presentation layer; the server's acknowledgement decides the phase.
func (f *BookingFlow) SubmitPayment(ctx context.Context, outcome booking.PaymentOutcome) error {
	if !outcome.IsValid() {
		return errs.Mark(errs.Newf("unknown payment outcome %q", outcome), errs.ErrValidation)
	}

	f.mu.Lock()
	if f.attempt == nil {
		f.mu.Unlock()
		return ErrNoActiveAttempt
	}
	if f.inFlight {
		f.mu.Unlock()
		return errs.ErrActionInFlight
	}
	if f.paymentKey == uuid.Nil {
		f.paymentKey = f.keys.NewKey()
	}
	if err := f.attempt.Apply(f.clock.Now(), booking.Event{Kind: booking.EvPaymentRequested, Key: f.paymentKey}); err != nil {
		f.mu.Unlock()
		return err
	}
	bookingID := f.attempt.BookingID()
	key := f.paymentKey
	f.inFlight = true
	f.mu.Unlock()

	err := f.gateway.ProcessPayment(ctx, bookingID, outcome, key)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	now := f.clock.Now()

	if err != nil {
		if applyErr := f.attempt.Apply(now, booking.Event{Kind: booking.EvPaymentFailed, Reason: userMessage(err)}); applyErr != nil {
			f.logger.Warn("payment failure not applicable", "error", applyErr)
		}
		return err // paymentKey kept for the retry
	}

	f.paymentKey = uuid.Nil
	if applyErr := f.attempt.Apply(now, booking.Event{Kind: terminalKindFor(outcome)}); applyErr != nil {
		return applyErr
	}
	if outcome == booking.PaymentFailure {
		// A business outcome, not a defect; callers can tell it apart from
		// transport failures and render the terminal phase.
		return errs.Mark(errs.New("payment was declined"), errs.ErrPaymentDeclined)
	}
	return nil
}

// Cancel releases the current hold. The cancel endpoint is idempotent and
// the server expires abandoned holds anyway, so a failed release is logged
// and swallowed: the attempt is Cancelled either way.
func (f *BookingFlow) Cancel(ctx context.Context) error {
	f.mu.Lock()
	if f.attempt == nil {
		f.mu.Unlock()
		return ErrNoActiveAttempt
	}
	if f.inFlight {
		f.mu.Unlock()
		return errs.ErrActionInFlight
	}
	lockID := f.attempt.LockID()
	if err := f.attempt.Apply(f.clock.Now(), booking.Event{Kind: booking.EvCancelRequested}); err != nil {
		f.mu.Unlock()
		return err
	}
	f.guard.Disarm()
	f.stopTimerLocked()
	f.confirmKey = uuid.Nil
	f.mu.Unlock()

	if err := f.gateway.CancelLock(ctx, lockID); err != nil {
		f.logger.Warn("cancel-lock failed; server expiry will reclaim the seats",
			"lock_id", lockID, "error", err)
	}
	return nil
}

// RequestNavigateAway is the back-navigation interception: with a live lock
// it prompts, and only a confirmed exit releases the lock and lets
// navigation proceed. Returns whether the caller may navigate.
func (f *BookingFlow) RequestNavigateAway(ctx context.Context) (bool, error) {
	if !f.guard.Armed() {
		return true, nil
	}
	if !f.guard.AllowExit(ExitPrompt) {
		return false, nil
	}
	if err := f.Cancel(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ReleaseOnShutdown is the tab-close analogue: on process exit a held lock
// is released best-effort, without prompting, under a short deadline.
func (f *BookingFlow) ReleaseOnShutdown(ctx context.Context) {
	f.mu.Lock()
	if f.attempt == nil || !f.attempt.HoldsLock() {
		f.mu.Unlock()
		return
	}
	lockID := f.attempt.LockID()
	if err := f.attempt.Apply(f.clock.Now(), booking.Event{Kind: booking.EvCancelRequested}); err != nil {
		f.mu.Unlock()
		return
	}
	f.guard.Disarm()
	f.stopTimerLocked()
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, shutdownCancelTimeout)
	defer cancel()
	if err := f.gateway.CancelLock(ctx, lockID); err != nil {
		f.logger.Warn("shutdown cancel-lock failed", "lock_id", lockID, "error", err)
	}
}

func (f *BookingFlow) snapshotLocked() Snapshot {
	if f.attempt == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		EventID:        f.attempt.EventID(),
		EventName:      f.attempt.EventName(),
		Phase:          f.attempt.Phase(),
		Seats:          f.attempt.RequestedSeats(),
		AvailableSeats: f.attempt.AvailableSeats(),
		AmountPerSeat:  f.attempt.Amount(),
		TotalAmount:    f.attempt.TotalAmount(),
		LockID:         f.attempt.LockID(),
		BookingID:      f.attempt.BookingID(),
		LastError:      f.attempt.LastError(),
	}
	if f.timer != nil && f.attempt.HoldsLock() {
		snap.RemainingSeconds = f.timer.Remaining()
	}
	return snap
}

func (f *BookingFlow) startTimerLocked(expiresAt time.Time) {
	f.timer = countdown.New(f.clock, f.tickInterval, f.onLockExpired)
	if f.onTick != nil {
		f.timer.OnTick(f.onTick)
	}
	f.timer.Start(expiresAt)
}

func (f *BookingFlow) stopTimerLocked() {
	if f.timer != nil {
		f.timer.Stop()
	}
}

// onLockExpired runs on the countdown goroutine. If a confirm response beat
// the expiry, the transition bounces and the expiry becomes a no-op.
func (f *BookingFlow) onLockExpired() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attempt == nil {
		return
	}
	if err := f.attempt.Apply(f.clock.Now(), booking.Event{Kind: booking.EvLockExpired}); err != nil {
		f.logger.Debug("expiry overtaken by phase change", "phase", f.attempt.Phase().String())
		return
	}
	f.logger.Info("seat lock expired locally", "event_id", f.attempt.EventID())
	f.guard.Disarm()
	f.confirmKey = uuid.Nil
}

func (f *BookingFlow) releaseOrphanLock(lockID string) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownCancelTimeout)
	defer cancel()
	if err := f.gateway.CancelLock(ctx, lockID); err != nil {
		f.logger.Warn("orphan lock release failed", "lock_id", lockID, "error", err)
	}
}

func terminalKindFor(outcome booking.PaymentOutcome) booking.EventKind {
	switch outcome {
	case booking.PaymentSuccess:
		return booking.EvPaymentSucceeded
	case booking.PaymentTimeout:
		return booking.EvPaymentTimedOut
	default:
		return booking.EvPaymentDeclined
	}
}

// userMessage strips wrapping noise down to what the user should read.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
