// Package stubapi is an in-memory stand-in for the Eventix backend. It
// implements the same HTTP contract the real server exposes so the client
// can be developed and tested against seat inventory, lock expiry and
// idempotency-key replay without any external service.
package stubapi

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"eventix-client/internal/pkg/clock"
	"eventix-client/internal/pkg/errs"
	"eventix-client/internal/pkg/password"

	"github.com/lithammer/shortuuid/v3"
)

type Event struct {
	ID             string
	Name           string
	Description    string
	Date           time.Time
	TotalSeats     int
	AvailableSeats int
	Amount         int64
}

type Lock struct {
	ID        string
	EventID   string
	UserID    string
	Seats     int
	ExpiresAt time.Time
	Cancelled bool
	Confirmed bool
}

type Booking struct {
	ID        string
	EventID   string
	EventName string
	UserID    string
	Seats     int
	Status    string
	CreatedAt time.Time
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	OTPEnabled   bool
	Verified     bool
}

type otpEntry struct {
	Code      string
	Purpose   string
	ExpiresAt time.Time
}

const (
	BookingConfirmed = "CONFIRMED"
	BookingCompleted = "COMPLETED"
	BookingFailed    = "FAILED"
	BookingPending   = "PENDING"
	BookingCancelled = "CANCELLED"
)

// Store holds all durable state behind a single mutex. Expired locks are
// swept lazily on every entry point, which is the server-side backstop the
// client's navigation guard relies on.
type Store struct {
	mu      sync.Mutex
	clock   clock.Clock
	lockTTL time.Duration
	otpTTL  time.Duration

	events       map[string]*Event
	locks        map[string]*Lock
	bookings     map[string]*Booking
	users        map[string]*User
	usersByEmail map[string]*User
	otps         map[string]otpEntry
	idempotency  map[string]string // key -> resulting entity ID
}

func NewStore(clk clock.Clock, lockTTL, otpTTL time.Duration) *Store {
	return &Store{
		clock:        clk,
		lockTTL:      lockTTL,
		otpTTL:       otpTTL,
		events:       make(map[string]*Event),
		locks:        make(map[string]*Lock),
		bookings:     make(map[string]*Booking),
		users:        make(map[string]*User),
		usersByEmail: make(map[string]*User),
		otps:         make(map[string]otpEntry),
		idempotency:  make(map[string]string),
	}
}

// ---------- users ----------

func (s *Store) CreateUser(name, email, plainPassword, role string, otpEnabled bool) (*User, error) {
	hash, err := password.HashPassword(plainPassword)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByEmail[email]; exists {
		return nil, errs.Mark(errs.Newf("email %s already registered", email), errs.ErrConflict)
	}
	u := &User{
		ID:           shortuuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		OTPEnabled:   otpEnabled,
	}
	s.users[u.ID] = u
	s.usersByEmail[email] = u
	return u, nil
}

func (s *Store) Authenticate(email, plainPassword string) (*User, error) {
	s.mu.Lock()
	u, ok := s.usersByEmail[email]
	s.mu.Unlock()
	if !ok {
		return nil, errs.ErrUnauthorized
	}
	if err := password.ComparePassword(u.PasswordHash, plainPassword); err != nil {
		return nil, errs.ErrUnauthorized
	}
	return u, nil
}

func (s *Store) GetUser(id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return u, nil
}

func (s *Store) SetOTPPreference(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.OTPEnabled = enabled
	return nil
}

// ---------- OTP ----------

func (s *Store) IssueOTP(email, purpose string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usersByEmail[email]; !ok {
		return "", errs.ErrNotFound
	}
	code := randomOTP()
	s.otps[email] = otpEntry{
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: s.clock.Now().Add(s.otpTTL),
	}
	return code, nil
}

func (s *Store) VerifyOTP(email, code, purpose string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.otps[email]
	if !ok || entry.Purpose != purpose {
		return nil, errs.Mark(errs.New("no OTP issued"), errs.ErrUnauthorized)
	}
	if s.clock.Now().After(entry.ExpiresAt) {
		delete(s.otps, email)
		return nil, errs.Mark(errs.New("OTP expired"), errs.ErrUnauthorized)
	}
	if entry.Code != code {
		return nil, errs.Mark(errs.New("incorrect OTP"), errs.ErrUnauthorized)
	}
	delete(s.otps, email)
	u := s.usersByEmail[email]
	u.Verified = true
	return u, nil
}

// PeekOTP exposes the pending code for tests and the dev console.
func (s *Store) PeekOTP(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.otps[email]
	return entry.Code, ok
}

// ---------- events ----------

func (s *Store) CreateEvent(name, description string, date time.Time, totalSeats int, amount int64, idempotencyKey string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		if id, seen := s.idempotency[idempotencyKey]; seen {
			return s.events[id], nil
		}
	}

	e := &Event{
		ID:             shortuuid.New(),
		Name:           name,
		Description:    description,
		Date:           date,
		TotalSeats:     totalSeats,
		AvailableSeats: totalSeats,
		Amount:         amount,
	}
	s.events[e.ID] = e
	if idempotencyKey != "" {
		s.idempotency[idempotencyKey] = e.ID
	}
	return e, nil
}

func (s *Store) ListEvents() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.clock.Now())
	out := make([]*Event, 0, len(s.events))
	for _, e := range s.events {
		copied := *e
		out = append(out, &copied)
	}
	return out
}

func (s *Store) GetEvent(id string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.clock.Now())
	e, ok := s.events[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

// ---------- locks ----------

// LockSeats places a time-bounded hold. Replaying the same idempotency key
// returns the original hold instead of double-decrementing availability.
func (s *Store) LockSeats(eventID, userID string, seats int, idempotencyKey string) (*Lock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	s.sweepLocked(now)

	if idempotencyKey == "" {
		return nil, errs.Mark(errs.New("idempotency key required"), errs.ErrValidation)
	}
	if lockID, seen := s.idempotency[idempotencyKey]; seen {
		if l, ok := s.locks[lockID]; ok {
			copied := *l
			return &copied, nil
		}
	}

	e, ok := s.events[eventID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if seats < 1 {
		return nil, errs.Mark(errs.New("seats must be positive"), errs.ErrValidation)
	}
	if seats > e.AvailableSeats {
		return nil, errs.Mark(
			errs.Newf("only %d seats available", e.AvailableSeats),
			errs.ErrConflict,
		)
	}

	l := &Lock{
		ID:        shortuuid.New(),
		EventID:   eventID,
		UserID:    userID,
		Seats:     seats,
		ExpiresAt: now.Add(s.lockTTL),
	}
	e.AvailableSeats -= seats
	s.locks[l.ID] = l
	s.idempotency[idempotencyKey] = l.ID
	return l, nil
}

// CancelLock is idempotent: cancelling an unknown, expired or already
// cancelled lock succeeds without effect.
func (s *Store) CancelLock(lockID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	s.sweepLocked(now)

	l, ok := s.locks[lockID]
	if !ok || l.Cancelled || l.Confirmed {
		return
	}
	l.Cancelled = true
	if e, ok := s.events[l.EventID]; ok {
		e.AvailableSeats += l.Seats
	}
}

// ---------- bookings ----------

func (s *Store) ConfirmBooking(lockID string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	s.sweepLocked(now)

	l, ok := s.locks[lockID]
	if !ok {
		return nil, errs.Mark(errs.New("lock not found"), errs.ErrConflict)
	}
	if l.Cancelled || now.After(l.ExpiresAt) {
		return nil, errs.Mark(errs.New("lock expired or cancelled"), errs.ErrConflict)
	}
	if l.Confirmed {
		return nil, errs.Mark(errs.New("lock already confirmed"), errs.ErrConflict)
	}

	l.Confirmed = true
	eventName := ""
	if e, ok := s.events[l.EventID]; ok {
		eventName = e.Name
	}
	b := &Booking{
		ID:        shortuuid.New(),
		EventID:   l.EventID,
		EventName: eventName,
		UserID:    l.UserID,
		Seats:     l.Seats,
		Status:    BookingConfirmed,
		CreatedAt: now,
	}
	s.bookings[b.ID] = b
	return b, nil
}

func (s *Store) ProcessPayment(bookingID, status, idempotencyKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey == "" {
		return errs.Mark(errs.New("idempotency key required"), errs.ErrValidation)
	}
	if _, seen := s.idempotency[idempotencyKey]; seen {
		return nil // replay: the first submission already took effect
	}

	b, ok := s.bookings[bookingID]
	if !ok {
		return errs.ErrNotFound
	}
	if b.Status != BookingConfirmed {
		return errs.Mark(errs.Newf("booking is %s, not payable", b.Status), errs.ErrConflict)
	}

	switch status {
	case "SUCCESS":
		b.Status = BookingCompleted
	case "FAILURE":
		b.Status = BookingFailed
		s.restoreSeatsLocked(b)
	case "TIMEOUT":
		b.Status = BookingPending
	default:
		return errs.Mark(errs.Newf("unknown payment status %q", status), errs.ErrValidation)
	}
	s.idempotency[idempotencyKey] = bookingID
	return nil
}

func (s *Store) ListBookings(userID string) []*Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if userID == "" || b.UserID == userID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out
}

func (s *Store) GetBooking(id string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *Store) CancelBooking(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return errs.ErrNotFound
	}
	if b.Status != BookingConfirmed {
		return errs.Mark(errs.Newf("booking is %s, not cancellable", b.Status), errs.ErrConflict)
	}
	b.Status = BookingCancelled
	s.restoreSeatsLocked(b)
	return nil
}

// ---------- internals ----------

// sweepLocked releases every hold past its expiry. Callers hold s.mu.
func (s *Store) sweepLocked(now time.Time) {
	for _, l := range s.locks {
		if l.Cancelled || l.Confirmed || !now.After(l.ExpiresAt) {
			continue
		}
		l.Cancelled = true
		if e, ok := s.events[l.EventID]; ok {
			e.AvailableSeats += l.Seats
		}
	}
}

func (s *Store) restoreSeatsLocked(b *Booking) {
	if e, ok := s.events[b.EventID]; ok {
		e.AvailableSeats += b.Seats
		if e.AvailableSeats > e.TotalSeats {
			e.AvailableSeats = e.TotalSeats
		}
	}
}

func randomOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "000000"
	}
	return fmt.Sprintf("%06d", n.Int64())
}
