package commands

import (
	"context"
	"time"

	"eventix-client/internal/domain/booking"
	"eventix-client/internal/domain/event"

	"github.com/google/uuid"
)

// Write-side snapshots prevent dependency on read-side query types (CQRS
// separation): commands only see the fields the state machine needs.
type EventSnapshot struct {
	ID             string
	Name           string
	Description    string
	Date           time.Time
	AvailableSeats int
	TotalSeats     int
	Amount         int64
}

type LockSnapshot struct {
	LockID    string
	ExpiresAt time.Time
}

type BookingSnapshot struct {
	ID      string
	EventID string
	Seats   int
	Status  string
}

type UserSnapshot struct {
	ID         string
	Name       string
	Email      string
	Role       string
	OTPEnabled bool
}

// LoginResult covers both server answers to a credential or OTP submission:
// either a session (user + token) or a demand for OTP verification.
type LoginResult struct {
	User        *UserSnapshot
	Token       string
	OTPRequired bool
}

type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// BookingGateway is the remote API surface the booking flow drives. All
// durable truth (inventory, lock expiry, payment outcomes) lives behind it;
// the client only submits intents and renders what comes back.
type BookingGateway interface {
	GetEvent(ctx context.Context, eventID string) (*EventSnapshot, error)
	LockSeats(ctx context.Context, eventID string, seats int, userID string, key uuid.UUID) (*LockSnapshot, error)
	CancelLock(ctx context.Context, lockID string) error
	ConfirmBooking(ctx context.Context, lockID string) (*BookingSnapshot, error)
	ProcessPayment(ctx context.Context, bookingID string, outcome booking.PaymentOutcome, key uuid.UUID) error
}

type AuthGateway interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, req RegisterRequest) (*LoginResult, error)
	VerifyOTP(ctx context.Context, email, otp, purpose string) (*LoginResult, error)
	ResendOTP(ctx context.Context, email, purpose string) error
	GetUser(ctx context.Context, userID string) (*UserSnapshot, error)
	UpdateOTPPreference(ctx context.Context, userID string, enabled bool) error
}

type EventAdminGateway interface {
	CreateEvent(ctx context.Context, draft event.Draft, key uuid.UUID) (*EventSnapshot, error)
}

type CancellationGateway interface {
	CancelBooking(ctx context.Context, bookingID string) error
}
