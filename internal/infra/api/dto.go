package api

import (
	"time"

	"eventix-client/internal/domain/event"
	"eventix-client/internal/pkg/errs"
	"eventix-client/internal/usecase/commands"
	"eventix-client/internal/usecase/queries"
)

// Response shapes mirror the backend's loosely-typed JSON. Required fields
// are pointers so a missing field is rejected here instead of propagating a
// zero value into the state machine.
type eventDTO struct {
	ID             *string    `json:"_id"`
	Name           *string    `json:"name"`
	Description    string     `json:"description"`
	EventDate      *time.Time `json:"eventDate"`
	AvailableSeats *int       `json:"availableSeats"`
	TotalSeats     *int       `json:"totalSeats"`
	Amount         *int64     `json:"amount"`
}

type lockDTO struct {
	Success   bool       `json:"success"`
	LockID    *string    `json:"lockId"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type bookingDTO struct {
	ID        *string   `json:"_id"`
	EventID   string    `json:"eventId"`
	EventName string    `json:"eventName"`
	Seats     int       `json:"seats"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type userDTO struct {
	ID          *string `json:"_id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	OTPEnabled  bool    `json:"otpEnabled"`
	Token       string  `json:"token"`
	OTPRequired bool    `json:"otpRequired"`
}

func malformed(field string) error {
	return errs.Mark(errs.Newf("response missing required field %q", field), errs.ErrMalformedResponse)
}

func (d *eventDTO) validate() error {
	switch {
	case d == nil:
		return malformed("data")
	case d.ID == nil:
		return malformed("_id")
	case d.Name == nil:
		return malformed("name")
	case d.AvailableSeats == nil:
		return malformed("availableSeats")
	case d.TotalSeats == nil:
		return malformed("totalSeats")
	}
	return nil
}

func (d *eventDTO) amount() int64 {
	if d.Amount == nil {
		return 0
	}
	return *d.Amount
}

func (d *eventDTO) date() time.Time {
	if d.EventDate == nil {
		return time.Time{}
	}
	return *d.EventDate
}

func eventSnapshotFromDTO(d *eventDTO) (*commands.EventSnapshot, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &commands.EventSnapshot{
		ID:             *d.ID,
		Name:           *d.Name,
		Description:    d.Description,
		Date:           d.date(),
		AvailableSeats: *d.AvailableSeats,
		TotalSeats:     *d.TotalSeats,
		Amount:         d.amount(),
	}, nil
}

func eventViewFromDTO(d *eventDTO) (*queries.EventView, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	e := event.Reconstruct(*d.ID, *d.Name, d.Description, d.date(),
		*d.AvailableSeats, *d.TotalSeats, d.amount())
	return &queries.EventView{
		ID:             e.ID(),
		Name:           e.Name(),
		Description:    e.Description(),
		Date:           e.Date(),
		AvailableSeats: e.AvailableSeats(),
		TotalSeats:     e.TotalSeats(),
		Amount:         e.Amount(),
		SoldOut:        e.IsSoldOut(),
	}, nil
}

func lockSnapshotFromDTO(d *lockDTO) (*commands.LockSnapshot, error) {
	switch {
	case d == nil:
		return nil, malformed("lock")
	case d.LockID == nil:
		return nil, malformed("lockId")
	case d.ExpiresAt == nil:
		return nil, malformed("expiresAt")
	}
	return &commands.LockSnapshot{
		LockID:    *d.LockID,
		ExpiresAt: *d.ExpiresAt,
	}, nil
}

func bookingSnapshotFromDTO(d *bookingDTO) (*commands.BookingSnapshot, error) {
	if d == nil || d.ID == nil {
		return nil, malformed("booking._id")
	}
	return &commands.BookingSnapshot{
		ID:      *d.ID,
		EventID: d.EventID,
		Seats:   d.Seats,
		Status:  d.Status,
	}, nil
}

func bookingViewFromDTO(d *bookingDTO) queries.BookingView {
	view := queries.BookingView{
		EventName: d.EventName,
		Seats:     d.Seats,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
	}
	if d.ID != nil {
		view.ID = *d.ID
	}
	return view
}

func userSnapshotFromDTO(d *userDTO) (*commands.UserSnapshot, error) {
	if d == nil || d.ID == nil {
		return nil, malformed("user._id")
	}
	return &commands.UserSnapshot{
		ID:         *d.ID,
		Name:       d.Name,
		Email:      d.Email,
		Role:       d.Role,
		OTPEnabled: d.OTPEnabled,
	}, nil
}

// loginResultFromDTO accepts either a full session payload or the
// otp-required marker, which carries no user ID yet.
func loginResultFromDTO(d *userDTO) (*commands.LoginResult, error) {
	if d == nil {
		return nil, malformed("data")
	}
	if d.OTPRequired {
		return &commands.LoginResult{OTPRequired: true}, nil
	}
	snapshot, err := userSnapshotFromDTO(d)
	if err != nil {
		return nil, err
	}
	return &commands.LoginResult{
		User:  snapshot,
		Token: d.Token,
	}, nil
}
