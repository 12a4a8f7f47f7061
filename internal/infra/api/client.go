// Package api is the typed HTTP gateway to the Eventix backend. It owns
// request construction and response validation; business rules stay in the
// usecase layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"eventix-client/internal/domain/booking"
	"eventix-client/internal/domain/event"
	"eventix-client/internal/pkg/config"
	"eventix-client/internal/pkg/errs"
	"eventix-client/internal/usecase/commands"
	"eventix-client/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// TokenSource provides the current bearer token, or "" when unauthenticated.
type TokenSource func() string

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	token      TokenSource
}

func New(cfg config.APIConfig, logger *slog.Logger, token TokenSource) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logger,
		token:      token,
	}
}

// ---------- booking gateway ----------

func (c *Client) GetEvent(ctx context.Context, eventID string) (*commands.EventSnapshot, error) {
	var resp struct {
		Data *eventDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/events/"+eventID, nil, &resp); err != nil {
		return nil, err
	}
	return eventSnapshotFromDTO(resp.Data)
}

func (c *Client) LockSeats(ctx context.Context, eventID string, seats int, userID string, key uuid.UUID) (*commands.LockSnapshot, error) {
	body := map[string]any{
		"seats":          seats,
		"userId":         userID,
		"idempotencyKey": key.String(),
	}
	var resp lockDTO
	if err := c.do(ctx, http.MethodPost, "/events/"+eventID+"/lock", body, &resp); err != nil {
		return nil, err
	}
	return lockSnapshotFromDTO(&resp)
}

func (c *Client) CancelLock(ctx context.Context, lockID string) error {
	// Idempotent server-side: cancelling an expired or already-cancelled
	// lock answers 200.
	return c.do(ctx, http.MethodPost, "/locks/"+lockID+"/cancel", struct{}{}, nil)
}

func (c *Client) ConfirmBooking(ctx context.Context, lockID string) (*commands.BookingSnapshot, error) {
	var resp struct {
		Booking *bookingDTO `json:"booking"`
	}
	if err := c.do(ctx, http.MethodPost, "/bookings/confirm", map[string]any{"lockId": lockID}, &resp); err != nil {
		return nil, err
	}
	return bookingSnapshotFromDTO(resp.Booking)
}

func (c *Client) ProcessPayment(ctx context.Context, bookingID string, outcome booking.PaymentOutcome, key uuid.UUID) error {
	if !outcome.IsValid() {
		return errs.Mark(errs.Newf("unknown payment outcome %q", outcome), errs.ErrValidation)
	}
	body := map[string]any{
		"status":         outcome.String(),
		"idempotencyKey": key.String(),
	}
	return c.do(ctx, http.MethodPost, "/payments/"+bookingID+"/process", body, nil)
}

// ---------- auth gateway ----------

func (c *Client) Login(ctx context.Context, email, password string) (*commands.LoginResult, error) {
	body := map[string]any{"email": email, "password": password}
	var resp struct {
		Data *userDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/login", body, &resp); err != nil {
		return nil, err
	}
	return loginResultFromDTO(resp.Data)
}

func (c *Client) Register(ctx context.Context, req commands.RegisterRequest) (*commands.LoginResult, error) {
	body := map[string]any{
		"name":     req.Name,
		"email":    req.Email,
		"password": req.Password,
	}
	var resp struct {
		Data *userDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/register", body, &resp); err != nil {
		return nil, err
	}
	return loginResultFromDTO(resp.Data)
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp, purpose string) (*commands.LoginResult, error) {
	path := "/users/verify-login-otp"
	if purpose == "register" {
		path = "/users/verify-register-otp"
	}
	body := map[string]any{"email": email, "otp": otp}
	var resp struct {
		Data *userDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return loginResultFromDTO(resp.Data)
}

func (c *Client) ResendOTP(ctx context.Context, email, purpose string) error {
	body := map[string]any{"email": email, "purpose": purpose}
	return c.do(ctx, http.MethodPost, "/users/resend-otp", body, nil)
}

func (c *Client) GetUser(ctx context.Context, userID string) (*commands.UserSnapshot, error) {
	var resp struct {
		Data *userDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/"+userID, nil, &resp); err != nil {
		return nil, err
	}
	return userSnapshotFromDTO(resp.Data)
}

func (c *Client) UpdateOTPPreference(ctx context.Context, userID string, enabled bool) error {
	body := map[string]any{"otpEnabled": enabled}
	return c.do(ctx, http.MethodPut, "/users/"+userID+"/otp-preference", body, nil)
}

// ---------- admin gateway ----------

func (c *Client) CreateEvent(ctx context.Context, draft event.Draft, key uuid.UUID) (*commands.EventSnapshot, error) {
	body := map[string]any{
		"name":           draft.Name,
		"description":    draft.Description,
		"eventDate":      draft.Date,
		"totalSeats":     draft.TotalSeats,
		"amount":         draft.Amount,
		"idempotencyKey": key.String(),
	}
	var resp struct {
		Data *eventDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/events", body, &resp); err != nil {
		return nil, err
	}
	return eventSnapshotFromDTO(resp.Data)
}

func (c *Client) CancelBooking(ctx context.Context, bookingID string) error {
	return c.do(ctx, http.MethodPost, "/cancellations/"+bookingID+"/cancel", struct{}{}, nil)
}

// ---------- read side ----------

func (c *Client) ListEvents(ctx context.Context, userRole string) ([]queries.EventView, error) {
	path := "/events"
	if userRole != "" {
		path += "?userRole=" + userRole
	}
	var resp struct {
		Data []eventDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	views := make([]queries.EventView, 0, len(resp.Data))
	for i := range resp.Data {
		view, err := eventViewFromDTO(&resp.Data[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (c *Client) GetEventView(ctx context.Context, eventID string) (*queries.EventView, error) {
	var resp struct {
		Data *eventDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/events/"+eventID, nil, &resp); err != nil {
		return nil, err
	}
	return eventViewFromDTO(resp.Data)
}

func (c *Client) ListBookings(ctx context.Context) ([]queries.BookingView, error) {
	var resp struct {
		Data []bookingDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/bookings", nil, &resp); err != nil {
		return nil, err
	}
	return lo.Map(resp.Data, func(dto bookingDTO, _ int) queries.BookingView {
		return bookingViewFromDTO(&dto)
	}), nil
}

func (c *Client) GetBooking(ctx context.Context, bookingID string) (*queries.BookingView, error) {
	var resp struct {
		Data *bookingDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/bookings/"+bookingID, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, errs.Mark(errs.New("booking payload missing"), errs.ErrMalformedResponse)
	}
	view := bookingViewFromDTO(resp.Data)
	return &view, nil
}

// ---------- transport ----------

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(err, "encode request body")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errs.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Mark(errs.Wrap(err, "request failed"), errs.ErrNetwork)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(method, path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Warn("undecodable response body", "method", method, "path", path, "error", err)
		return errs.Mark(errs.Wrap(err, "decode response"), errs.ErrMalformedResponse)
	}
	return nil
}

// statusError maps HTTP failure statuses onto the client taxonomy and keeps
// the server's message for display.
func (c *Client) statusError(method, path string, resp *http.Response) error {
	message := c.errorMessage(resp)
	err := errs.Newf("%s %s: %s (status %d)", method, path, message, resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusConflict:
		return errs.Mark(err, errs.ErrConflict)
	case resp.StatusCode == http.StatusUnauthorized:
		return errs.Mark(err, errs.ErrUnauthorized)
	case resp.StatusCode == http.StatusForbidden:
		return errs.Mark(err, errs.ErrPermissionDenied)
	case resp.StatusCode == http.StatusNotFound:
		return errs.Mark(err, errs.ErrNotFound)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return errs.Mark(err, errs.ErrValidation)
	default:
		return errs.Mark(err, errs.ErrNetwork)
	}
}

func (c *Client) errorMessage(resp *http.Response) string {
	var body struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error.Message != "" {
			return body.Error.Message
		}
	}
	return fmt.Sprintf("server returned %s", resp.Status)
}
