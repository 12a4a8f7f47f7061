//go:build unit

package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventix-client/internal/domain/booking"
	"eventix-client/internal/infra/api"
	"eventix-client/internal/pkg/config"
	"eventix-client/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, handler http.Handler, token string) *api.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := config.APIConfig{BaseURL: server.URL, Timeout: 2 * time.Second}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.New(cfg, logger, func() string { return token })
}

func TestGetEvent(t *testing.T) {
	t.Run("decodes the data envelope", func(t *testing.T) {
		client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/events/ev-1", r.URL.Path)
			_, _ = w.Write([]byte(`{"data":{"_id":"ev-1","name":"Summer Beats","eventDate":"2026-06-01T19:00:00Z","availableSeats":8,"totalSeats":10,"amount":50}}`))
		}), "")

		snap, err := client.GetEvent(context.Background(), "ev-1")
		require.NoError(t, err)
		assert.Equal(t, "ev-1", snap.ID)
		assert.Equal(t, 8, snap.AvailableSeats)
		assert.Equal(t, int64(50), snap.Amount)
	})

	t.Run("missing required field is malformed", func(t *testing.T) {
		client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data":{"_id":"ev-1","name":"X","totalSeats":10}}`))
		}), "")

		_, err := client.GetEvent(context.Background(), "ev-1")
		require.ErrorIs(t, err, errs.ErrMalformedResponse)
	})

	t.Run("non-JSON body is malformed", func(t *testing.T) {
		client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>gateway error</html>`))
		}), "")

		_, err := client.GetEvent(context.Background(), "ev-1")
		require.ErrorIs(t, err, errs.ErrMalformedResponse)
	})
}

func TestLockSeats(t *testing.T) {
	key := uuid.New()

	t.Run("sends seats, user and key; reads the flat response", func(t *testing.T) {
		client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/events/ev-1/lock", r.URL.Path)
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(2), body["seats"])
			assert.Equal(t, "user-1", body["userId"])
			assert.Equal(t, key.String(), body["idempotencyKey"])

			_, _ = w.Write([]byte(`{"success":true,"lockId":"lock-9","expiresAt":"2026-06-01T12:05:00Z"}`))
		}), "tok-1")

		lock, err := client.LockSeats(context.Background(), "ev-1", 2, "user-1", key)
		require.NoError(t, err)
		assert.Equal(t, "lock-9", lock.LockID)
		assert.Equal(t, time.Date(2026, 6, 1, 12, 5, 0, 0, time.UTC), lock.ExpiresAt)
	})

	t.Run("409 maps to conflict with the server message", func(t *testing.T) {
		client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"only 1 seat available"}`))
		}), "tok-1")

		_, err := client.LockSeats(context.Background(), "ev-1", 2, "user-1", key)
		require.ErrorIs(t, err, errs.ErrConflict)
		assert.Contains(t, err.Error(), "only 1 seat available")
	})

	t.Run("lock response without lockId is malformed", func(t *testing.T) {
		client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"success":true}`))
		}), "tok-1")

		_, err := client.LockSeats(context.Background(), "ev-1", 2, "user-1", key)
		require.ErrorIs(t, err, errs.ErrMalformedResponse)
	})
}

func TestStatusTaxonomy(t *testing.T) {
	cases := []struct {
		status int
		errIs  error
	}{
		{status: http.StatusBadRequest, errIs: errs.ErrValidation},
		{status: http.StatusUnauthorized, errIs: errs.ErrUnauthorized},
		{status: http.StatusForbidden, errIs: errs.ErrPermissionDenied},
		{status: http.StatusNotFound, errIs: errs.ErrNotFound},
		{status: http.StatusConflict, errIs: errs.ErrConflict},
		{status: http.StatusUnprocessableEntity, errIs: errs.ErrValidation},
		{status: http.StatusInternalServerError, errIs: errs.ErrNetwork},
		{status: http.StatusBadGateway, errIs: errs.ErrNetwork},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}), "")

			_, err := client.GetEvent(context.Background(), "ev-1")
			require.ErrorIs(t, err, tc.errIs)
		})
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	cfg := config.APIConfig{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := api.New(cfg, logger, nil)

	_, err := client.GetEvent(context.Background(), "ev-1")
	require.ErrorIs(t, err, errs.ErrNetwork)
}

func TestConfirmBooking(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bookings/confirm", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "lock-9", body["lockId"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"booking":{"_id":"bk-1","eventId":"ev-1","seats":2,"status":"CONFIRMED"}}`))
	}), "tok-1")

	snap, err := client.ConfirmBooking(context.Background(), "lock-9")
	require.NoError(t, err)
	assert.Equal(t, "bk-1", snap.ID)
	assert.Equal(t, "CONFIRMED", snap.Status)
}

func TestProcessPayment(t *testing.T) {
	key := uuid.New()
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/bk-1/process", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SUCCESS", body["status"])
		assert.Equal(t, key.String(), body["idempotencyKey"])
		_, _ = w.Write([]byte(`{"success":true}`))
	}), "tok-1")

	require.NoError(t, client.ProcessPayment(context.Background(), "bk-1", booking.PaymentSuccess, key))
}

func TestListEvents(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "admin", r.URL.Query().Get("userRole"))
		_, _ = w.Write([]byte(`{"data":[
			{"_id":"ev-1","name":"A","eventDate":"2026-06-01T19:00:00Z","availableSeats":0,"totalSeats":10,"amount":50},
			{"_id":"ev-2","name":"B","eventDate":"2026-07-01T19:00:00Z","availableSeats":3,"totalSeats":10,"amount":80}
		]}`))
	}), "tok-1")

	views, err := client.ListEvents(context.Background(), "admin")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].SoldOut)
	assert.False(t, views[1].SoldOut)
}

func TestLoginShapes(t *testing.T) {
	t.Run("session payload", func(t *testing.T) {
		client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data":{"_id":"u-1","name":"Alice","email":"alice@example.com","role":"user","token":"tok-1"}}`))
		}), "")

		result, err := client.Login(context.Background(), "alice@example.com", "pw")
		require.NoError(t, err)
		require.NotNil(t, result.User)
		assert.Equal(t, "tok-1", result.Token)
		assert.False(t, result.OTPRequired)
	})

	t.Run("OTP demand", func(t *testing.T) {
		client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data":{"otpRequired":true,"email":"alice@example.com"}}`))
		}), "")

		result, err := client.Login(context.Background(), "alice@example.com", "pw")
		require.NoError(t, err)
		assert.True(t, result.OTPRequired)
		assert.Nil(t, result.User)
	})
}
