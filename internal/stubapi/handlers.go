package stubapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"eventix-client/internal/pkg/errs"
	"eventix-client/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// Handler serves the Eventix HTTP contract from the in-memory store. The
// wire shapes mirror the production backend: list/detail payloads wrapped
// in a data envelope, the lock response flat, errors as {"message": ...}.
type Handler struct {
	store  *Store
	tokens *jwt.Service
	logger *slog.Logger
}

func NewHandler(store *Store, tokens *jwt.Service, logger *slog.Logger) *Handler {
	return &Handler{store: store, tokens: tokens, logger: logger}
}

type eventJSON struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	EventDate      string `json:"eventDate"`
	TotalSeats     int    `json:"totalSeats"`
	AvailableSeats int    `json:"availableSeats"`
	Amount         int64  `json:"amount"`
}

type bookingJSON struct {
	ID        string `json:"_id"`
	EventID   string `json:"eventId"`
	EventName string `json:"eventName"`
	Seats     int    `json:"seats"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type userJSON struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	OTPEnabled bool   `json:"otpEnabled"`
}

func eventToJSON(e *Event) eventJSON {
	return eventJSON{
		ID:             e.ID,
		Name:           e.Name,
		Description:    e.Description,
		EventDate:      e.Date.Format(time.RFC3339),
		TotalSeats:     e.TotalSeats,
		AvailableSeats: e.AvailableSeats,
		Amount:         e.Amount,
	}
}

func bookingToJSON(b *Booking) bookingJSON {
	return bookingJSON{
		ID:        b.ID,
		EventID:   b.EventID,
		EventName: b.EventName,
		Seats:     b.Seats,
		Status:    b.Status,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
}

func userToJSON(u *User) userJSON {
	return userJSON{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, OTPEnabled: u.OTPEnabled}
}

func abortWithMessage(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		status = http.StatusConflict
	}
	msg := fallback
	if err != nil && status != http.StatusInternalServerError {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// ---------- events ----------

func (h *Handler) ListEvents(c *gin.Context) {
	events := h.store.ListEvents()
	out := make([]eventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, eventToJSON(e))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *Handler) GetEvent(c *gin.Context) {
	e, err := h.store.GetEvent(c.Param("id"))
	if err != nil {
		abortWithMessage(c, err, "event not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": eventToJSON(e)})
}

type createEventRequest struct {
	Name           string    `json:"name" binding:"required"`
	Description    string    `json:"description"`
	EventDate      time.Time `json:"eventDate" binding:"required"`
	TotalSeats     int       `json:"totalSeats" binding:"required"`
	Amount         int64     `json:"amount"`
	IdempotencyKey string    `json:"idempotencyKey"`
}

func (h *Handler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, errs.Mark(err, errs.ErrValidation), "invalid request")
		return
	}
	e, err := h.store.CreateEvent(req.Name, req.Description, req.EventDate, req.TotalSeats, req.Amount, req.IdempotencyKey)
	if err != nil {
		abortWithMessage(c, err, "could not create event")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": eventToJSON(e)})
}

// ---------- locks ----------

type lockRequest struct {
	Seats          int    `json:"seats" binding:"required"`
	UserID         string `json:"userId"`
	IdempotencyKey string `json:"idempotencyKey" binding:"required"`
}

func (h *Handler) LockSeats(c *gin.Context) {
	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, errs.Mark(err, errs.ErrValidation), "invalid request")
		return
	}
	userID := req.UserID
	if authed, ok := AuthenticatedUserID(c); ok {
		userID = authed
	}
	l, err := h.store.LockSeats(c.Param("id"), userID, req.Seats, req.IdempotencyKey)
	if err != nil {
		abortWithMessage(c, err, "could not lock seats")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"lockId":    l.ID,
		"expiresAt": l.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) CancelLock(c *gin.Context) {
	h.store.CancelLock(c.Param("lockId"))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---------- bookings ----------

type confirmRequest struct {
	LockID string `json:"lockId" binding:"required"`
}

func (h *Handler) ConfirmBooking(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, errs.Mark(err, errs.ErrValidation), "invalid request")
		return
	}
	b, err := h.store.ConfirmBooking(req.LockID)
	if err != nil {
		abortWithMessage(c, err, "could not confirm booking")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": bookingToJSON(b)})
}

type paymentRequest struct {
	Status         string `json:"status" binding:"required"`
	IdempotencyKey string `json:"idempotencyKey" binding:"required"`
}

func (h *Handler) ProcessPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, errs.Mark(err, errs.ErrValidation), "invalid request")
		return
	}
	if err := h.store.ProcessPayment(c.Param("id"), req.Status, req.IdempotencyKey); err != nil {
		abortWithMessage(c, err, "could not process payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) ListBookings(c *gin.Context) {
	userID, _ := AuthenticatedUserID(c)
	bookings := h.store.ListBookings(userID)
	out := make([]bookingJSON, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingToJSON(b))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.store.GetBooking(c.Param("id"))
	if err != nil {
		abortWithMessage(c, err, "booking not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": bookingToJSON(b)})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	if err := h.store.CancelBooking(c.Param("id")); err != nil {
		abortWithMessage(c, err, "could not cancel booking")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---------- auth ----------

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, errs.Mark(err, errs.ErrValidation), "invalid request")
		return
	}
	u, err := h.store.Authenticate(req.Email, req.Password)
	if err != nil {
		abortWithMessage(c, err, "invalid credentials")
		return
	}
	if u.OTPEnabled {
		code, issueErr := h.store.IssueOTP(u.Email, "login")
		if issueErr != nil {
			abortWithMessage(c, issueErr, "could not issue OTP")
			return
		}
		h.logger.Info("OTP issued", "email", u.Email, "code", code)
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"otpRequired": true, "email": u.Email}})
		return
	}
	h.issueToken(c, http.StatusOK, u)
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, errs.Mark(err, errs.ErrValidation), "invalid request")
		return
	}
	u, err := h.store.CreateUser(req.Name, req.Email, req.Password, "user", false)
	if err != nil {
		abortWithMessage(c, err, "could not register")
		return
	}
	code, err := h.store.IssueOTP(u.Email, "register")
	if err != nil {
		abortWithMessage(c, err, "could not issue OTP")
		return
	}
	h.logger.Info("OTP issued", "email", u.Email, "code", code)
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"otpRequired": true, "email": u.Email}})
}

type otpRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

func (h *Handler) VerifyLoginOTP(c *gin.Context)    { h.verifyOTP(c, "login") }
func (h *Handler) VerifyRegisterOTP(c *gin.Context) { h.verifyOTP(c, "register") }

func (h *Handler) verifyOTP(c *gin.Context, purpose string) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, errs.Mark(err, errs.ErrValidation), "invalid request")
		return
	}
	u, err := h.store.VerifyOTP(req.Email, req.OTP, purpose)
	if err != nil {
		abortWithMessage(c, err, "OTP verification failed")
		return
	}
	h.issueToken(c, http.StatusOK, u)
}

type resendRequest struct {
	Email   string `json:"email" binding:"required"`
	Purpose string `json:"purpose"`
}

func (h *Handler) ResendOTP(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, errs.Mark(err, errs.ErrValidation), "invalid request")
		return
	}
	purpose := req.Purpose
	if purpose == "" {
		purpose = "login"
	}
	code, err := h.store.IssueOTP(req.Email, purpose)
	if err != nil {
		abortWithMessage(c, err, "could not resend OTP")
		return
	}
	h.logger.Info("OTP reissued", "email", req.Email, "code", code)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) GetUserProfile(c *gin.Context) {
	userID := c.Param("id")
	if authed, ok := AuthenticatedUserID(c); ok && userID != authed {
		abortWithMessage(c, errs.ErrUnauthorized, "cannot read another user's profile")
		return
	}
	u, err := h.store.GetUser(userID)
	if err != nil {
		abortWithMessage(c, err, "user not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": userToJSON(u)})
}

type otpPreferenceRequest struct {
	OTPEnabled *bool `json:"otpEnabled" binding:"required"`
}

func (h *Handler) UpdateOTPPreference(c *gin.Context) {
	userID := c.Param("id")
	if authed, ok := AuthenticatedUserID(c); ok && userID != authed {
		abortWithMessage(c, errs.ErrUnauthorized, "cannot update another user's preference")
		return
	}
	var req otpPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, errs.Mark(err, errs.ErrValidation), "invalid request")
		return
	}
	if err := h.store.SetOTPPreference(userID, *req.OTPEnabled); err != nil {
		abortWithMessage(c, err, "could not update preference")
		return
	}
	u, _ := h.store.GetUser(userID)
	c.JSON(http.StatusOK, gin.H{"data": userToJSON(u)})
}

func (h *Handler) issueToken(c *gin.Context, status int, u *User) {
	token, err := h.tokens.GenerateToken(u.ID, u.Role)
	if err != nil {
		abortWithMessage(c, err, "could not issue token")
		return
	}
	c.JSON(status, gin.H{
		"data": gin.H{
			"_id":        u.ID,
			"name":       u.Name,
			"email":      u.Email,
			"role":       u.Role,
			"otpEnabled": u.OTPEnabled,
			"token":      token,
		},
	})
}
