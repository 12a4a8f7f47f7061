package commands

import (
	"context"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"eventix-client/internal/domain/user"
	"eventix-client/internal/pkg/clock"
	"eventix-client/internal/pkg/errs"
)

const (
	OTPPurposeLogin    = "login"
	OTPPurposeRegister = "register"

	resendCooldown = 120 * time.Second
)

var otpPattern = regexp.MustCompile(`^\d{6}$`)

// SessionStore is the durable identity holder: saved on login, cleared on
// logout, read by everything that needs the current user.
type SessionStore interface {
	SaveLogin(user UserSnapshot, token string) error
	Clear() error
	CurrentUser() (*UserSnapshot, bool)
}

type AuthCommands struct {
	gateway AuthGateway
	store   SessionStore
	clock   clock.Clock
	logger  *slog.Logger

	mu      sync.Mutex
	pending *pendingOTP
}

// pendingOTP tracks the verification the server demanded, plus the resend
// cooldown window.
type pendingOTP struct {
	email    string
	purpose  string
	lastSent time.Time
}

func NewAuthCommands(gateway AuthGateway, store SessionStore, clk clock.Clock, logger *slog.Logger) *AuthCommands {
	return &AuthCommands{
		gateway: gateway,
		store:   store,
		clock:   clk,
		logger:  logger,
	}
}

// Login submits credentials. When the account has OTP verification enabled
// the server withholds the session until VerifyOTP succeeds; ErrOTPRequired
// signals that continuation.
func (a *AuthCommands) Login(ctx context.Context, email, password string) (*UserSnapshot, error) {
	normalized, err := user.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, errs.Mark(errs.New("password is required"), errs.ErrValidation)
	}

	result, err := a.gateway.Login(ctx, normalized, password)
	if err != nil {
		return nil, err
	}
	if result.OTPRequired {
		a.setPending(normalized, OTPPurposeLogin)
		return nil, errs.ErrOTPRequired
	}
	return a.persist(result)
}

// Register creates an account; the server always demands email verification
// before the first session.
func (a *AuthCommands) Register(ctx context.Context, req RegisterRequest) (*UserSnapshot, error) {
	normalized, err := user.NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if req.Name == "" || req.Password == "" {
		return nil, errs.Mark(errs.New("name and password are required"), errs.ErrValidation)
	}
	req.Email = normalized

	result, err := a.gateway.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if result.OTPRequired {
		a.setPending(normalized, OTPPurposeRegister)
		return nil, errs.ErrOTPRequired
	}
	return a.persist(result)
}

// VerifyOTP completes the pending login or registration.
func (a *AuthCommands) VerifyOTP(ctx context.Context, otp string) (*UserSnapshot, error) {
	if !otpPattern.MatchString(otp) {
		return nil, errs.Mark(errs.New("enter the complete 6-digit OTP"), errs.ErrValidation)
	}

	a.mu.Lock()
	pending := a.pending
	a.mu.Unlock()
	if pending == nil {
		return nil, errs.Mark(errs.New("no OTP verification pending"), errs.ErrValidation)
	}

	result, err := a.gateway.VerifyOTP(ctx, pending.email, otp, pending.purpose)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()
	return a.persist(result)
}

// ResendOTP re-issues the pending code, rate-limited client-side to match
// the server's cooldown.
func (a *AuthCommands) ResendOTP(ctx context.Context) error {
	a.mu.Lock()
	pending := a.pending
	a.mu.Unlock()
	if pending == nil {
		return errs.Mark(errs.New("no OTP verification pending"), errs.ErrValidation)
	}

	now := a.clock.Now()
	if now.Sub(pending.lastSent) < resendCooldown {
		return errs.ErrResendCooldown
	}

	if err := a.gateway.ResendOTP(ctx, pending.email, pending.purpose); err != nil {
		return err
	}

	a.mu.Lock()
	if a.pending != nil {
		a.pending.lastSent = now
	}
	a.mu.Unlock()
	return nil
}

func (a *AuthCommands) Logout() error {
	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()
	return a.store.Clear()
}

// RefreshUser re-reads the stored identity from the server at startup so a
// role change (say, a promotion to admin) takes effect. The cached session
// wins when the server is unreachable.
func (a *AuthCommands) RefreshUser(ctx context.Context, token string) (*UserSnapshot, error) {
	current, ok := a.store.CurrentUser()
	if !ok {
		return nil, errs.ErrSessionNotFound
	}

	fresh, err := a.gateway.GetUser(ctx, current.ID)
	if err != nil {
		a.logger.Warn("session refresh failed; keeping cached identity", "error", err)
		return current, nil
	}

	if fresh.Role != current.Role {
		a.logger.Info("user role updated", "from", current.Role, "to", fresh.Role)
	}
	if err := a.store.SaveLogin(*fresh, token); err != nil {
		return nil, err
	}
	return fresh, nil
}

// SetOTPPreference toggles login OTP for the current user.
func (a *AuthCommands) SetOTPPreference(ctx context.Context, enabled bool) error {
	current, ok := a.store.CurrentUser()
	if !ok {
		return errs.ErrSessionNotFound
	}
	return a.gateway.UpdateOTPPreference(ctx, current.ID, enabled)
}

func (a *AuthCommands) persist(result *LoginResult) (*UserSnapshot, error) {
	if result.User == nil {
		return nil, errs.Mark(errs.New("login result missing user"), errs.ErrMalformedResponse)
	}
	if err := a.store.SaveLogin(*result.User, result.Token); err != nil {
		return nil, err
	}
	return result.User, nil
}

func (a *AuthCommands) setPending(email, purpose string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = &pendingOTP{
		email:    email,
		purpose:  purpose,
		lastSent: a.clock.Now(),
	}
}
