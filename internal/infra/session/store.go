// Package session persists the authenticated identity across runs. It is the
// only client state that survives a restart; an in-progress booking attempt
// deliberately does not.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"eventix-client/internal/pkg/config"
	"eventix-client/internal/pkg/errs"
	"eventix-client/internal/pkg/jwt"
)

type Session struct {
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	OTPEnabled bool      `json:"otpEnabled"`
	Token      string    `json:"token"`
	SavedAt    time.Time `json:"savedAt"`
}

// Store is a file-backed session holder with an explicit lifecycle: Load at
// startup, Save on login, Clear on logout. Components read the current
// session from here instead of ambient globals.
type Store struct {
	mu      sync.RWMutex
	path    string
	current *Session
}

func NewStore(cfg config.SessionConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, errs.Wrap(err, "resolve config dir")
		}
		path = filepath.Join(dir, "eventix", "session.json")
	}
	return &Store{path: path}, nil
}

// Load reads the persisted session into memory. A missing file is reported
// as ErrSessionNotFound, not a failure.
func (s *Store) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.ErrSessionNotFound
		}
		return nil, errs.Wrap(err, "read session file")
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// A corrupt file is equivalent to being logged out.
		return nil, errs.ErrSessionNotFound
	}
	s.current = &sess
	return &sess, nil
}

func (s *Store) Save(sess Session) error {
	sess.SavedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errs.Wrap(err, "create session dir")
	}
	raw, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return errs.Wrap(err, "encode session")
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return errs.Wrap(err, "write session file")
	}
	s.current = &sess
	return nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(err, "remove session file")
	}
	return nil
}

// Current returns the in-memory session, nil when logged out.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token is an api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Stale reports whether the stored token has an expiry in the past. Tokens
// without readable claims are kept; the server decides their fate.
func (s *Store) Stale(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || s.current.Token == "" {
		return false
	}
	claims, err := jwt.PeekClaims(s.current.Token)
	if err != nil {
		return false
	}
	return claims.ExpiresBefore(now)
}
