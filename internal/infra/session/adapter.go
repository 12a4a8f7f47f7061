package session

import (
	"eventix-client/internal/usecase/commands"
)

// The Store doubles as the commands.SessionStore port.
var _ commands.SessionStore = (*Store)(nil)

func (s *Store) SaveLogin(user commands.UserSnapshot, token string) error {
	return s.Save(Session{
		UserID:     user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		OTPEnabled: user.OTPEnabled,
		Token:      token,
	})
}

func (s *Store) CurrentUser() (*commands.UserSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	return &commands.UserSnapshot{
		ID:         s.current.UserID,
		Name:       s.current.Name,
		Email:      s.current.Email,
		Role:       s.current.Role,
		OTPEnabled: s.current.OTPEnabled,
	}, true
}

// UserID is a commands.IdentitySource for the booking flow.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.UserID
}
