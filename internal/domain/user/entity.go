package user

import (
	"strings"

	"eventix-client/internal/pkg/errs"
)

var (
	ErrInvalidEmail = errs.New("invalid email")
	ErrInvalidRole  = errs.New("invalid role")
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superAdmin"
)

func NewRole(value string) (Role, error) {
	switch Role(value) {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return Role(value), nil
	case "":
		// Older accounts carry no role field; treat them as plain users.
		return RoleUser, nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) String() string {
	return string(r)
}

// CanManageEvents reports whether this role may create events.
func (r Role) CanManageEvents() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// NormalizeEmail applies the same normalization the login form does before a
// credential ever leaves the client.
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || !strings.Contains(normalized, "@") {
		return "", errs.Mark(ErrInvalidEmail, errs.ErrValidation)
	}
	return normalized, nil
}
