//go:build unit

package user_test

import (
	"testing"

	"eventix-client/internal/domain/user"
	"eventix-client/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRole(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  user.Role
		errIs error
	}{
		{name: "user", value: "user", want: user.RoleUser},
		{name: "admin", value: "admin", want: user.RoleAdmin},
		{name: "superAdmin", value: "superAdmin", want: user.RoleSuperAdmin},
		{name: "legacy empty role defaults to user", value: "", want: user.RoleUser},
		{name: "unknown role", value: "root", errIs: user.ErrInvalidRole},
		{name: "wrong case", value: "Admin", errIs: user.ErrInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := user.NewRole(tc.value)
			if tc.errIs != nil {
				require.ErrorIs(t, err, tc.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCanManageEvents(t *testing.T) {
	assert.False(t, user.RoleUser.CanManageEvents())
	assert.True(t, user.RoleAdmin.CanManageEvents())
	assert.True(t, user.RoleSuperAdmin.CanManageEvents())
}

func TestNormalizeEmail(t *testing.T) {
	got, err := user.NormalizeEmail("  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got)

	for _, bad := range []string{"", "   ", "no-at-sign"} {
		_, err := user.NormalizeEmail(bad)
		require.ErrorIs(t, err, errs.ErrValidation, "email %q", bad)
	}
}
