package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleCashier, CapSell, true},
		{RoleCashier, CapReturnItems, true},
		{RoleCashier, CapVoidSale, false},
		{RoleCashier, CapCancelPurchase, false},
		{RoleCashier, CapManageUsers, false},
		{RoleSupervisor, CapVoidSale, true},
		{RoleSupervisor, CapCancelPurchase, true},
		{RoleSupervisor, CapManageUsers, false},
		{RoleSupervisor, CapBackup, false},
		{RoleAdmin, CapVoidSale, true},
		{RoleAdmin, CapManageUsers, true},
		{RoleAdmin, CapBackup, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.cap), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Can(tt.cap))
		})
	}
}

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret", time.Hour))
	u := NewUser("maria", "Maria Silva", "x", RoleSupervisor)

	tokenString, expiresAt, err := svc.GenerateAccessToken(u)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, RoleSupervisor, claims.Role)
	assert.Equal(t, "Maria Silva", claims.Name)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a", time.Hour))
	verifier := NewJWTService(DefaultJWTConfig("secret-b", time.Hour))
	u := NewUser("maria", "Maria", "x", RoleCashier)

	tokenString, _, err := issuer.GenerateAccessToken(u)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestUserLockout(t *testing.T) {
	u := NewUser("joao", "João", "x", RoleCashier)

	for i := 0; i < 4; i++ {
		u.RecordFailedLogin(5, 15*time.Minute)
	}
	assert.False(t, u.IsLocked())
	require.NoError(t, u.CanLogin())

	u.RecordFailedLogin(5, 15*time.Minute)
	assert.True(t, u.IsLocked())
	assert.Error(t, u.CanLogin())

	u.RecordSuccessfulLogin()
	assert.False(t, u.IsLocked())
}
