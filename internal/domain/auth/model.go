// Package auth provides authentication and the role-capability table.
package auth

import (
	"context"
	"time"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
)

// Role is the operator's role at the store. Roles are a fixed set with a
// fixed capability matrix, not a dynamic policy engine: the till either lets
// an operator void a sale or it does not.
type Role string

const (
	RoleCashier    Role = "CASHIER"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
)

// Capability is one guarded operation.
type Capability string

const (
	CapSell           Capability = "sell"
	CapVoidSale       Capability = "void_sale"
	CapReturnItems    Capability = "return_items"
	CapManageCatalog  Capability = "manage_catalog"
	CapEnterPurchase  Capability = "enter_purchase"
	CapCancelPurchase Capability = "cancel_purchase"
	CapAdjustStock    Capability = "adjust_stock"
	CapManageFinance  Capability = "manage_finance"
	CapManageUsers    Capability = "manage_users"
	CapBackup         Capability = "backup"
)

var capabilities = map[Role]map[Capability]bool{
	RoleCashier: {
		CapSell:        true,
		CapReturnItems: true,
	},
	RoleSupervisor: {
		CapSell:           true,
		CapVoidSale:       true,
		CapReturnItems:    true,
		CapManageCatalog:  true,
		CapEnterPurchase:  true,
		CapCancelPurchase: true,
		CapAdjustStock:    true,
		CapManageFinance:  true,
	},
}

// Can reports whether a role holds a capability. Admin holds all of them.
func (r Role) Can(c Capability) bool {
	if r == RoleAdmin {
		return true
	}
	return capabilities[r][c]
}

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleCashier, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// User is a till operator.
type User struct {
	ID           id.ID  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	Name         string `db:"name" json:"name"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         Role   `db:"role" json:"role"`
	IsActive     bool   `db:"is_active" json:"isActive"`

	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	Version   int       `db:"version" json:"version"`
}

// NewUser creates a new active user.
func NewUser(username, name, passwordHash string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		Username:     username,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

// Validate validates user data.
func (u *User) Validate(ctx context.Context) error {
	if u.Username == "" {
		return apperror.NewValidation("username is required").WithDetail("field", "username")
	}
	if !u.Role.IsValid() {
		return apperror.NewValidation("invalid role").
			WithDetail("field", "role").
			WithDetail("value", string(u.Role))
	}
	return nil
}

// IsLocked returns true if the account is locked.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// CanLogin checks if the user can login.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked() {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments the failed login counter.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets the failed login counter.
func (u *User) RecordSuccessfulLogin() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now().UTC()
	u.LastLoginAt = &now
}

// Credentials for login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}
