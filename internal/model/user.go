package model

import (
	"fmt"
	"time"
)

// User is a shop employee who can log in.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles, from least to most privileged. Sales staff sell and log maintenance,
// managers also receive stock and see financials, admins manage accounts.
const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// Roles lists every role in ascending privilege.
var Roles = []string{RoleUser, RoleManager, RoleAdmin}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

func roleLevel(role string) int {
	for i, r := range Roles {
		if r == role {
			return i + 1
		}
	}
	return 0
}

// RoleAtLeast reports whether role meets or exceeds minimum. Unknown roles
// never pass.
func RoleAtLeast(role, minimum string) bool {
	need := roleLevel(minimum)
	return need > 0 && roleLevel(role) >= need
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return roleLevel(role) > 0
}

// RoleLabel returns the display name of a role.
func RoleLabel(role string) string {
	switch role {
	case RoleAdmin:
		return "Administrator"
	case RoleManager:
		return "Manager"
	case RoleUser:
		return "Sales"
	default:
		return role
	}
}

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	return nil
}
