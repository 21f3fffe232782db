package domain

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User models an account held in the credential store.
//
// OAuth-created accounts carry HasLocalCredential=false and cannot log in
// with a password until one is set through the reset flow.
type User struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	FirstName          string    `json:"firstName"`
	LastName           string    `json:"lastName"`
	PasswordHash       string    `json:"-"`
	Role               string    `json:"role"`
	IsEmailVerified    bool      `json:"isEmailVerified"`
	HasLocalCredential bool      `json:"-"`
	OAuthProvider      string    `json:"-"`
	OAuthSubject       string    `json:"-"`
	Avatar             string    `json:"avatar,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ValidRole reports whether role is one of the recognised roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// NormalizeEmail lower-cases and trims an address so lookups and the
// uniqueness index are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
