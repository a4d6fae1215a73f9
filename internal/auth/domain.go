package auth

import (
	"strings"
	"time"
)

// Customer is a storefront account able to sign in.
type Customer struct {
	ID           int64
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanSignIn reports whether the account may start a session at all.
func (c *Customer) CanSignIn() bool {
	return c != nil && c.Active && c.PasswordHash != ""
}

// NormalizeEmail is the lookup form of an address; customers.email is
// unique on lower(email).
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
