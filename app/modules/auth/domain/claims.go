package authdomain

import (
	"time"
)

// Claims is the identity resolved from a bearer token.
type Claims struct {
	UserID      string
	DisplayName string
	Role        Role
	ExpiresAt   time.Time
	IssuedAt    time.Time
}

// IsExpired checks if the claims have expired.
func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// IsAdmin reports whether the token grants admin actions.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
