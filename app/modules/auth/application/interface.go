package authservice

import (
	"context"
	"time"

	authdomain "github.com/tipping-league/prediction-core/app/modules/auth/domain"
)

// Service defines the authentication service interface.
type Service interface {
	// IssueToken mints a bearer token for a league member or admin.
	IssueToken(ctx context.Context, req IssueTokenRequest) (*TokenResponse, error)

	// ValidateToken validates a JWT token and returns the claims if valid.
	ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error)
}

// IssueTokenRequest describes the identity to encode. A zero TTL uses
// DefaultTokenTTL.
type IssueTokenRequest struct {
	UserID      string
	DisplayName string
	Role        authdomain.Role
	TTL         time.Duration
}

// TokenResponse represents the response for token issuance.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
