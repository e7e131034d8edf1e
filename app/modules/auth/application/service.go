package authservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"

	authdomain "github.com/tipping-league/prediction-core/app/modules/auth/domain"
	authjwt "github.com/tipping-league/prediction-core/app/modules/auth/infrastructure/jwt"
	"github.com/tipping-league/prediction-core/app/shared/observability"
)

const DefaultTokenTTL = 24 * time.Hour

// service implements the Service interface.
type service struct {
	jwtProvider authjwt.Provider
	clock       clockwork.Clock
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewService creates a new auth service.
func NewService(jwtProvider authjwt.Provider, clock clockwork.Clock, logger *slog.Logger, tracer trace.Tracer) Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &service{
		jwtProvider: jwtProvider,
		clock:       clock,
		logger:      logger,
		tracer:      tracer,
	}
}

// IssueToken signs a token for req.
func (s *service) IssueToken(ctx context.Context, req IssueTokenRequest) (*TokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.IssueToken")
	defer span.End()

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, ErrMissingUser
	}
	if !req.Role.IsValid() {
		s.logger.WarnContext(ctx, "Invalid role specified",
			slog.String("role", req.Role.String()),
		)
		return nil, ErrInvalidRole
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	token, err := s.jwtProvider.GenerateToken(&authdomain.Claims{
		UserID:      userID,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	}, ttl)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to generate token",
			observability.Err(err),
			slog.String("user_id", userID),
		)
		return nil, fmt.Errorf("%w: %w", ErrGenerateToken, err)
	}

	s.logger.InfoContext(ctx, "Token issued",
		slog.String("user_id", userID),
		slog.String("role", req.Role.String()),
		slog.Duration("ttl", ttl),
	)

	return &TokenResponse{Token: token, ExpiresAt: s.clock.Now().Add(ttl)}, nil
}

// ValidateToken validates a JWT token and returns the claims if valid.
func (s *service) ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.ValidateToken")
	defer span.End()

	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims, err := s.jwtProvider.ValidateToken(tokenString)
	if err != nil {
		s.logger.WarnContext(ctx, "Token validation failed",
			observability.Err(err),
		)
		if errors.Is(err, authjwt.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	s.logger.DebugContext(ctx, "Token validated successfully",
		slog.String("user_id", claims.UserID),
	)

	return claims, nil
}
