package auth

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	authservice "github.com/tipping-league/prediction-core/app/modules/auth/application"
	authjwt "github.com/tipping-league/prediction-core/app/modules/auth/infrastructure/jwt"
	authmiddleware "github.com/tipping-league/prediction-core/app/modules/auth/infrastructure/middleware"
	"github.com/tipping-league/prediction-core/config"
)

// Module represents the auth module: token issuance plus the HTTP identity
// and rate limit middleware.
type Module struct {
	service  authservice.Service
	provider authjwt.Provider
	limiter  *authmiddleware.IPRateLimiter
	logger   *slog.Logger
}

// NewModule creates a new auth module.
func NewModule(ctx context.Context, cfg *config.Config, logger *slog.Logger, tracer trace.Tracer) *Module {
	logger.InfoContext(ctx, "Initializing auth module",
		slog.Float64("rate_limit_rps", cfg.HTTP.RateLimitRPS),
		slog.Int("rate_limit_burst", cfg.HTTP.RateLimitBurst),
	)

	provider := authjwt.NewProvider(cfg.JWT.Secret)
	return &Module{
		service:  authservice.NewService(provider, nil, logger, tracer),
		provider: provider,
		limiter:  authmiddleware.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimitRPS), cfg.HTTP.RateLimitBurst),
		logger:   logger,
	}
}

// Authenticate resolves bearer tokens into request claims.
func (m *Module) Authenticate() func(http.Handler) http.Handler {
	return authmiddleware.Authenticate(m.provider)
}

// RateLimit throttles requests per client IP.
func (m *Module) RateLimit() func(http.Handler) http.Handler {
	return authmiddleware.RateLimit(m.limiter)
}

// GetService returns the auth service for use by other modules.
func (m *Module) GetService() authservice.Service {
	return m.service
}
