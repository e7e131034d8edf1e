package leagueservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leaguedb "github.com/tipping-league/prediction-core/app/modules/league/infrastructure/repositories"
	"github.com/tipping-league/prediction-core/app/shared/apperr"
	"github.com/tipping-league/prediction-core/app/shared/observability"
)

// Member is the caller's resolved membership in a league.
type Member struct {
	ID          uuid.UUID
	LeagueID    uuid.UUID
	UserID      string
	DisplayName string
	IsAdmin     bool
}

// Gate resolves league membership for the prediction services.
type Gate struct {
	repo   leaguedb.Repository
	logger *slog.Logger
	db     bun.IDB
}

// NewGate creates a membership gate over repo.
func NewGate(repo leaguedb.Repository, logger *slog.Logger, db bun.IDB) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{repo: repo, logger: logger, db: db}
}

// RequireLeagueMember returns the caller's active membership in an active
// league. A missing or inactive league or membership is FORBIDDEN; storage
// failures are returned wrapped.
func (g *Gate) RequireLeagueMember(ctx context.Context, leagueID uuid.UUID, userID string) (*Member, error) {
	league, err := g.repo.GetLeague(ctx, g.db, leagueID)
	if err != nil {
		if errors.Is(err, leaguedb.ErrNotFound) {
			return nil, apperr.Forbidden("You are not a member of this league")
		}
		return nil, fmt.Errorf("failed to load league: %w", err)
	}
	if !league.IsActive {
		g.logger.WarnContext(ctx, "Membership check against inactive league",
			observability.CorrelationID(ctx),
			slog.String("league_id", leagueID.String()),
			slog.String("user_id", userID),
		)
		return nil, apperr.Forbidden("League is not active")
	}

	member, err := g.repo.GetMember(ctx, g.db, leagueID, userID)
	if err != nil {
		if errors.Is(err, leaguedb.ErrNotFound) {
			return nil, apperr.Forbidden("You are not a member of this league")
		}
		return nil, fmt.Errorf("failed to load league member: %w", err)
	}
	if !member.IsActive {
		return nil, apperr.Forbidden("Your league membership is not active")
	}

	return &Member{
		ID:          member.ID,
		LeagueID:    member.LeagueID,
		UserID:      member.UserID,
		DisplayName: member.DisplayName,
		IsAdmin:     member.IsAdmin,
	}, nil
}
