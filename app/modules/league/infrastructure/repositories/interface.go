package leaguedb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for league and membership lookups.
type Repository interface {
	// GetLeague retrieves a live league by id.
	GetLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (*League, error)

	// GetMember retrieves a user's live membership in a league.
	GetMember(ctx context.Context, db bun.IDB, leagueID uuid.UUID, userID string) (*LeagueMember, error)
}
