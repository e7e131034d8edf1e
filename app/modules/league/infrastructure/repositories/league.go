package leaguedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a league or membership is not found.
var ErrNotFound = errors.New("league record not found")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new league repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// GetLeague retrieves a live league by id.
func (r *Impl) GetLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (*League, error) {
	db = r.resolveDB(db)
	league := new(League)
	err := db.NewSelect().
		Model(league).
		Where("?TableAlias.id = ?", leagueID).
		Where("?TableAlias.deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	return league, nil
}

// GetMember retrieves a user's live membership in a league.
func (r *Impl) GetMember(ctx context.Context, db bun.IDB, leagueID uuid.UUID, userID string) (*LeagueMember, error) {
	db = r.resolveDB(db)
	member := new(LeagueMember)
	err := db.NewSelect().
		Model(member).
		Where("?TableAlias.league_id = ?", leagueID).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get league member: %w", err)
	}
	return member, nil
}
