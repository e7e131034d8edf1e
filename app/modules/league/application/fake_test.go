package leagueservice

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leaguedb "github.com/tipping-league/prediction-core/app/modules/league/infrastructure/repositories"
)

type FakeLeagueRepo struct {
	trace []string

	GetLeagueFunc func(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (*leaguedb.League, error)
	GetMemberFunc func(ctx context.Context, db bun.IDB, leagueID uuid.UUID, userID string) (*leaguedb.LeagueMember, error)
}

func NewFakeLeagueRepo() *FakeLeagueRepo {
	return &FakeLeagueRepo{trace: []string{}}
}

func (f *FakeLeagueRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeLeagueRepo) GetLeague(ctx context.Context, db bun.IDB, leagueID uuid.UUID) (*leaguedb.League, error) {
	f.record("GetLeague")
	if f.GetLeagueFunc != nil {
		return f.GetLeagueFunc(ctx, db, leagueID)
	}
	return nil, leaguedb.ErrNotFound
}

func (f *FakeLeagueRepo) GetMember(ctx context.Context, db bun.IDB, leagueID uuid.UUID, userID string) (*leaguedb.LeagueMember, error) {
	f.record("GetMember")
	if f.GetMemberFunc != nil {
		return f.GetMemberFunc(ctx, db, leagueID, userID)
	}
	return nil, leaguedb.ErrNotFound
}

func (f *FakeLeagueRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ leaguedb.Repository = (*FakeLeagueRepo)(nil)
