package predictionservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leagueservice "github.com/tipping-league/prediction-core/app/modules/league/application"
	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
	predictiondb "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/repositories"
	"github.com/tipping-league/prediction-core/app/shared/apperr"
)

// eventLookup implements FindLeagueID for every kind through the event header.
type eventLookup struct {
	repo predictiondb.Repository
	kind predictiondomain.EventKind
}

func (l eventLookup) findLeagueID(ctx context.Context, db bun.IDB, eventID uuid.UUID) (uuid.UUID, error) {
	header, err := l.repo.GetEventHeader(ctx, db, l.kind, eventID)
	if err != nil {
		return uuid.Nil, err
	}
	return header.LeagueID, nil
}

// openEvent checks that an event re-read inside the transaction still belongs
// to the member's league and is open for betting.
func openEvent(kind predictiondomain.EventKind, err error, leagueID, memberLeague uuid.UUID, dateTime, now time.Time) error {
	if err != nil {
		if errors.Is(err, predictiondb.ErrNotFound) {
			return notFound(kind)
		}
		return fmt.Errorf("failed to reload %s: %w", kind, err)
	}
	if leagueID != memberLeague {
		return notFound(kind)
	}
	if !predictiondomain.IsOpenAt(dateTime, now) {
		return apperr.BettingClosed(kind.Noun())
	}
	return nil
}

// upsertLive updates the member's live wager through apply, or inserts the
// wager built by create.
func upsertLive[W any](
	ctx context.Context,
	db bun.IDB,
	store predictiondb.WagerStore[W],
	memberID, eventID uuid.UUID,
	apply func(*W),
	create func() *W,
) (bool, error) {
	existing, err := store.GetLive(ctx, db, memberID, eventID)
	switch {
	case err == nil:
		apply(existing)
		if err := store.UpdatePrediction(ctx, db, existing); err != nil {
			return false, err
		}
		return true, nil
	case errors.Is(err, predictiondb.ErrNotFound):
		if err := store.Insert(ctx, db, create()); err != nil {
			return false, err
		}
		return false, nil
	default:
		return false, err
	}
}

type matchAdapter struct {
	repo   predictiondb.Repository
	wagers predictiondb.WagerStore[predictiondb.MatchBet]
}

func (matchAdapter) Kind() predictiondomain.EventKind { return predictiondomain.KindMatch }

func (matchAdapter) Validate(p MatchBetPayload) error { return validate.Struct(p) }

func (matchAdapter) EventID(p MatchBetPayload) uuid.UUID { return p.MatchID }

func (a matchAdapter) FindLeagueID(ctx context.Context, db bun.IDB, p MatchBetPayload) (uuid.UUID, error) {
	return eventLookup{repo: a.repo, kind: predictiondomain.KindMatch}.findLeagueID(ctx, db, p.MatchID)
}

func (a matchAdapter) Upsert(ctx context.Context, db bun.IDB, member *leagueservice.Member, p MatchBetPayload, now time.Time) (bool, error) {
	match, err := a.repo.GetMatch(ctx, db, p.MatchID)
	var leagueID uuid.UUID
	var dateTime time.Time
	if match != nil {
		leagueID, dateTime = match.LeagueID, match.DateTime
	}
	if refusal := openEvent(predictiondomain.KindMatch, err, leagueID, member.LeagueID, dateTime, now); refusal != nil {
		return false, refusal
	}

	return upsertLive(ctx, db, a.wagers, member.ID, p.MatchID,
		func(w *predictiondb.MatchBet) {
			w.HomeScore = *p.HomeScore
			w.AwayScore = *p.AwayScore
			w.ScorerID = p.ScorerID
			w.Overtime = p.Overtime
			w.UpdatedAt = now
		},
		func() *predictiondb.MatchBet {
			return &predictiondb.MatchBet{
				ID:             uuid.New(),
				LeagueMemberID: member.ID,
				MatchID:        p.MatchID,
				HomeScore:      *p.HomeScore,
				AwayScore:      *p.AwayScore,
				ScorerID:       p.ScorerID,
				Overtime:       p.Overtime,
				TotalPoints:    0,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
		})
}

func (matchAdapter) AuditMetadata(p MatchBetPayload) map[string]any {
	meta := map[string]any{
		"homeScore": *p.HomeScore,
		"awayScore": *p.AwayScore,
		"overtime":  p.Overtime,
	}
	if p.ScorerID != nil {
		meta["scorerId"] = p.ScorerID.String()
	}
	return meta
}

type seriesAdapter struct {
	repo   predictiondb.Repository
	wagers predictiondb.WagerStore[predictiondb.SeriesBet]
}

func (seriesAdapter) Kind() predictiondomain.EventKind { return predictiondomain.KindSeries }

func (seriesAdapter) Validate(p SeriesBetPayload) error { return validate.Struct(p) }

func (seriesAdapter) EventID(p SeriesBetPayload) uuid.UUID { return p.SeriesID }

func (a seriesAdapter) FindLeagueID(ctx context.Context, db bun.IDB, p SeriesBetPayload) (uuid.UUID, error) {
	return eventLookup{repo: a.repo, kind: predictiondomain.KindSeries}.findLeagueID(ctx, db, p.SeriesID)
}

func (a seriesAdapter) Upsert(ctx context.Context, db bun.IDB, member *leagueservice.Member, p SeriesBetPayload, now time.Time) (bool, error) {
	series, err := a.repo.GetSeries(ctx, db, p.SeriesID)
	var leagueID uuid.UUID
	var dateTime time.Time
	if series != nil {
		leagueID, dateTime = series.LeagueID, series.DateTime
	}
	if refusal := openEvent(predictiondomain.KindSeries, err, leagueID, member.LeagueID, dateTime, now); refusal != nil {
		return false, refusal
	}
	if series.BestOf != p.BestOf {
		return false, apperr.BadRequest(fmt.Sprintf("Series is best of %d", series.BestOf))
	}

	return upsertLive(ctx, db, a.wagers, member.ID, p.SeriesID,
		func(w *predictiondb.SeriesBet) {
			w.HomeTeamScore = *p.HomeTeamScore
			w.AwayTeamScore = *p.AwayTeamScore
			w.UpdatedAt = now
		},
		func() *predictiondb.SeriesBet {
			return &predictiondb.SeriesBet{
				ID:             uuid.New(),
				LeagueMemberID: member.ID,
				SeriesID:       p.SeriesID,
				HomeTeamScore:  *p.HomeTeamScore,
				AwayTeamScore:  *p.AwayTeamScore,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
		})
}

func (seriesAdapter) AuditMetadata(p SeriesBetPayload) map[string]any {
	return map[string]any{
		"homeTeamScore": *p.HomeTeamScore,
		"awayTeamScore": *p.AwayTeamScore,
		"bestOf":        p.BestOf,
	}
}

type specialAdapter struct {
	repo   predictiondb.Repository
	wagers predictiondb.WagerStore[predictiondb.SpecialBetBet]
}

func (specialAdapter) Kind() predictiondomain.EventKind { return predictiondomain.KindSpecial }

func (specialAdapter) Validate(p SpecialBetPayload) error { return validate.Struct(p) }

func (specialAdapter) EventID(p SpecialBetPayload) uuid.UUID { return p.SpecialBetID }

func (a specialAdapter) FindLeagueID(ctx context.Context, db bun.IDB, p SpecialBetPayload) (uuid.UUID, error) {
	return eventLookup{repo: a.repo, kind: predictiondomain.KindSpecial}.findLeagueID(ctx, db, p.SpecialBetID)
}

func (a specialAdapter) Upsert(ctx context.Context, db bun.IDB, member *leagueservice.Member, p SpecialBetPayload, now time.Time) (bool, error) {
	sb, err := a.repo.GetSpecialBet(ctx, db, p.SpecialBetID)
	var leagueID uuid.UUID
	var dateTime time.Time
	if sb != nil {
		leagueID, dateTime = sb.LeagueID, sb.DateTime
	}
	if refusal := openEvent(predictiondomain.KindSpecial, err, leagueID, member.LeagueID, dateTime, now); refusal != nil {
		return false, refusal
	}

	return upsertLive(ctx, db, a.wagers, member.ID, p.SpecialBetID,
		func(w *predictiondb.SpecialBetBet) {
			w.TeamID = p.TeamID
			w.PlayerID = p.PlayerID
			w.Value = p.Value
			w.UpdatedAt = now
		},
		func() *predictiondb.SpecialBetBet {
			return &predictiondb.SpecialBetBet{
				ID:             uuid.New(),
				LeagueMemberID: member.ID,
				SpecialBetID:   p.SpecialBetID,
				TeamID:         p.TeamID,
				PlayerID:       p.PlayerID,
				Value:          p.Value,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
		})
}

func (specialAdapter) AuditMetadata(p SpecialBetPayload) map[string]any {
	meta := map[string]any{}
	switch {
	case p.TeamID != nil:
		meta["teamId"] = p.TeamID.String()
	case p.PlayerID != nil:
		meta["playerId"] = p.PlayerID.String()
	case p.Value != nil:
		meta["value"] = p.Value.String()
	}
	return meta
}

type questionAdapter struct {
	repo   predictiondb.Repository
	wagers predictiondb.WagerStore[predictiondb.QuestionBet]
}

func (questionAdapter) Kind() predictiondomain.EventKind { return predictiondomain.KindQuestion }

func (questionAdapter) Validate(p QuestionBetPayload) error { return validate.Struct(p) }

func (questionAdapter) EventID(p QuestionBetPayload) uuid.UUID { return p.QuestionID }

func (a questionAdapter) FindLeagueID(ctx context.Context, db bun.IDB, p QuestionBetPayload) (uuid.UUID, error) {
	return eventLookup{repo: a.repo, kind: predictiondomain.KindQuestion}.findLeagueID(ctx, db, p.QuestionID)
}

func (a questionAdapter) Upsert(ctx context.Context, db bun.IDB, member *leagueservice.Member, p QuestionBetPayload, now time.Time) (bool, error) {
	q, err := a.repo.GetQuestion(ctx, db, p.QuestionID)
	var leagueID uuid.UUID
	var dateTime time.Time
	if q != nil {
		leagueID, dateTime = q.LeagueID, q.DateTime
	}
	if refusal := openEvent(predictiondomain.KindQuestion, err, leagueID, member.LeagueID, dateTime, now); refusal != nil {
		return false, refusal
	}

	return upsertLive(ctx, db, a.wagers, member.ID, p.QuestionID,
		func(w *predictiondb.QuestionBet) {
			w.Prediction = p.Prediction
			w.UpdatedAt = now
		},
		func() *predictiondb.QuestionBet {
			return &predictiondb.QuestionBet{
				ID:             uuid.New(),
				LeagueMemberID: member.ID,
				QuestionID:     p.QuestionID,
				Prediction:     p.Prediction,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
		})
}

func (questionAdapter) AuditMetadata(p QuestionBetPayload) map[string]any {
	return map[string]any{"prediction": *p.Prediction}
}

var (
	_ WagerEventAdapter[MatchBetPayload]    = matchAdapter{}
	_ WagerEventAdapter[SeriesBetPayload]   = seriesAdapter{}
	_ WagerEventAdapter[SpecialBetPayload]  = specialAdapter{}
	_ WagerEventAdapter[QuestionBetPayload] = questionAdapter{}
)
