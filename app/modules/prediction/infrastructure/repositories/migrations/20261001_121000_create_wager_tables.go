package predictionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating wager tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			// At most one live wager per member and event; soft-deleted rows are ignored.
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS match_bets (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					league_member_id UUID NOT NULL REFERENCES league_members(id),
					match_id UUID NOT NULL REFERENCES matches(id),
					home_score INTEGER NOT NULL CHECK (home_score >= 0),
					away_score INTEGER NOT NULL CHECK (away_score >= 0),
					scorer_id UUID REFERENCES players(id),
					overtime BOOLEAN NOT NULL DEFAULT FALSE,
					total_points INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMPTZ
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_match_bets_member_match_live
					ON match_bets (league_member_id, match_id) WHERE deleted_at IS NULL;
				CREATE INDEX IF NOT EXISTS idx_match_bets_match_id ON match_bets (match_id);
			`); err != nil {
				return fmt.Errorf("failed to create match_bets table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS series_bets (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					league_member_id UUID NOT NULL REFERENCES league_members(id),
					series_id UUID NOT NULL REFERENCES series(id),
					home_team_score INTEGER NOT NULL CHECK (home_team_score >= 0),
					away_team_score INTEGER NOT NULL CHECK (away_team_score >= 0),
					total_points INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMPTZ
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_series_bets_member_series_live
					ON series_bets (league_member_id, series_id) WHERE deleted_at IS NULL;
				CREATE INDEX IF NOT EXISTS idx_series_bets_series_id ON series_bets (series_id);
			`); err != nil {
				return fmt.Errorf("failed to create series_bets table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS special_bet_bets (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					league_member_id UUID NOT NULL REFERENCES league_members(id),
					special_bet_id UUID NOT NULL REFERENCES special_bets(id),
					team_id UUID REFERENCES league_teams(id),
					player_id UUID REFERENCES players(id),
					value NUMERIC,
					total_points INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMPTZ,
					CONSTRAINT special_bet_bets_single_pick CHECK (num_nonnulls(team_id, player_id, value) = 1)
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_special_bet_bets_member_bet_live
					ON special_bet_bets (league_member_id, special_bet_id) WHERE deleted_at IS NULL;
				CREATE INDEX IF NOT EXISTS idx_special_bet_bets_special_bet_id ON special_bet_bets (special_bet_id);
			`); err != nil {
				return fmt.Errorf("failed to create special_bet_bets table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS question_bets (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					league_member_id UUID NOT NULL REFERENCES league_members(id),
					question_id UUID NOT NULL REFERENCES questions(id),
					prediction BOOLEAN,
					total_points INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMPTZ
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_question_bets_member_question_live
					ON question_bets (league_member_id, question_id) WHERE deleted_at IS NULL;
				CREATE INDEX IF NOT EXISTS idx_question_bets_question_id ON question_bets (question_id);
			`); err != nil {
				return fmt.Errorf("failed to create question_bets table: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping wager tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS question_bets;
				DROP TABLE IF EXISTS special_bet_bets;
				DROP TABLE IF EXISTS series_bets;
				DROP TABLE IF EXISTS match_bets;
			`); err != nil {
				return fmt.Errorf("failed to drop wager tables: %w", err)
			}
			return nil
		})
	})
}
