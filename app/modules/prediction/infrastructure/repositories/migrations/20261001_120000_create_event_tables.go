package predictionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating event and evaluator tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			statements := []struct {
				name string
				sql  string
			}{
				{"league_teams", `
					CREATE TABLE IF NOT EXISTS league_teams (
						id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
						league_id UUID NOT NULL REFERENCES leagues(id),
						name VARCHAR(100) NOT NULL,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						deleted_at TIMESTAMPTZ
					);`},
				{"players", `
					CREATE TABLE IF NOT EXISTS players (
						id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
						team_id UUID REFERENCES league_teams(id),
						name VARCHAR(100) NOT NULL,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						deleted_at TIMESTAMPTZ
					);`},
				{"evaluators", `
					CREATE TABLE IF NOT EXISTS evaluators (
						id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
						league_id UUID NOT NULL REFERENCES leagues(id),
						name VARCHAR(100) NOT NULL,
						kind VARCHAR(16) NOT NULL CHECK (kind IN ('match', 'series', 'special', 'question')),
						type VARCHAR(32) NOT NULL,
						points INTEGER NOT NULL,
						config JSONB,
						is_active BOOLEAN NOT NULL DEFAULT TRUE,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						deleted_at TIMESTAMPTZ
					);
					CREATE INDEX IF NOT EXISTS idx_evaluators_league_kind ON evaluators (league_id, kind) WHERE deleted_at IS NULL;`},
				{"matches", `
					CREATE TABLE IF NOT EXISTS matches (
						id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
						league_id UUID NOT NULL REFERENCES leagues(id),
						home_team_id UUID NOT NULL REFERENCES league_teams(id),
						away_team_id UUID NOT NULL REFERENCES league_teams(id),
						date_time TIMESTAMPTZ NOT NULL,
						is_playoff BOOLEAN NOT NULL DEFAULT FALSE,
						is_evaluated BOOLEAN NOT NULL DEFAULT FALSE,
						home_regular_score INTEGER,
						away_regular_score INTEGER,
						home_final_score INTEGER,
						away_final_score INTEGER,
						is_overtime BOOLEAN NOT NULL DEFAULT FALSE,
						is_shootout BOOLEAN NOT NULL DEFAULT FALSE,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						deleted_at TIMESTAMPTZ
					);
					CREATE INDEX IF NOT EXISTS idx_matches_league_unevaluated ON matches (league_id, date_time) WHERE is_evaluated = FALSE AND deleted_at IS NULL;`},
				{"match_scorers", `
					CREATE TABLE IF NOT EXISTS match_scorers (
						match_id UUID NOT NULL REFERENCES matches(id),
						player_id UUID NOT NULL REFERENCES players(id),
						number_of_goals INTEGER NOT NULL DEFAULT 1 CHECK (number_of_goals >= 0),
						PRIMARY KEY (match_id, player_id)
					);`},
				{"series", `
					CREATE TABLE IF NOT EXISTS series (
						id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
						league_id UUID NOT NULL REFERENCES leagues(id),
						home_team_id UUID NOT NULL REFERENCES league_teams(id),
						away_team_id UUID NOT NULL REFERENCES league_teams(id),
						best_of INTEGER NOT NULL CHECK (best_of > 0),
						date_time TIMESTAMPTZ NOT NULL,
						is_evaluated BOOLEAN NOT NULL DEFAULT FALSE,
						home_team_score INTEGER,
						away_team_score INTEGER,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						deleted_at TIMESTAMPTZ
					);`},
				{"special_bets", `
					CREATE TABLE IF NOT EXISTS special_bets (
						id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
						league_id UUID NOT NULL REFERENCES leagues(id),
						name VARCHAR(200) NOT NULL,
						evaluator_id UUID NOT NULL REFERENCES evaluators(id),
						date_time TIMESTAMPTZ NOT NULL,
						is_evaluated BOOLEAN NOT NULL DEFAULT FALSE,
						result_team_id UUID REFERENCES league_teams(id),
						result_player_id UUID REFERENCES players(id),
						result_value NUMERIC,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						deleted_at TIMESTAMPTZ,
						CONSTRAINT special_bets_single_result CHECK (num_nonnulls(result_team_id, result_player_id, result_value) <= 1)
					);`},
				{"special_bet_advancing_teams", `
					CREATE TABLE IF NOT EXISTS special_bet_advancing_teams (
						special_bet_id UUID NOT NULL REFERENCES special_bets(id),
						team_id UUID NOT NULL REFERENCES league_teams(id),
						PRIMARY KEY (special_bet_id, team_id)
					);`},
				{"questions", `
					CREATE TABLE IF NOT EXISTS questions (
						id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
						league_id UUID NOT NULL REFERENCES leagues(id),
						text TEXT NOT NULL,
						date_time TIMESTAMPTZ NOT NULL,
						is_evaluated BOOLEAN NOT NULL DEFAULT FALSE,
						result BOOLEAN,
						created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
						deleted_at TIMESTAMPTZ
					);`},
			}

			for _, stmt := range statements {
				if _, err := tx.ExecContext(ctx, stmt.sql); err != nil {
					return fmt.Errorf("failed to create %s table: %w", stmt.name, err)
				}
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping event and evaluator tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS questions;
				DROP TABLE IF EXISTS special_bet_advancing_teams;
				DROP TABLE IF EXISTS special_bets;
				DROP TABLE IF EXISTS series;
				DROP TABLE IF EXISTS match_scorers;
				DROP TABLE IF EXISTS matches;
				DROP TABLE IF EXISTS evaluators;
				DROP TABLE IF EXISTS players;
				DROP TABLE IF EXISTS league_teams;
			`); err != nil {
				return fmt.Errorf("failed to drop event tables: %w", err)
			}
			return nil
		})
	})
}
