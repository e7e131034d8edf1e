package leaguemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating leagues and league_members tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS leagues (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					name VARCHAR(100) NOT NULL,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					is_public BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMPTZ
				);
			`); err != nil {
				return fmt.Errorf("failed to create leagues table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS league_members (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					league_id UUID NOT NULL REFERENCES leagues(id),
					user_id VARCHAR(64) NOT NULL,
					display_name VARCHAR(100) NOT NULL DEFAULT '',
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					is_admin BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMPTZ
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_league_members_league_user_live
					ON league_members (league_id, user_id) WHERE deleted_at IS NULL;
				CREATE INDEX IF NOT EXISTS idx_league_members_user_id ON league_members (user_id);
			`); err != nil {
				return fmt.Errorf("failed to create league_members table: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping league tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS league_members; DROP TABLE IF EXISTS leagues;`); err != nil {
				return fmt.Errorf("failed to drop league tables: %w", err)
			}
			return nil
		})
	})
}
