package predictionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating audit_logs table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS audit_logs (
				id BIGSERIAL PRIMARY KEY,
				action VARCHAR(32) NOT NULL,
				user_id VARCHAR(64),
				league_id UUID NOT NULL,
				event_kind VARCHAR(16) NOT NULL,
				event_id UUID NOT NULL,
				metadata JSONB,
				duration_ms BIGINT NOT NULL DEFAULT 0,
				occurred_at TIMESTAMPTZ NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_audit_logs_event ON audit_logs (event_kind, event_id);
		`)
		if err != nil {
			return fmt.Errorf("failed to create audit_logs table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping audit_logs table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS audit_logs;`); err != nil {
			return fmt.Errorf("failed to drop audit_logs table: %w", err)
		}
		return nil
	})
}
