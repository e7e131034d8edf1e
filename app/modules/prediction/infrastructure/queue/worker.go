package predictionqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/uptrace/bun"

	predictiondb "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/repositories"
	"github.com/tipping-league/prediction-core/app/shared/observability"
)

// AuditWorker writes audit jobs to the audit_logs table.
type AuditWorker struct {
	river.WorkerDefaults[AuditJob]

	repo   predictiondb.AuditRepository
	db     bun.IDB
	logger *slog.Logger
}

func NewAuditWorker(repo predictiondb.AuditRepository, db bun.IDB, logger *slog.Logger) *AuditWorker {
	return &AuditWorker{repo: repo, db: db, logger: logger}
}

func (w *AuditWorker) Timeout(*river.Job[AuditJob]) time.Duration {
	return 10 * time.Second
}

func (w *AuditWorker) Work(ctx context.Context, job *river.Job[AuditJob]) error {
	logger := w.logger.With(
		slog.Int64("job_id", job.ID),
		slog.String("action", job.Args.Action),
		slog.String("event_kind", job.Args.EventKind),
		slog.String("event_id", job.Args.EventID.String()),
	)

	if err := w.repo.InsertAuditLog(ctx, w.db, job.Args.AuditLog()); err != nil {
		logger.ErrorContext(ctx, "Failed to write audit log", slog.Int("attempt", job.Attempt), observability.Err(err))
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	logger.DebugContext(ctx, "Audit log written")
	return nil
}
