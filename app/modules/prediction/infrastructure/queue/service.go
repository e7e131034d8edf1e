package predictionqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/riverqueue/river/rivertype"
	"github.com/uptrace/bun"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
	predictiondb "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/repositories"
	"github.com/tipping-league/prediction-core/app/shared/observability"
)

const metricsService = "river"

// jobInserter is the part of the River client the request path uses.
type jobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// Service enqueues audit entries on River and runs the audit worker.
// Enqueueing is the only work done on the request path.
type Service struct {
	client   *river.Client[pgx.Tx]
	inserter jobInserter
	pool     *pgxpool.Pool
	logger   *slog.Logger
	metrics  observability.Metrics
}

// NewService builds a River client over pool with the audit worker registered.
func NewService(pool *pgxpool.Pool, repo predictiondb.AuditRepository, db bun.IDB, logger *slog.Logger, metrics observability.Metrics, maxWorkers int) (*Service, error) {
	if metrics == nil {
		metrics = observability.NewNoop()
	}
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	ctxLogger := logger.With(
		slog.String("component", "river_queue"),
	)

	workers := river.NewWorkers()
	river.AddWorker(workers, NewAuditWorker(repo, db, ctxLogger))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Logger: ctxLogger,
		Queues: map[string]river.QueueConfig{
			AuditQueue: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	ctxLogger.Info("Audit queue service initialized")
	return &Service{
		client:   client,
		inserter: client,
		pool:     pool,
		logger:   ctxLogger,
		metrics:  metrics,
	}, nil
}

// Migrate brings River's own tables up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	return nil
}

// Start starts the River client's fetchers and workers.
func (s *Service) Start(ctx context.Context) error {
	if s.client == nil {
		return errors.New("river client is nil")
	}
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", observability.Err(err))
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.Info("Audit queue service started")
	return nil
}

// Stop waits for running jobs to finish.
func (s *Service) Stop(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", observability.Err(err))
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.logger.Info("Audit queue service stopped")
	return nil
}

// HealthCheck verifies the queue's database is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("river pool is nil")
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("queue service health check failed: %w", err)
	}
	return nil
}

func (s *Service) OnCreated(ctx context.Context, entry predictiondomain.AuditEntry) error {
	return s.enqueue(ctx, "enqueue_audit_created", entry)
}

func (s *Service) OnUpdated(ctx context.Context, entry predictiondomain.AuditEntry) error {
	return s.enqueue(ctx, "enqueue_audit_updated", entry)
}

func (s *Service) OnEvaluated(ctx context.Context, entry predictiondomain.AuditEntry) error {
	return s.enqueue(ctx, "enqueue_audit_evaluated", entry)
}

func (s *Service) enqueue(ctx context.Context, operation string, entry predictiondomain.AuditEntry) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, operation, metricsService)

	res, err := s.inserter.Insert(ctx, NewAuditJob(entry), nil)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, operation, metricsService)
		return fmt.Errorf("failed to enqueue audit job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, operation, metricsService)
	s.metrics.RecordOperationDuration(ctx, operation, metricsService, time.Since(start))
	if res != nil && res.Job != nil {
		s.logger.DebugContext(ctx, "Audit job enqueued",
			slog.Int64("job_id", res.Job.ID),
			slog.String("action", string(entry.Action)),
		)
	}
	return nil
}
