package predictionservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	leagueservice "github.com/tipping-league/prediction-core/app/modules/league/application"
	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
	predictiondb "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/repositories"
	"github.com/tipping-league/prediction-core/app/shared/apperr"
	"github.com/tipping-league/prediction-core/app/shared/observability"
	"github.com/tipping-league/prediction-core/app/shared/results"
	"github.com/tipping-league/prediction-core/app/shared/txrunner"
)

const serviceName = "PredictionService"

// MembershipGate resolves the caller's membership in a league. Its errors
// propagate unchanged.
type MembershipGate interface {
	RequireLeagueMember(ctx context.Context, leagueID uuid.UUID, userID string) (*leagueservice.Member, error)
}

// Auditor receives best-effort audit records.
type Auditor interface {
	OnCreated(ctx context.Context, entry predictiondomain.AuditEntry) error
	OnUpdated(ctx context.Context, entry predictiondomain.AuditEntry) error
	OnEvaluated(ctx context.Context, entry predictiondomain.AuditEntry) error
}

// EvaluationPublisher announces committed evaluation runs.
type EvaluationPublisher interface {
	PublishEvaluated(ctx context.Context, event predictiondomain.EvaluatedEvent) error
}

// RevealCache is a tag-invalidated byte cache.
type RevealCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error
}

// Collaborators are the services the prediction core calls out to. Only Gate
// is required.
type Collaborators struct {
	Gate      MembershipGate
	Auditor   Auditor
	Publisher EvaluationPublisher
	Cache     RevealCache
	Window    predictiondomain.BettingWindow
}

// Config bounds the service's transactions.
type Config struct {
	Submission        txrunner.Limits
	EvaluationTimeout time.Duration
	RevealCacheTTL    time.Duration
	AuditTimeout      time.Duration
}

// DefaultConfig returns the production bounds.
func DefaultConfig() Config {
	return Config{
		Submission:        txrunner.SubmissionLimits,
		EvaluationTimeout: 30 * time.Second,
		RevealCacheTTL:    10 * time.Minute,
		AuditTimeout:      2 * time.Second,
	}
}

// PredictionService implements the Service interface.
type PredictionService struct {
	repo    predictiondb.Repository
	wagers  predictiondb.Wagers
	collab  Collaborators
	cfg     Config
	logger  *slog.Logger
	metrics observability.Metrics
	tracer  trace.Tracer
	db      *bun.DB
}

// NewPredictionService creates a new PredictionService.
func NewPredictionService(
	repo predictiondb.Repository,
	wagers predictiondb.Wagers,
	collab Collaborators,
	cfg Config,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
	db *bun.DB,
) *PredictionService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewNoop()
	}
	return &PredictionService{
		repo:    repo,
		wagers:  wagers,
		collab:  collab,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		db:      db,
	}
}

// idb returns the pool as a bun.IDB, or a nil interface when no pool is set
// so repositories fall back to their own handle.
func (s *PredictionService) idb() bun.IDB {
	if s.db == nil {
		return nil
	}
	return s.db
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *PredictionService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	s.logger.InfoContext(ctx, "Operation triggered",
		observability.CorrelationID(ctx),
		slog.String("operation", operationName),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				observability.CorrelationID(ctx),
				slog.String("identifier", identifier),
				observability.Err(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			observability.CorrelationID(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			observability.Err(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			observability.CorrelationID(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			observability.CorrelationID(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
		)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	return result, nil
}

// errRollback aborts a transaction whose body produced a domain failure.
var errRollback = errors.New("rollback on domain failure")

// runSerializable runs fn inside a serializable transaction bounded by limits.
// A failure result rolls the transaction back and is returned without error.
func runSerializable[S any, F any](
	s *PredictionService,
	ctx context.Context,
	limits txrunner.Limits,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := txrunner.RunSerializable(ctx, s.db, limits, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		if txErr == nil && result.IsFailure() {
			return errRollback
		}
		return txErr
	})
	if errors.Is(err, errRollback) {
		return result, nil
	}
	return result, err
}

// detach returns a context that survives the request for best-effort side effects.
func (s *PredictionService) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.AuditTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// audit hands entry to the auditor. Failures are logged and never returned.
func (s *PredictionService) audit(ctx context.Context, entry predictiondomain.AuditEntry) {
	if s.collab.Auditor == nil {
		return
	}
	ctx, cancel := s.detach(ctx)
	defer cancel()

	var err error
	switch entry.Action {
	case predictiondomain.AuditCreated:
		err = s.collab.Auditor.OnCreated(ctx, entry)
	case predictiondomain.AuditUpdated:
		err = s.collab.Auditor.OnUpdated(ctx, entry)
	case predictiondomain.AuditEvaluated:
		err = s.collab.Auditor.OnEvaluated(ctx, entry)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Audit enqueue failed",
			observability.CorrelationID(ctx),
			slog.String("action", string(entry.Action)),
			slog.String("event_id", entry.EventID.String()),
			observability.Err(err),
		)
	}
}

// requireMember resolves the league of an event and the caller's membership in it.
func (s *PredictionService) requireMember(ctx context.Context, kind predictiondomain.EventKind, eventID uuid.UUID, userID string) (*predictiondb.EventHeader, *leagueservice.Member, *apperr.Error, error) {
	header, err := s.repo.GetEventHeader(ctx, s.idb(), kind, eventID)
	if err != nil {
		if errors.Is(err, predictiondb.ErrNotFound) {
			return nil, nil, notFound(kind), nil
		}
		return nil, nil, nil, fmt.Errorf("failed to load %s: %w", kind, err)
	}
	member, err := s.collab.Gate.RequireLeagueMember(ctx, header.LeagueID, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	return header, member, nil, nil
}

func notFound(kind predictiondomain.EventKind) *apperr.Error {
	return apperr.NotFound(kind.Title() + " not found")
}
