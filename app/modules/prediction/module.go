package prediction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"

	leagueservice "github.com/tipping-league/prediction-core/app/modules/league/application"
	leaguedb "github.com/tipping-league/prediction-core/app/modules/league/infrastructure/repositories"
	predictionservice "github.com/tipping-league/prediction-core/app/modules/prediction/application"
	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
	predictioncache "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/cache"
	predictionevents "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/events"
	predictionhandlers "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/handlers"
	predictionqueue "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/queue"
	predictiondb "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/repositories"
	"github.com/tipping-league/prediction-core/app/shared/observability"
	"github.com/tipping-league/prediction-core/app/shared/txrunner"
	"github.com/tipping-league/prediction-core/config"
)

// Deps are the process-wide resources the module builds on.
type Deps struct {
	Config  *config.Config
	DB      *bun.DB
	Pool    *pgxpool.Pool
	PubSub  predictionevents.PubSub
	Cache   *predictioncache.Cache
	Logger  *slog.Logger
	Metrics observability.Metrics
	Tracer  trace.Tracer
}

// Module represents the prediction module.
type Module struct {
	Service     *predictionservice.PredictionService
	Handlers    *predictionhandlers.Handlers
	queue       *predictionqueue.Service
	eventRouter *predictionevents.Router
	cancelFunc  context.CancelFunc
	logger      *slog.Logger
}

// NewModule creates and initializes the prediction module.
func NewModule(ctx context.Context, deps Deps) (*Module, error) {
	logger := deps.Logger
	cfg := deps.Config

	logger.InfoContext(ctx, "prediction.NewModule initializing")

	// 1. Repositories
	repo := predictiondb.NewRepository(deps.DB)
	wagers := predictiondb.NewWagers(deps.DB)
	gate := leagueservice.NewGate(leaguedb.NewRepository(deps.DB), logger, deps.DB)

	// 2. Audit queue
	queue, err := predictionqueue.NewService(deps.Pool, repo, deps.DB, logger, deps.Metrics, cfg.Queue.AuditWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit queue: %w", err)
	}

	// 3. Collaborators
	collab := predictionservice.Collaborators{
		Gate:      gate,
		Auditor:   queue,
		Publisher: predictionevents.NewPublisher(deps.PubSub.Publisher, logger),
		Window:    predictiondomain.NewBettingWindow(nil),
	}
	if deps.Cache != nil {
		collab.Cache = deps.Cache
	}

	serviceCfg := predictionservice.DefaultConfig()
	serviceCfg.Submission = txrunner.Limits{MaxWait: cfg.Submission.MaxWait, Timeout: cfg.Submission.Timeout}
	serviceCfg.EvaluationTimeout = cfg.Evaluation.Timeout
	if cfg.Redis.TTL > 0 {
		serviceCfg.RevealCacheTTL = cfg.Redis.TTL
	}

	// 4. Service and HTTP handlers
	service := predictionservice.NewPredictionService(repo, wagers, collab, serviceCfg, logger, deps.Metrics, deps.Tracer, deps.DB)
	handlers := predictionhandlers.NewHandlers(service, logger)

	// 5. Cache invalidation subscriber, only when there is a cache to drop
	var eventRouter *predictionevents.Router
	if deps.Cache != nil {
		eventRouter, err = predictionevents.NewRouter(deps.PubSub.Subscriber, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create prediction event router: %w", err)
		}
		eventRouter.Configure(predictionevents.NewHandlers(deps.Cache, logger))
	}

	return &Module{
		Service:     service,
		Handlers:    handlers,
		queue:       queue,
		eventRouter: eventRouter,
		logger:      logger,
	}, nil
}

// Mount registers the prediction HTTP routes.
func (m *Module) Mount(r chi.Router, authenticate func(next http.Handler) http.Handler) {
	m.Handlers.Mount(r, authenticate)
}

// Run starts the audit workers and the event router and blocks until ctx is
// cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting prediction module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.queue.Start(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Audit queue failed to start", observability.Err(err))
	}

	if m.eventRouter != nil {
		go func() {
			if err := m.eventRouter.Run(ctx); err != nil {
				m.logger.ErrorContext(ctx, "Prediction event router stopped", observability.Err(err))
			}
		}()
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Prediction module goroutine stopped")
}

// Close shuts down the prediction module.
func (m *Module) Close() error {
	m.logger.Info("Stopping prediction module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	var errs []error
	if m.eventRouter != nil {
		if err := m.eventRouter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing event router: %w", err))
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := m.queue.Stop(stopCtx); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		m.logger.Error("Error stopping prediction module", observability.Err(err))
		return err
	}
	m.logger.Info("Prediction module stopped")
	return nil
}
