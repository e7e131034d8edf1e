package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/tipping-league/prediction-core/app/modules/auth"
	"github.com/tipping-league/prediction-core/app/modules/prediction"
	predictioncache "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/cache"
	predictionevents "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/events"
	"github.com/tipping-league/prediction-core/app/shared/httpx"
	"github.com/tipping-league/prediction-core/app/shared/observability"
	"github.com/tipping-league/prediction-core/config"
)

// App holds process-wide resources and the modules built on them.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Pool       *pgxpool.Pool
	DB         *bun.DB
	PubSub     predictionevents.PubSub
	Cache      *predictioncache.Cache
	Registry   *prometheus.Registry
	Auth       *auth.Module
	Prediction *prediction.Module
	Server     *http.Server

	wg sync.WaitGroup
}

// NewApp creates an App for cfg. Call Initialize before Run.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	return &App{Config: cfg, Logger: logger}
}

// Initialize opens every connection and builds the modules.
func (app *App) Initialize(ctx context.Context) error {
	cfg := app.Config
	logger := app.Logger

	if err := app.setupDatabase(ctx); err != nil {
		return err
	}

	if cfg.NATS.URL != "" {
		pubsub, err := predictionevents.NewNATSPubSub(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		app.PubSub = pubsub
		logger.InfoContext(ctx, "Evaluation events bridged over NATS", slog.String("url", cfg.NATS.URL))
	} else {
		app.PubSub = predictionevents.NewInProcessPubSub(logger)
		logger.WarnContext(ctx, "NATS URL not set, evaluation events stay in process")
	}

	if cfg.Redis.Addr != "" {
		cache, err := predictioncache.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		app.Cache = cache
	} else {
		logger.WarnContext(ctx, "Redis address not set, reveal cache disabled")
	}

	var metrics observability.Metrics = observability.NewNoop()
	app.Registry = prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		app.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = observability.NewPrometheusMetrics(app.Registry, "prediction_core")
	}

	tracer := observability.Tracer(observability.ServiceName)
	app.Auth = auth.NewModule(ctx, cfg, logger, tracer)

	predictionModule, err := prediction.NewModule(ctx, prediction.Deps{
		Config:  cfg,
		DB:      app.DB,
		Pool:    app.Pool,
		PubSub:  app.PubSub,
		Cache:   app.Cache,
		Logger:  logger,
		Metrics: metrics,
		Tracer:  tracer,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize prediction module: %w", err)
	}
	app.Prediction = predictionModule

	app.Server = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

func (app *App) setupDatabase(ctx context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(app.Config.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("invalid postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to reach postgres: %w", err)
	}

	app.Pool = pool
	app.DB = bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())
	return nil
}

// Router builds the HTTP handler tree.
func (app *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", app.healthz)
	r.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(app.Auth.RateLimit())
		app.Prediction.Mount(r, app.Auth.Authenticate())
	})
	return r
}

func (app *App) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"postgres": "ok"}
	status := http.StatusOK
	if err := app.Pool.Ping(ctx); err != nil {
		checks["postgres"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if app.Cache != nil {
		checks["redis"] = "ok"
		if err := app.Cache.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	httpx.WriteJSON(w, status, checks)
}

// Run serves HTTP and runs the modules until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	app.wg.Add(1)
	go app.Prediction.Run(ctx, &app.wg)

	errCh := make(chan error, 1)
	go func() {
		app.Logger.InfoContext(ctx, "HTTP server listening", slog.String("addr", app.Server.Addr))
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	}
}

// Close shuts everything down in reverse order of Initialize.
func (app *App) Close(ctx context.Context) error {
	var errs []error

	if app.Server != nil {
		if err := app.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if app.Prediction != nil {
		if err := app.Prediction.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.wg.Wait()

	if app.PubSub.Publisher != nil {
		if err := app.PubSub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("pubsub close: %w", err))
		}
	}
	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	if app.Pool != nil {
		app.Pool.Close()
	}

	if err := errors.Join(errs...); err != nil {
		app.Logger.Error("Shutdown finished with errors", observability.Err(err))
		return err
	}
	app.Logger.Info("Application shut down gracefully")
	return nil
}
