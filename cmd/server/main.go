package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/tipping-league/prediction-core/app"
	"github.com/tipping-league/prediction-core/app/modules/auth"
	authservice "github.com/tipping-league/prediction-core/app/modules/auth/application"
	authdomain "github.com/tipping-league/prediction-core/app/modules/auth/domain"
	"github.com/tipping-league/prediction-core/app/shared/observability"
	"github.com/tipping-league/prediction-core/config"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:  "prediction-core",
		Usage: "tipping league wager submission and evaluation service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			tokenCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API, audit workers and cache invalidation",
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := observability.NewLogger(os.Stdout, cfg.Observability.LogLevel)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			application := app.NewApp(cfg, logger)
			if err := application.Initialize(ctx); err != nil {
				_ = application.Close(context.Background())
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			runErr := application.Run(ctx)
			logger.Info("Shutting down application...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := application.Close(shutdownCtx); err != nil && runErr == nil {
				return err
			}
			return runErr
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue a bearer token for a user",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "user id (token subject)", Required: true},
			&cli.StringFlag{Name: "name", Usage: "display name"},
			&cli.StringFlag{Name: "role", Value: authdomain.RoleMember.String(), Usage: "member or admin"},
			&cli.DurationFlag{Name: "ttl", Value: authservice.DefaultTokenTTL, Usage: "token lifetime"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := observability.NewLogger(os.Stderr, cfg.Observability.LogLevel)
			module := auth.NewModule(c.Context, cfg, logger, observability.Tracer(observability.ServiceName))

			resp, err := module.GetService().IssueToken(c.Context, authservice.IssueTokenRequest{
				UserID:      c.String("user"),
				DisplayName: c.String("name"),
				Role:        authdomain.Role(c.String("role")),
				TTL:         c.Duration("ttl"),
			})
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(resp)
		},
	}
}
