package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Redis         RedisConfig         `yaml:"redis"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Submission    SubmissionConfig    `yaml:"submission"`
	Evaluation    EvaluationConfig    `yaml:"evaluation"`
	Queue         QueueConfig         `yaml:"queue"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL keeps evaluation events
// in process.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the reveal cache connection. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// HTTPConfig holds the API listener and per-IP rate limit.
type HTTPConfig struct {
	Addr           string  `yaml:"addr"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// SubmissionConfig bounds the serializable submission transaction.
type SubmissionConfig struct {
	MaxWait time.Duration `yaml:"max_wait"`
	Timeout time.Duration `yaml:"timeout"`
}

// EvaluationConfig bounds an evaluation run.
type EvaluationConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// QueueConfig sizes the River audit queue.
type QueueConfig struct {
	AuditWorkers int `yaml:"audit_workers"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	Environment    string `yaml:"environment"`
}

// Defaults returns the settings used when neither file nor env sets a value.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:           ":8080",
			RateLimitRPS:   10,
			RateLimitBurst: 20,
		},
		Redis: RedisConfig{TTL: 10 * time.Minute},
		Submission: SubmissionConfig{
			MaxWait: 5 * time.Second,
			Timeout: 10 * time.Second,
		},
		Evaluation:    EvaluationConfig{Timeout: 30 * time.Second},
		Queue:         QueueConfig{AuditWorkers: 5},
		Observability: ObservabilityConfig{LogLevel: "info", MetricsEnabled: true},
	}
}

// LoadConfig loads the configuration from a YAML file, then applies
// environment overrides. A missing file falls back to the environment alone.
func LoadConfig(filename string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", filename, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return errors.New("postgres dsn not set (DATABASE_URL)")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret not set (JWT_SECRET)")
	}
	if c.HTTP.RateLimitRPS <= 0 || c.HTTP.RateLimitBurst <= 0 {
		return fmt.Errorf("invalid rate limit %v/%d", c.HTTP.RateLimitRPS, c.HTTP.RateLimitBurst)
	}
	return nil
}

// --- OVERRIDE WITH ENV VARS IF PRESENT ---
func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"DATABASE_URL":   &cfg.Postgres.DSN,
		"NATS_URL":       &cfg.NATS.URL,
		"REDIS_ADDR":     &cfg.Redis.Addr,
		"REDIS_PASSWORD": &cfg.Redis.Password,
		"HTTP_ADDR":      &cfg.HTTP.Addr,
		"JWT_SECRET":     &cfg.JWT.Secret,
		"LOG_LEVEL":      &cfg.Observability.LogLevel,
		"ENV":            &cfg.Observability.Environment,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"REDIS_TTL":           &cfg.Redis.TTL,
		"SUBMISSION_MAX_WAIT": &cfg.Submission.MaxWait,
		"SUBMISSION_TIMEOUT":  &cfg.Submission.Timeout,
		"EVALUATION_TIMEOUT":  &cfg.Evaluation.Timeout,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %w", key, err)
			}
			*dst = d
		}
	}

	ints := map[string]*int{
		"REDIS_DB":         &cfg.Redis.DB,
		"RATE_LIMIT_BURST": &cfg.HTTP.RateLimitBurst,
		"AUDIT_WORKERS":    &cfg.Queue.AuditWorkers,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s value: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS value: %w", err)
		}
		cfg.HTTP.RateLimitRPS = f
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		cfg.Observability.MetricsEnabled = v == "true"
	}
	return nil
}
