package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"trackjoi/pkg/config"
)

type AppConfig struct {
	Env      string `yaml:"env"`
	Timezone string `yaml:"timezone"`
	LogLevel string `yaml:"log_level"`
}

// ThrottleConfig bounds failed login attempts per email.
type ThrottleConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Window      time.Duration `yaml:"window"`
}

type Config struct {
	App      AppConfig           `yaml:"app"`
	DB       config.DBConfig     `yaml:"db"`
	JWT      config.JWTConfig    `yaml:"jwt"`
	Server   config.ServerConfig `yaml:"server"`
	Redis    config.RedisConfig  `yaml:"redis"`
	MQ       config.MQConfig     `yaml:"mq"`
	Otel     config.OtelConfig   `yaml:"otel"`
	Throttle ThrottleConfig      `yaml:"throttle"`
}

const defaultJWTSecret = "your-secret-key-change-in-production"

// Load reads config/base.yaml plus the environment overlay named by CONFIG_ENV,
// then applies the individual environment variable overrides.
func Load(configDir string) (*Config, error) {
	env := config.GetConfigEnv()

	raw, err := config.LoadConfig(env, configDir)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := config.Decode(raw, cfg); err != nil {
		return nil, err
	}
	if cfg.App.Env == "" {
		cfg.App.Env = env
	}

	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideOtelFromEnv(&cfg.Otel)
	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		cfg.App.Timezone = tz
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.App.LogLevel = level
	}
	if cfg.JWT.Secret == "" && isDevEnv(cfg.App.Env) {
		cfg.JWT.Secret = defaultJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the settings used when a key is absent from every source.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Env:      "local",
			Timezone: "UTC",
			LogLevel: "info",
		},
		DB: config.DBConfig{
			Host:           "localhost",
			Port:           5432,
			User:           "postgres",
			Name:           "trackjoi",
			SSLMode:        "disable",
			MaxConns:       10,
			MinConns:       2,
			SlowQuery:      100 * time.Millisecond,
			ConnectTimeout: 5 * time.Second,
		},
		JWT: config.JWTConfig{
			Secret: defaultJWTSecret,
			TTL:    30 * 24 * time.Hour,
		},
		Server: config.ServerConfig{
			Port:            ":3000",
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		MQ: config.MQConfig{
			PollInterval: time.Second,
			BatchSize:    100,
			MaxRetries:   5,
		},
		Otel: config.OtelConfig{
			ServiceName: "trackjoi-api",
		},
		Throttle: ThrottleConfig{
			MaxAttempts: 5,
			Window:      15 * time.Minute,
		},
	}
}

// Validate rejects configurations that must never reach a production deployment.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if !isDevEnv(c.App.Env) && c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("jwt.secret must be set explicitly in %q environment", c.App.Env)
	}
	if c.JWT.TTL <= 0 {
		return errors.New("jwt.ttl must be positive")
	}
	if c.DB.MaxConns <= 0 {
		return errors.New("db.max_conns must be positive")
	}
	if c.MQ.Enabled && c.MQ.URL == "" {
		return errors.New("mq.url is required when mq is enabled")
	}
	if c.MQ.Enabled && (c.MQ.PollInterval <= 0 || c.MQ.BatchSize <= 0) {
		return errors.New("mq.poll_interval and mq.batch_size must be positive")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid app.timezone %q: %w", c.App.Timezone, err)
	}
	return nil
}

func isDevEnv(env string) bool {
	return env == "local" || env == "test"
}

// Location resolves App.Timezone; Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
