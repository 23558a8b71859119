package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string `env:"APP_ENV,default=development" validate:"oneof=development production test"`
	Port   string `env:"PORT,default=8080" validate:"required,numeric"`

	DBURL      string `env:"DB_URL,required=true" validate:"required"`
	DBMaxConns int    `env:"DB_MAX_CONNS,default=8" validate:"gte=1"`
	RedisURL   string `env:"REDIS_URL,required=true" validate:"required"`
	JWTSecret  string `env:"JWT_SECRET,required=true" validate:"required,min=16"`

	StoreTimeout     time.Duration `env:"STORE_TIMEOUT,default=3s" validate:"gt=0"`
	ReadTimeout      time.Duration `env:"READ_TIMEOUT,default=60s" validate:"gt=0"`
	SendBuffer       int           `env:"SEND_BUFFER,default=128" validate:"gte=1"`
	MaxContentLength int           `env:"MAX_CONTENT_LENGTH,default=4000" validate:"gte=1"`
	TranscriptTTL    time.Duration `env:"TRANSCRIPT_TTL,default=24h" validate:"gte=0"`
	SnowflakeNode    int           `env:"SNOWFLAKE_NODE,default=1" validate:"gte=0,lte=1023"`

	LogLevel string `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`

	AsynqConcurrency int    `env:"ASYNQ_CONCURRENCY,default=10" validate:"gte=1"`
	AsynqQueues      string `env:"ASYNQ_QUEUES"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME,default=recruitchat"`
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnviron()
}

// FromEnviron decodes and validates the process environment.
func FromEnviron() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
