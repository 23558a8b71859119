package database

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDSN(t *testing.T) {
	tests := map[string]string{
		"postgresql+asyncpg://u:p@db:5432/chat": "postgresql://u:p@db:5432/chat",
		"postgres+pgx://u:p@db/chat":            "postgres://u:p@db/chat",
		"  postgres://u:p@db/chat  ":            "postgres://u:p@db/chat",
		"":                                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeDSN(in), in)
	}
}

func TestWithMaxConns(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/chat")
	require.NoError(t, err)

	WithMaxConns(12)(cfg)
	assert.Equal(t, int32(12), cfg.MaxConns)

	WithMaxConns(0)(cfg)
	assert.Equal(t, int32(12), cfg.MaxConns, "zero keeps the current value")
}

func TestApplyDefaults(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/chat?application_name=ops")
	require.NoError(t, err)
	applyDefaults(cfg)
	assert.Equal(t, "ops", cfg.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, time.Hour, cfg.MaxConnLifetime)

	cfg, err = pgxpool.ParseConfig("postgres://u:p@localhost:5432/chat")
	require.NoError(t, err)
	applyDefaults(cfg)
	assert.Equal(t, "recruitchat", cfg.ConnConfig.RuntimeParams["application_name"])
}
