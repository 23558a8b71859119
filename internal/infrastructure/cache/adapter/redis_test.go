package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisAdapter_BadURL(t *testing.T) {
	_, err := NewRedisAdapter(context.Background(), "")
	require.Error(t, err)

	_, err = NewRedisAdapter(context.Background(), "http://not-redis")
	require.ErrorContains(t, err, "parse url")
}

func TestWithNamespace(t *testing.T) {
	r := &RedisCache{}
	assert.Equal(t, "chat:transcript:K", r.key("chat:transcript:K"))

	WithNamespace("recruitchat")(r)
	assert.Equal(t, "recruitchat:chat:transcript:K", r.key("chat:transcript:K"))

	WithNamespace("")(r)
	assert.Equal(t, "recruitchat:chat:transcript:K", r.key("chat:transcript:K"), "empty namespace keeps the current one")
}
