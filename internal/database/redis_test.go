package database

import (
	"context"
	"testing"

	"workshop-web/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{RedisHost: mr.Host(), RedisPort: mr.Port()}

	client, err := NewRedis(cfg)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{RedisHost: mr.Host(), RedisPort: mr.Port()}
	mr.Close()

	_, err := NewRedis(cfg)
	assert.Error(t, err)
}
