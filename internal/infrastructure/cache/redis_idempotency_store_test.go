package cache

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisIdempotencyStore_Unreachable(t *testing.T) {
	store, err := NewRedisIdempotencyStore(context.Background(), RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestNewRedisIdempotencyStoreWithClient_DefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	assert.Equal(t, defaultKeyPrefix, NewRedisIdempotencyStoreWithClient(client, "").keyPrefix)
	assert.Equal(t, "test:", NewRedisIdempotencyStoreWithClient(client, "test:").keyPrefix)
}
