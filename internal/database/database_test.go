package database

import (
	"context"
	"testing"

	"artisan_storefront/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectDatabases_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() {
		_ = CloseRedis()
		Redis = nil
	})

	err := ConnectDatabases(config.Settings{StorageDriver: "redis", RedisHost: mr.Addr()})
	require.NoError(t, err)
	require.NotNil(t, Redis)
	assert.NoError(t, Redis.Ping(context.Background()).Err())
}

func TestConnectDatabases_MemorySkipsRedis(t *testing.T) {
	Redis = nil
	require.NoError(t, ConnectDatabases(config.Settings{StorageDriver: "memory"}))
	assert.Nil(t, Redis)
}

func TestConnectDatabases_MissingHost(t *testing.T) {
	err := ConnectDatabases(config.Settings{StorageDriver: "redis"})
	assert.ErrorContains(t, err, "REDIS_HOST")
}
