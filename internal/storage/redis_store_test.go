package storage

import (
	"context"
	"testing"
	"time"

	"artisan_storefront/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis démarre un miniredis et renvoie un backend branché dessus
func setupTestRedis(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisBackend(client, time.Hour), mr
}

func TestRedisStore_SetGet(t *testing.T) {
	backend, mr := setupTestRedis(t)
	store := backend.ForSession("sess-1")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, SlotToken, []byte("jwt-token")))

	got, err := store.Get(ctx, SlotToken)
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", string(got))

	raw, err := mr.Get("storefront:sess-1:token")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", raw)
	assert.Equal(t, time.Hour, mr.TTL("storefront:sess-1:token"))
}

func TestRedisStore_GetMissing(t *testing.T) {
	backend, _ := setupTestRedis(t)

	_, err := backend.ForSession("sess-1").Get(context.Background(), SlotCart)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_SessionsAreIsolated(t *testing.T) {
	backend, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, backend.ForSession("a").Set(ctx, SlotToken, []byte("A")))

	_, err := backend.ForSession("b").Get(ctx, SlotToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	backend, mr := setupTestRedis(t)
	store := backend.ForSession("sess-1")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, SlotUser, []byte(`{"id":"u1"}`)))
	require.NoError(t, store.Delete(ctx, SlotUser))

	assert.False(t, mr.Exists("storefront:sess-1:user"))
	_, err := store.Get(ctx, SlotUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_CartWritePublishes(t *testing.T) {
	backend, _ := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, stop := backend.Subscribe(ctx, "sess-1")
	defer stop()

	data, err := EncodeCart([]models.CartLineItem{{ProductID: "p1", Quantity: 1, UnitPriceCents: 100}})
	require.NoError(t, err)
	require.NoError(t, backend.ForSession("sess-1").Set(ctx, SlotCart, data))

	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("aucune notification reçue")
	}
}

func TestRedisStore_ConnectionError(t *testing.T) {
	backend, mr := setupTestRedis(t)
	mr.Close()

	err := backend.ForSession("sess-1").Set(context.Background(), SlotToken, []byte("x"))
	assert.ErrorContains(t, err, "redis set failed")
}
