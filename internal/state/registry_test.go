package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"artisan_storefront/internal/models"
	"artisan_storefront/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SameSessionSameState(t *testing.T) {
	r := NewRegistry(storage.NewMemoryBackend(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	states := make([]*AppState, 20)
	for i := range states {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			states[i] = r.Get(ctx, "s1")
		}(i)
	}
	wg.Wait()

	for _, s := range states {
		assert.Same(t, states[0], s)
	}
	assert.NotSame(t, states[0], r.Get(ctx, "s2"))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_HydratesFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	backend := storage.NewRedisBackend(client, time.Hour)
	ctx := context.Background()

	first := NewRegistry(backend, nil)
	s := first.Get(ctx, "s1")
	s.DispatchAuth(ctx, LoginSucceeded{Session: models.AuthSession{
		Token: "tok-1",
		User:  models.User{ID: "u1", Email: "asha@example.in"},
	}})
	s.Cart.Add(ctx, models.CartLineItem{ProductID: "p1", Quantity: 2, UnitPriceCents: 150000})

	// nouveau processus : même stockage, registre vide
	second := NewRegistry(backend, nil)
	restored := second.Get(ctx, "s1")

	auth := restored.Auth()
	require.True(t, auth.Authenticated())
	assert.Equal(t, "tok-1", auth.Token)
	assert.Equal(t, "u1", auth.User.ID)
	assert.Equal(t, int64(300000), restored.Cart.Total())
}

func TestAppState_LogoutClearsSlotsAndOrders(t *testing.T) {
	backend := storage.NewMemoryBackend()
	ctx := context.Background()
	s := NewRegistry(backend, nil).Get(ctx, "s1")

	s.DispatchAuth(ctx, LoginSucceeded{Session: models.AuthSession{Token: "tok", User: models.User{ID: "u1"}}})
	s.DispatchOrders(OrdersReceived{Seq: s.Seq.OrderList.Next(), Orders: []models.Order{{ID: "o1"}}})
	s.Cart.Add(ctx, models.CartLineItem{ProductID: "p1", Quantity: 1, UnitPriceCents: 100})

	s.DispatchAuth(ctx, Logout{})

	assert.False(t, s.Auth().Authenticated())
	assert.Nil(t, s.Orders().List.Data)
	assert.Len(t, s.Cart.Items(), 1)

	store := backend.ForSession("s1")
	_, err := store.Get(ctx, storage.SlotToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.Get(ctx, storage.SlotUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAppState_CorruptUserFallsBackToLoggedOut(t *testing.T) {
	backend := storage.NewMemoryBackend()
	ctx := context.Background()
	store := backend.ForSession("s1")
	require.NoError(t, store.Set(ctx, storage.SlotToken, []byte("tok")))
	require.NoError(t, store.Set(ctx, storage.SlotUser, []byte("{broken")))

	s := NewRegistry(backend, nil).Get(ctx, "s1")
	assert.False(t, s.Auth().Authenticated())
}

func TestAppState_Snapshot(t *testing.T) {
	ctx := context.Background()
	s := NewRegistry(storage.NewMemoryBackend(), nil).Get(ctx, "s1")
	s.Cart.Add(ctx, models.CartLineItem{ProductID: "p1", Quantity: 3, UnitPriceCents: 150000})
	s.DispatchProducts(ProductsRequested{Seq: s.Seq.ProductList.Next()})

	snap := s.Snapshot()
	assert.Equal(t, "s1", snap.SessionID)
	assert.Equal(t, 3, snap.Cart.ItemCount)
	assert.Equal(t, int64(541000), snap.Cart.Summary.GrandTotalCents)
	assert.True(t, snap.Products.List.Loading)
}

func TestRegistry_Evict(t *testing.T) {
	r := NewRegistry(storage.NewMemoryBackend(), nil)
	ctx := context.Background()
	s := r.Get(ctx, "idle")
	r.Get(ctx, "active")

	s.touch(time.Now().Add(-2 * time.Hour))
	assert.Equal(t, 1, r.Evict(time.Hour))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 0, r.Evict(time.Hour))
}
