package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const DefaultTTL = 30 * 24 * time.Hour // 30 jours

type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisBackend(client *redis.Client, ttl time.Duration) *RedisBackend {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisBackend{client: client, ttl: ttl}
}

func (b *RedisBackend) ForSession(sessionID string) Store {
	return &RedisStore{backend: b, sessionID: sessionID}
}

// Subscribe écoute le canal pub/sub du panier de la session
func (b *RedisBackend) Subscribe(ctx context.Context, sessionID string) (<-chan struct{}, func()) {
	pubsub := b.client.Subscribe(ctx, cartChannel(sessionID))
	// attendre la confirmation d'abonnement pour ne rater aucune publication
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("⚠️ Erreur abonnement panier %s: %v", sessionID, err)
	}

	out := make(chan struct{}, 1)
	done := make(chan struct{})

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	cancel := func() {
		close(done)
		if err := pubsub.Close(); err != nil {
			log.Printf("⚠️ Erreur fermeture pub/sub: %v", err)
		}
	}
	return out, cancel
}

// RedisStore range les emplacements sous storefront:<session>:<slot>
type RedisStore struct {
	backend   *RedisBackend
	sessionID string
}

func (s *RedisStore) Get(ctx context.Context, slot string) ([]byte, error) {
	data, err := s.backend.client.Get(ctx, slotKey(s.sessionID, slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, slot string, value []byte) error {
	pipe := s.backend.client.TxPipeline()
	pipe.Set(ctx, slotKey(s.sessionID, slot), value, s.backend.ttl)
	if slot == SlotCart {
		pipe.Publish(ctx, cartChannel(s.sessionID), "updated")
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, slot string) error {
	pipe := s.backend.client.TxPipeline()
	pipe.Del(ctx, slotKey(s.sessionID, slot))
	if slot == SlotCart {
		pipe.Publish(ctx, cartChannel(s.sessionID), "cleared")
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func slotKey(sessionID, slot string) string {
	return fmt.Sprintf("storefront:%s:%s", sessionID, slot)
}

func cartChannel(sessionID string) string {
	return fmt.Sprintf("storefront:%s:cart", sessionID)
}
