package database

import (
	"context"
	"fmt"
	"time"

	"artisan_storefront/internal/config"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// --- Variables Globales ---
var (
	Redis *redis.Client
)

// --- Initialisation ---
func ConnectDatabases(settings config.Settings) error {
	if settings.StorageDriver == "memory" {
		log.Println("⚠️ STORAGE_DRIVER=memory — pas de Redis, l'état des sessions est perdu au redémarrage")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := connectRedis(ctx, settings.RedisHost, settings.RedisPassword)
	if err != nil {
		return err
	}
	Redis = client

	log.Println("✅ Toutes les bases de données sont connectées")
	return nil
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("REDIS_HOST non configuré")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("impossible de se connecter à Redis: %w", err)
	}
	log.Println("✅ Connecté à Redis")
	return client, nil
}

// CloseRedis ferme la connexion Redis
func CloseRedis() error {
	if Redis != nil {
		return Redis.Close()
	}
	return nil
}
