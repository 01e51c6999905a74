package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"artisan_storefront/internal/models"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const DefaultProductTTL = 2 * time.Minute

// ProductSource est la source faisant foi (le backend REST)
type ProductSource interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
	ListProducts(ctx context.Context, filters models.ProductFilters) (models.ProductPage, error)
}

// ProductCache met en cache les fiches produit dans Redis. Les listes filtrées
// ne sont pas mises en cache. Sans client Redis, tout passe à la source.
type ProductCache struct {
	source ProductSource
	client *redis.Client
	ttl    time.Duration
	sfg    singleflight.Group
}

func NewProductCache(source ProductSource, client *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}
	return &ProductCache{source: source, client: client, ttl: ttl}
}

func productKey(id string) string {
	return "product:" + id
}

// GetProduct lit Redis puis le backend ; les lectures concurrentes d'un même
// produit absent du cache ne font qu'un appel.
func (c *ProductCache) GetProduct(ctx context.Context, id string) (models.Product, error) {
	if c.client == nil {
		return c.source.GetProduct(ctx, id)
	}

	key := productKey(id)

	// 1. Essayer le cache Redis
	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var product models.Product
		if json.Unmarshal(data, &product) == nil {
			return product, nil
		}
		log.WithField("product_id", id).Warn("⚠️ Produit en cache illisible, rechargement")
	} else if !errors.Is(err, redis.Nil) {
		log.WithField("product_id", id).Warnf("⚠️ Lecture cache produit: %v", err)
	}

	// 2. Récupérer depuis le backend
	v, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		product, err := c.source.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}

		// 3. Mettre en cache
		if data, err := json.Marshal(product); err == nil {
			if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
				log.WithField("product_id", id).Warnf("⚠️ Écriture cache produit: %v", err)
			}
		}
		return product, nil
	})
	if err != nil {
		return models.Product{}, err
	}
	return v.(models.Product), nil
}

func (c *ProductCache) ListProducts(ctx context.Context, filters models.ProductFilters) (models.ProductPage, error) {
	return c.source.ListProducts(ctx, filters)
}

// InvalidateProduct invalide le cache d'un produit
func (c *ProductCache) InvalidateProduct(ctx context.Context, id string) {
	if c.client == nil || id == "" {
		return
	}
	if err := c.client.Del(ctx, productKey(id)).Err(); err != nil {
		log.WithField("product_id", id).Warnf("⚠️ Invalidation cache produit: %v", err)
	}
}
