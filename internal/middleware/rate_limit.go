package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	LoginMaxAttempts    = 5
	RegisterMaxAttempts = 3
	CartMaxAdds         = 20 // par minute et par session
	SearchMaxRequests   = 30 // par minute et par IP

	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
	windowDuration   = time.Minute
)

// RateLimiter compte les tentatives dans Redis. Sans client (driver mémoire)
// chaque limiteur laisse tout passer.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Login limite les échecs de connexion par email ; un 401 du backend compte comme échec.
func (r *RateLimiter) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.client == nil {
			c.Next()
			return
		}

		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Corps de requête illisible"})
			c.Abort()
			return
		}
		// remettre le body pour le handler
		c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		email := strings.ToLower(strings.TrimSpace(input.Email))
		key := "login_attempts:" + email
		cooldownKey := "login_cooldown:" + email

		if ttl, blocked := r.cooldown(c, cooldownKey); blocked {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		attempts, _ := r.client.Get(ctx, key).Int()
		if attempts >= LoginMaxAttempts {
			r.client.Set(ctx, cooldownKey, "1", LoginCooldown)
			r.client.Del(ctx, key)
			log.WithField("email", email).Warn("⚠️ Connexion bloquée après trop d'échecs")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Compte bloqué pendant %d minutes", int(LoginCooldown.Minutes())),
				"retry_after": int(LoginCooldown.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			pipe := r.client.TxPipeline()
			pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, LoginCooldown)
			if _, err := pipe.Exec(ctx); err != nil {
				log.Errorf("❌ Compteur de connexion: %v", err)
			}
		case http.StatusOK:
			r.client.Del(ctx, key, cooldownKey)
		}
	}
}

// Register limite les inscriptions réussies par IP
func (r *RateLimiter) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		ip := c.ClientIP()
		key := "register_attempts:" + ip
		cooldownKey := "register_cooldown:" + ip

		if ttl, blocked := r.cooldown(c, cooldownKey); blocked {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop d'inscriptions. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		attempts, _ := r.client.Get(ctx, key).Int()
		if attempts >= RegisterMaxAttempts {
			r.client.Set(ctx, cooldownKey, "1", RegisterCooldown)
			r.client.Del(ctx, key)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop d'inscriptions. Réessayez dans %d minutes", int(RegisterCooldown.Minutes())),
				"retry_after": int(RegisterCooldown.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusCreated {
			pipe := r.client.TxPipeline()
			pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, RegisterCooldown)
			_, _ = pipe.Exec(ctx)
		}
	}
}

// CartAdd limite les ajouts au panier par session
func (r *RateLimiter) CartAdd() gin.HandlerFunc {
	return r.window("cart_add:", CartMaxAdds, "Trop d'ajouts au panier. Ralentissez un peu", func(c *gin.Context) string {
		return c.GetString(ContextSessionID)
	})
}

// Search limite les recherches catalogue par IP
func (r *RateLimiter) Search() gin.HandlerFunc {
	return r.window("search_requests:", SearchMaxRequests, "Trop de recherches. Réessayez dans 1 minute", func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// window compte les requêtes par minute
func (r *RateLimiter) window(prefix string, limit int, message string, identify func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identify(c)
		if r.client == nil || id == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := prefix + id

		requests, _ := r.client.Get(ctx, key).Int()
		if requests >= limit {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       message,
				"retry_after": int(windowDuration.Seconds()),
			})
			c.Abort()
			return
		}

		pipe := r.client.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, windowDuration)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Errorf("❌ Rate limit %s: %v", prefix, err)
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", limit-requests-1))
		c.Next()
	}
}

func (r *RateLimiter) cooldown(c *gin.Context, key string) (time.Duration, bool) {
	ctx := c.Request.Context()
	if r.client.Exists(ctx, key).Val() == 0 {
		return 0, false
	}
	return r.client.TTL(ctx, key).Val(), true
}
