package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger vérifie la disponibilité du stockage
type Pinger interface {
	Ping(ctx context.Context) error
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// PingFunc adapte une fonction en Pinger
func PingFunc(f func(ctx context.Context) error) Pinger {
	return pingFunc(f)
}

// Health renvoie l'état du service ; pinger peut être nil (driver mémoire).
func Health(pinger Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok", "storage": "memory"}
		if pinger != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "storage": "redis", "error": err.Error()})
				return
			}
			status["storage"] = "redis"
		}
		c.JSON(http.StatusOK, status)
	}
}
