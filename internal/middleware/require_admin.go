package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RequireAdmin vérifie que l'utilisateur a le rôle "admin". À placer après AuthRequired.
func RequireAdmin(c *gin.Context) {
	if c.GetString(ContextRole) != "admin" {
		log.WithField("user_id", c.GetString(ContextUserID)).Warn("⚠️ Accès admin refusé")
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
		c.Abort()
		return
	}
	c.Next()
}
