package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	ActionOrderStatusChange = "order_status_change"
	ActionProductCreate     = "product_create"
	ActionProductDelete     = "product_delete"

	ResourceOrder   = "order"
	ResourceProduct = "product"
)

// AuditAdminAction trace chaque action du back-office après traitement,
// réussie ou non, avec l'identité de l'admin.
func AuditAdminAction(action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"audit":       true,
			"action":      action,
			"resource":    resource,
			"resource_id": c.Param("id"),
			"user_id":     c.GetString(ContextUserID),
			"ip":          c.ClientIP(),
			"status":      c.Writer.Status(),
			"duration":    time.Since(start).String(),
		})

		if status := c.Writer.Status(); status >= 200 && status < 300 {
			entry.Info("📝 Action admin")
		} else {
			entry.Warn("⚠️ Action admin échouée")
		}
	}
}
