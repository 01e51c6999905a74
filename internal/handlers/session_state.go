package handlers

import (
	"net/http"

	"artisan_storefront/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SessionState renvoie les quatre tranches de la session (GET /api/state)
func SessionState(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.AppState(c).Snapshot())
}
