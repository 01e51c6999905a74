package routes

import (
	"net/http"

	"artisan_storefront/internal/handlers"
	"artisan_storefront/internal/middleware"
	"artisan_storefront/internal/state"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// Deps regroupe ce dont la table de routes a besoin
type Deps struct {
	Registry    *state.Registry
	Sessions    sessions.Store
	RateLimiter *middleware.RateLimiter
	JWTSecret   []byte
	Health      gin.HandlerFunc

	Cart       *handlers.CartHandler
	CartStream *handlers.CartStream
	Auth       *handlers.AuthHandler
	Products   *handlers.ProductHandler
	Orders     *handlers.OrderHandler
	Checkout   *handlers.CheckoutHandler
	Admin      *handlers.AdminHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", d.Health)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route introuvable"})
	})

	apiGroup := r.Group("/api", middleware.Session(d.Sessions, d.Registry))
	authRequired := middleware.AuthRequired(d.JWTSecret)

	apiGroup.GET("/state", handlers.SessionState)

	// Panier (invité ou connecté)
	cart := apiGroup.Group("/cart")
	{
		cart.GET("", d.Cart.Get)
		cart.GET("/summary", d.Cart.Summary)
		cart.GET("/ws", d.CartStream.Serve)
		cart.POST("/items", d.RateLimiter.CartAdd(), d.Cart.AddItem)
		cart.PUT("/items/:productId", d.Cart.UpdateItem)
		cart.DELETE("/items/:productId", d.Cart.RemoveItem)
		cart.DELETE("", d.Cart.Clear)
		cart.POST("/sync", d.Cart.Sync)
	}

	auth := apiGroup.Group("/auth")
	{
		auth.POST("/login", d.RateLimiter.Login(), d.Auth.Login)
		auth.POST("/register", d.RateLimiter.Register(), d.Auth.Register)
		auth.GET("/verify-email", d.Auth.VerifyEmail)
		auth.GET("/google", d.Auth.GoogleRedirect)
		auth.GET("/oauth/callback", d.Auth.OAuthCallback)
		auth.POST("/logout", d.Auth.Logout)
		auth.GET("/me", authRequired, d.Auth.Me)
	}

	products := apiGroup.Group("/products")
	{
		products.GET("", d.RateLimiter.Search(), d.Products.List)
		products.GET("/:id", d.Products.Get)
	}

	checkout := apiGroup.Group("/checkout", authRequired)
	{
		checkout.POST("", d.Checkout.Start)
		checkout.GET("/:attemptId", d.Checkout.Get)
		checkout.POST("/:attemptId/payment/success", d.Checkout.PaymentSuccess)
		checkout.POST("/:attemptId/payment/failure", d.Checkout.PaymentFailure)
	}

	orders := apiGroup.Group("/orders", authRequired)
	{
		orders.GET("", d.Orders.List)
		orders.GET("/:id", d.Orders.Get)
	}

	admin := apiGroup.Group("/admin", authRequired, middleware.RequireAdmin)
	{
		admin.GET("/orders", d.Admin.ListOrders)
		admin.GET("/orders/:id", d.Admin.GetOrder)
		admin.PUT("/orders/:id/status",
			middleware.AuditAdminAction(middleware.ActionOrderStatusChange, middleware.ResourceOrder),
			d.Admin.UpdateOrderStatus)
		admin.GET("/products", d.Admin.ListProducts)
		admin.POST("/products",
			middleware.AuditAdminAction(middleware.ActionProductCreate, middleware.ResourceProduct),
			d.Admin.CreateProduct)
		admin.DELETE("/products/:id",
			middleware.AuditAdminAction(middleware.ActionProductDelete, middleware.ResourceProduct),
			d.Admin.DeleteProduct)
	}
}
