package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"artisan_storefront/internal/api"
	"artisan_storefront/internal/cache"
	"artisan_storefront/internal/checkout"
	"artisan_storefront/internal/config"
	"artisan_storefront/internal/database"
	"artisan_storefront/internal/handlers"
	"artisan_storefront/internal/middleware"
	"artisan_storefront/internal/payment"
	"artisan_storefront/internal/routes"
	"artisan_storefront/internal/state"
	"artisan_storefront/internal/storage"
	"artisan_storefront/internal/validation"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	sessionIdleTimeout = 2 * time.Hour
	evictionInterval   = 10 * time.Minute
)

func main() {
	settings := config.Load()

	if err := database.ConnectDatabases(settings); err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer database.CloseRedis()

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.RegisterBindings(v); err != nil {
			log.Fatalf("❌ Enregistrement des validateurs: %v", err)
		}
	}

	var backend storage.Backend
	var health gin.HandlerFunc
	if database.Redis != nil {
		backend = storage.NewRedisBackend(database.Redis, settings.CartTTL)
		health = handlers.Health(handlers.PingFunc(func(ctx context.Context) error {
			return database.Redis.Ping(ctx).Err()
		}))
	} else {
		backend = storage.NewMemoryBackend()
		health = handlers.Health(nil)
	}

	sessionSecret := settings.SessionSecret
	if sessionSecret == "" {
		log.Warn("⚠️ SESSION_SECRET manquant, clé éphémère : les sessions ne survivront pas au redémarrage")
		sessionSecret = uuid.NewString() + uuid.NewString()
	}
	if settings.JWTSecret == "" {
		log.Warn("⚠️ JWT_SECRET absent, seule l'expiration des tokens est contrôlée")
	}

	registry := state.NewRegistry(backend, log.StandardLogger())
	client := api.NewClient(settings.BackendURL, settings.BackendTimeout)
	catalog := cache.NewProductCache(client, database.Redis, settings.ProductCacheTTL)
	widget := payment.NewCallbackWidget(log.StandardLogger())
	orchestrator := checkout.NewOrchestrator(client, widget, log.StandardLogger(),
		checkout.WithCartSource(func(ctx context.Context, sessionID string) checkout.Cart {
			return registry.Get(ctx, sessionID).Cart
		}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go registry.RunEviction(ctx, evictionInterval, sessionIdleTimeout)
	go orchestrator.RunPruning(ctx, evictionInterval)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     settings.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Registry:    registry,
		Sessions:    middleware.NewCookieStore(sessionSecret, settings.SecureCookies),
		RateLimiter: middleware.NewRateLimiter(database.Redis),
		JWTSecret:   []byte(settings.JWTSecret),
		Health:      health,
		Cart:        handlers.NewCartHandler(catalog),
		CartStream:  handlers.NewCartStream(backend, settings.AllowedOrigins),
		Auth:        handlers.NewAuthHandler(client, settings.FrontendURL),
		Products:    handlers.NewProductHandler(catalog),
		Orders:      handlers.NewOrderHandler(client),
		Checkout:    handlers.NewCheckoutHandler(orchestrator, widget),
		Admin:       handlers.NewAdminHandler(client, catalog),
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Storefront lancé sur le port %s (backend %s)", settings.Port, settings.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Serveur arrêté: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Arrêt en cours...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("❌ Arrêt forcé: %v", err)
	}
}
