package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Settings struct {
	Port           string
	BackendURL     string
	BackendTimeout time.Duration
	FrontendURL    string
	AllowedOrigins []string

	StorageDriver string // "redis" ou "memory"
	RedisHost     string
	RedisPassword string
	CartTTL       time.Duration

	ProductCacheTTL time.Duration

	SessionSecret string
	SecureCookies bool
	JWTSecret     string

	LogLevel string
}

func Load() Settings {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	settings := fromViper(v)
	configureLogging(settings.LogLevel)
	return settings
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("BACKEND_URL", "http://localhost:5000/api")
	v.SetDefault("BACKEND_TIMEOUT", "15s")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("STORAGE_DRIVER", "redis")
	v.SetDefault("REDIS_HOST", "localhost:6379")
	v.SetDefault("CART_TTL", "720h") // 30 jours
	v.SetDefault("PRODUCT_CACHE_TTL", "2m")
	v.SetDefault("SECURE_COOKIES", false)
	v.SetDefault("LOG_LEVEL", "info")
}

func fromViper(v *viper.Viper) Settings {
	var origins []string
	for _, o := range strings.Split(v.GetString("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Settings{
		Port:            v.GetString("PORT"),
		BackendURL:      strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
		BackendTimeout:  v.GetDuration("BACKEND_TIMEOUT"),
		FrontendURL:     strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		AllowedOrigins:  origins,
		StorageDriver:   strings.ToLower(v.GetString("STORAGE_DRIVER")),
		RedisHost:       v.GetString("REDIS_HOST"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		CartTTL:         v.GetDuration("CART_TTL"),
		ProductCacheTTL: v.GetDuration("PRODUCT_CACHE_TTL"),
		SessionSecret:   v.GetString("SESSION_SECRET"),
		SecureCookies:   v.GetBool("SECURE_COOKIES"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		LogLevel:        v.GetString("LOG_LEVEL"),
	}
}

func configureLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("⚠️ LOG_LEVEL invalide %q, on garde info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
