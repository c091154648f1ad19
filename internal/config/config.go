package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	Port string

	// Persistence gateway. Backend is "mongo", "redis" or "memory".
	KVBackend string
	MongoURI  string
	DBName    string
	RedisURL  string

	JWTSecret string

	// External collaborators.
	CatalogServiceURL string
	OrderServiceURL   string
	GeocodeBaseURL    string
	RouteBaseURL      string
	RouteAPIKey       string

	PollInterval time.Duration
	SessionTTL   time.Duration
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		Port:              getEnvOrDefault("PORT", "8085"),
		KVBackend:         getEnvOrDefault("KV_BACKEND", "mongo"),
		MongoURI:          getEnvOrDefault("MONGO_URI", ""),
		DBName:            getEnvOrDefault("DB_NAME", "hatid"),
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379/2"),
		JWTSecret:         getEnvOrDefault("JWT_SECRET", ""),
		CatalogServiceURL: getEnvOrDefault("BUSINESS_SERVICE_URL", "http://localhost:3003"),
		OrderServiceURL:   getEnvOrDefault("ORDER_SERVICE_URL", "http://localhost:3004"),
		GeocodeBaseURL:    getEnvOrDefault("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		RouteBaseURL:      getEnvOrDefault("ROUTE_BASE_URL", "https://api.openrouteservice.org"),
		RouteAPIKey:       getEnvOrDefault("ROUTE_API_KEY", ""),
		PollInterval:      getDurationEnv("ORDER_POLL_INTERVAL", 30, time.Second),
		SessionTTL:        getDurationEnv("SESSION_TTL", 14, 24*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
