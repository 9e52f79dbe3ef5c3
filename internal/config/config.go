package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServiceID   string
	ServicePort int
	GatewayPort int

	// Storage is "postgres" or "memory".
	Storage      string
	DBHost       string
	DBPort       int
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	DBMaxOpen    int
	DBMaxIdle    int
	CacheEnabled bool
	RedisHost    string
	RedisPort    int
	CacheTTL     time.Duration

	RabbitMQEnabled  bool
	RabbitMQHost     string
	RabbitMQPort     int
	RabbitMQUser     string
	RabbitMQPassword string

	ConsulEnabled bool
	ConsulHost    string
	ConsulPort    int
	// UpstreamURL is the gateway's fallback when Consul has no healthy
	// instance of ServiceName.
	UpstreamURL string

	StatusPolicy string
	SeedSample   bool
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("✅ Loaded .env file")
	}

	return &Config{
		ServiceName: getEnv("ERP_SERVICE_NAME", "erp-service"),
		ServiceID:   getEnv("ERP_SERVICE_ID", "erp-service-1"),
		ServicePort: getEnvInt("ERP_PORT", 8081),
		GatewayPort: getEnvInt("GATEWAY_PORT", 8080),

		Storage:    strings.ToLower(getEnv("ERP_STORAGE", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "minierp"),
		DBPassword: getEnv("DB_PASSWORD", "minierp123"),
		DBName:     getEnv("DB_NAME", "minierp"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBMaxOpen:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdle:  getEnvInt("DB_MAX_IDLE_CONNS", 5),

		CacheEnabled: getEnvBool("CACHE_ENABLED", true),
		RedisHost:    getEnv("REDIS_HOST", "localhost"),
		RedisPort:    getEnvInt("REDIS_PORT", 6379),
		CacheTTL:     getEnvDuration("CACHE_TTL", 30*time.Second),

		RabbitMQEnabled:  getEnvBool("RABBITMQ_ENABLED", true),
		RabbitMQHost:     getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:     getEnvInt("RABBITMQ_PORT", 5672),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),

		ConsulEnabled: getEnvBool("CONSUL_ENABLED", true),
		ConsulHost:    getEnv("CONSUL_HOST", "localhost"),
		ConsulPort:    getEnvInt("CONSUL_PORT", 8500),
		UpstreamURL:   getEnv("ERP_UPSTREAM_URL", "http://erp-service:8081"),

		StatusPolicy: getEnv("ERP_STATUS_POLICY", "unrestricted"),
		SeedSample:   getEnvBool("ERP_SEED_SAMPLE", false),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
