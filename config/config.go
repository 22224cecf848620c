package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TenantModeSchema = "schema"
	TenantModeShared = "shared"
)

type Config struct {
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RabbitURL string
	RedisURL  string

	ClassTypeCacheTTL  time.Duration
	DirectoryCacheSize int
	DirectoryCacheTTL  time.Duration

	TenantMode         string
	TenantSchemaPrefix string
	// Tenants are provisioned at startup in schema mode.
	Tenants []string

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8083"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "scheduling_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RabbitURL: getEnv("RABBITMQ_URL", ""),
		RedisURL:  getEnv("REDIS_URL", ""),

		ClassTypeCacheTTL:  getDuration("CLASS_TYPE_CACHE_TTL", 10*time.Minute),
		DirectoryCacheSize: getInt("DIRECTORY_CACHE_SIZE", 5000),
		DirectoryCacheTTL:  getDuration("DIRECTORY_CACHE_TTL", 5*time.Minute),

		TenantMode:         getEnv("TENANT_MODE", TenantModeSchema),
		TenantSchemaPrefix: getEnv("TENANT_SCHEMA_PREFIX", "tenant_"),
		Tenants:            getList("TENANTS"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
