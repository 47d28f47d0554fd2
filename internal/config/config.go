package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything a service process needs. It is built once in
// main and passed by reference into constructors; nothing reads the
// environment after startup.
type Config struct {
	ServerAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Connection pool ceiling and how long a caller may wait for a
	// connection before the request fails as unavailable.
	DBMaxConns       int
	DBAcquireTimeout time.Duration

	JWTSecret string

	AdminEmail    string
	AdminPassword string

	RedisAddr string

	LogLevel    string
	CORSOrigins []string
}

// LoadUserService loads configuration for the identity service.
func LoadUserService() *Config {
	return &Config{
		ServerAddr:       getEnvOrDefault("USER_SERVICE_ADDR", ":5000"),
		DBHost:           getEnvOrDefault("USER_DB_HOST", "localhost"),
		DBPort:           getEnvOrDefault("USER_DB_PORT", "5432"),
		DBUser:           getEnvOrDefault("USER_DB_USER", "postgres"),
		DBPassword:       getEnvOrDefault("USER_DB_PASSWORD", "postgres"),
		DBName:           getEnvOrDefault("USER_DB_NAME", "users"),
		DBMaxConns:       getEnvInt("USER_DB_MAX_CONNS", 5),
		DBAcquireTimeout: getEnvDuration("USER_DB_ACQUIRE_TIMEOUT", 30*time.Second),
		JWTSecret:        getEnvOrDefault("JWT_SECRET", generateDefaultSecret()),
		AdminEmail:       getEnvOrDefault("ADMIN_EMAIL", "admin@email.com"),
		AdminPassword:    getEnvOrDefault("ADMIN_PASSWORD", "admin123"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		CORSOrigins:      getEnvList("CORS_ORIGINS", "*"),
	}
}

// LoadTaskService loads configuration for the task service.
func LoadTaskService() *Config {
	return &Config{
		ServerAddr:       getEnvOrDefault("TASK_SERVICE_ADDR", ":3000"),
		DBHost:           getEnvOrDefault("TASK_DB_HOST", "localhost"),
		DBPort:           getEnvOrDefault("TASK_DB_PORT", "5432"),
		DBUser:           getEnvOrDefault("TASK_DB_USER", "postgres"),
		DBPassword:       getEnvOrDefault("TASK_DB_PASSWORD", "postgres"),
		DBName:           getEnvOrDefault("TASK_DB_NAME", "tasks"),
		DBMaxConns:       getEnvInt("TASK_DB_MAX_CONNS", 20),
		DBAcquireTimeout: getEnvDuration("TASK_DB_ACQUIRE_TIMEOUT", 2*time.Second),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		CORSOrigins:      getEnvList("CORS_ORIGINS", "*"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnvOrDefault(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func generateDefaultSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "dev-secret-change-in-production"
	}
	return hex.EncodeToString(bytes)
}
