package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port string

	DBType     string // postgres, mysql or sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string // sqlite only
	DBLogLevel string

	RedisAddr      string
	LeaderboardTTL time.Duration
	QuizCacheTTL   time.Duration

	JWTSecret      string
	AllowedOrigins []string

	// ExpirySweep is a cron spec for expiring overdue attempts. "off" disables it.
	ExpirySweep string

	SeedAchievements bool
}

// Load reads configuration from .env and the environment with defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBType:           strings.ToLower(getEnv("DB_TYPE", "postgres")),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBName:           getEnv("DB_NAME", "quiz_engine"),
		DBPath:           getEnv("DB_PATH", "./quiz_engine.db"),
		DBLogLevel:       getEnv("DB_LOG_LEVEL", "warn"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		LeaderboardTTL:   getEnvDuration("LEADERBOARD_TTL", 5*time.Minute),
		QuizCacheTTL:     getEnvDuration("QUIZ_CACHE_TTL", 24*time.Hour),
		JWTSecret:        getEnv("JWT_SECRET", "defaultSecret"),
		AllowedOrigins:   strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		ExpirySweep:      getEnv("EXPIRY_SWEEP", "@every 1m"),
		SeedAchievements: getEnvBool("SEED_ACHIEVEMENTS", true),
	}

	if cfg.JWTSecret == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET. Update it in your environment.")
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to duration: %v", key, err)
		return defaultValue
	}
	return parsed
}
