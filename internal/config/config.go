package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT (shared secret with the external auth service; validate-only here)
	JWTSecret string

	// Remote inference function
	InferenceURL string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Port:         getEnvOrDefault("PORT", "8080"),
		Env:          getEnvOrDefault("ENV", "development"),
		DatabaseURL:  mustGetEnv("DATABASE_URL"),
		RedisURL:     mustGetEnv("REDIS_URL"),
		JWTSecret:    mustGetEnv("JWT_SECRET"),
		InferenceURL: mustGetEnv("INFERENCE_URL"),
		FrontendURL:  getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}
