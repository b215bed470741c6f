package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	RedisAddr  string
	ServerAddr string
	JWTSecret  string
	CORSOrigin string
}

func LoadConfig() *Config {
	godotenv.Load()
	cfg := &Config{
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASS"),
		DBName:     getenv("DB_NAME", "devspace"),
		RedisAddr:  getenv("REDIS_ADDR", "localhost:6379"),
		ServerAddr: getenv("PORT", ":8080"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		CORSOrigin: getenv("CORS_ORIGIN", "http://localhost:3000"),
	}
	return cfg
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
