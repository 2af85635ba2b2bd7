// Package config reads the service settings from the environment.
package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Port string

	// SQLite file used when DBHost is empty.
	Database string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	SessionKey    string
	MediaRoot     string
	IndexCacheTTL time.Duration

	LogLevel     string
	LogstashAddr string

	AdminUsername string
	AdminPassword string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:          getenv("PORT", ":8000"),
		Database:      getenv("DATABASE", "yatube.db"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        getenv("DB_PORT", "5432"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBSSLMode:     getenv("DB_SSLMODE", "require"),
		SessionKey:    getenv("SESSION_KEY", "SESSION_KEY"),
		MediaRoot:     getenv("MEDIA_ROOT", "media"),
		LogLevel:      getenv("LOG_LEVEL", "warn"),
		LogstashAddr:  os.Getenv("LOGSTASH_ADDR"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	ttl, err := time.ParseDuration(getenv("INDEX_CACHE_TTL", "1s"))
	if err != nil {
		return nil, fmt.Errorf("INDEX_CACHE_TTL: %w", err)
	}
	cfg.IndexCacheTTL = ttl

	if cfg.Port[0] != ':' {
		cfg.Port = ":" + cfg.Port
	}
	return cfg, nil
}

// PostgresDSN is only meaningful when DBHost is set.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}
