package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DB        DBConfig
	JWT       JWTConfig
	Server    ServerConfig
	Documents DocumentsConfig
	Seed      SeedConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port        string
	APIPrefix   string
	CORSOrigins string
}

type DocumentsConfig struct {
	// Types is the known document-type vocabulary. It has grown over the
	// system's life, so it is configuration rather than a hard-coded enum.
	Types []string
}

type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "trainerhub"),
			Password: getEnv("DB_PASSWORD", "trainerhub_secret"),
			Name:     getEnv("DB_NAME", "trainerhub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 2),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			APIPrefix:   getEnv("API_PREFIX", "/api"),
			CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000"),
		},
		Documents: DocumentsConfig{
			Types: getEnvAsSlice("DOC_TYPES", []string{"training", "diet", "supp", "stretch"}),
		},
		Seed: SeedConfig{
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@rf.com"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	var parts []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
