package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	API      APIConfig
	CORS     CORSConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// StorageConfig locates the JSON/CSV documents backing every store.
type StorageConfig struct {
	DataDir string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type APIConfig struct {
	RateLimitRequestsPerSec int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level string
}

const defaultJWTSecret = "change-this-secret-key"

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8000"),
			Env:  getEnv("ENV", "development"),
		},
		Storage: StorageConfig{
			DataDir: getEnv("DATA_DIR", "data"),
		},
		Database: DatabaseConfig{
			// Audit logging to Postgres is only enabled when DB_HOST is set.
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "cinereview"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "cinereview"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", defaultJWTSecret),
			ExpiryHours: getEnvInt("JWT_EXPIRY_HOURS", 24),
		},
		API: APIConfig{
			RateLimitRequestsPerSec: getEnvInt("RATE_LIMIT_REQUESTS_PER_SECOND", 5),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.JWT.Secret == defaultJWTSecret && cfg.IsProduction() {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}
	if cfg.API.RateLimitRequestsPerSec <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS_PER_SECOND must be positive, got %d", cfg.API.RateLimitRequestsPerSec)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// AuditEnabled reports whether moderation actions are mirrored to Postgres.
func (c *Config) AuditEnabled() bool {
	return c.Database.Host != ""
}

// GetDSN is the lib/pq connection string for the audit database.
func (c *Config) GetDSN() string {
	db := c.Database
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.DBName, db.SSLMode)
}

func (c *Config) GetRedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, c.Redis.Port)
}

func (c *Config) UsersFile() string     { return filepath.Join(c.Storage.DataDir, "users.json") }
func (c *Config) ReportsFile() string   { return filepath.Join(c.Storage.DataDir, "reports.json") }
func (c *Config) PenaltiesFile() string { return filepath.Join(c.Storage.DataDir, "penalties.json") }
func (c *Config) RatingsFile() string   { return filepath.Join(c.Storage.DataDir, "ratings.json") }
func (c *Config) MovieDataDir() string  { return filepath.Join(c.Storage.DataDir, "movieData") }

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// getEnvInt falls back when the variable is unset or not an integer.
func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

// splitList parses a comma separated list, dropping blanks.
func splitList(raw string) []string {
	out := []string{}
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
