package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Upload   UploadConfig
	Ingest   IngestConfig
	Market   MarketConfig
	Security SecurityConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// UploadConfig bounds uploaded holdings files.
type UploadConfig struct {
	MaxFileBytes int64
}

// IngestConfig carries the product-tuned ingestion constants. The defaults
// are deliberate; change them only with data to back it up.
type IngestConfig struct {
	// MaxQuantity / MaxPrice are the unit-confusion sanity bounds.
	MaxQuantity float64
	MaxPrice    float64
	// RejectRatio / WarnRatio are the aggregate classification-ambiguity
	// bands over rows below the per-row confidence floor.
	RejectRatio float64
	WarnRatio   float64
	// DriftWarnPercent is how far the normalized allocation sum may stray
	// from 100 before a consistency warning is logged.
	DriftWarnPercent float64
}

// MarketConfig configures the external market-data collaborators.
type MarketConfig struct {
	QuoteBaseURL string
	AmfiNavURL   string
	// RefreshSpec is the cron expression for the daily price/NAV sync.
	RefreshSpec string
}

// SecurityConfig holds encryption settings for stored provider credentials.
type SecurityConfig struct {
	// FernetKey is the base64 fernet key encrypting the market-data
	// provider token at rest. Empty disables the settings endpoint.
	FernetKey string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/portfolio.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Upload: UploadConfig{
			MaxFileBytes: getEnvInt64("UPLOAD_MAX_BYTES", 5<<20),
		},
		Ingest: IngestConfig{
			MaxQuantity:      getEnvFloat("INGEST_MAX_QUANTITY", 1e7),
			MaxPrice:         getEnvFloat("INGEST_MAX_PRICE", 5e5),
			RejectRatio:      getEnvFloat("INGEST_REJECT_RATIO", 0.80),
			WarnRatio:        getEnvFloat("INGEST_WARN_RATIO", 0.20),
			DriftWarnPercent: getEnvFloat("METRICS_DRIFT_WARN_PERCENT", 1.0),
		},
		Market: MarketConfig{
			QuoteBaseURL: getEnv("QUOTE_BASE_URL", "https://query1.finance.yahoo.com"),
			AmfiNavURL:   getEnv("AMFI_NAV_URL", "https://www.amfiindia.com/spages/NAVAll.txt"),
			RefreshSpec:  getEnv("MARKET_REFRESH_CRON", "30 18 * * *"),
		},
		Security: SecurityConfig{
			FernetKey: getEnv("FERNET_KEY", ""),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return defaultValue
}
