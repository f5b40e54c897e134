package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/legionkimitri/authd/pkg/jwtx"
)

type Config struct {
	Issuer string // Issuer claim stamped into every token (default: authd)

	// The three key materials. Access and refresh signing secrets must
	// differ from each other and from the OTP master key.
	AccessSecret  string // Required: HS256 secret for access tokens
	RefreshSecret string // Required: HS256 secret for refresh tokens
	OTPMasterKey  string // Required: base64 AES key sealing OTP secrets and refresh records

	AccessTTL  time.Duration // Access token lifetime (default: 1h)
	RefreshTTL time.Duration // Refresh token lifetime (default: 30 days)

	DatabaseFile string // Path to the SQLite database file (default: ./authd.db)
	BcryptCost   int    // Password hash cost factor (default: 10)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)

	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-record cleanup interval (default: 1h)
}

// LoadConfig reads configuration from the environment, loading a .env
// file first if one is present.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Issuer:        getEnvOrDefault("AUTHD_ISSUER", "authd"),
		AccessSecret:  os.Getenv("AUTHD_ACCESS_SECRET"),
		RefreshSecret: os.Getenv("AUTHD_REFRESH_SECRET"),
		OTPMasterKey:  os.Getenv("AUTHD_OTP_MASTER_KEY"),

		AccessTTL:  getEnvDurationOrDefault("AUTHD_ACCESS_TTL", jwtx.DefaultAccessTTL),
		RefreshTTL: getEnvDurationOrDefault("AUTHD_REFRESH_TTL", jwtx.DefaultRefreshTTL),

		DatabaseFile: getEnvOrDefault("AUTHD_DATABASE_FILE", "authd.db"),
		BcryptCost:   getEnvIntOrDefault("AUTHD_BCRYPT_COST", 0),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),

		ShutdownGracePeriod:  getEnvDurationOrDefault("AUTHD_SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("AUTHD_HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// Validate rejects configurations that would silently weaken the token
// scheme. The OTP master key itself is validated when the envelope is
// built.
func (c Config) Validate() error {
	if c.AccessSecret == "" {
		return errors.New("AUTHD_ACCESS_SECRET is required")
	}
	if c.RefreshSecret == "" {
		return errors.New("AUTHD_REFRESH_SECRET is required")
	}
	if c.OTPMasterKey == "" {
		return errors.New("AUTHD_OTP_MASTER_KEY is required")
	}
	if c.AccessSecret == c.RefreshSecret {
		return errors.New("access and refresh signing secrets must differ")
	}
	if c.AccessSecret == c.OTPMasterKey || c.RefreshSecret == c.OTPMasterKey {
		return errors.New("signing secrets must differ from the OTP master key")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
