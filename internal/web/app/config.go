package app

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/budgetwise/internal/web/session"
	"github.com/aussiebroadwan/budgetwise/pkg/budgetsdk"
	"github.com/joho/godotenv"
)

type Config struct {
	APIURL           string        // Optional: Budgetwise API base URL (default: http://localhost:5000/api)
	IdentityAPIKey   string        // Required: web API key of the identity project
	IdentityBaseURL  string        // Optional: Identity Toolkit base URL override, e.g. an emulator
	IdentityTokenURL string        // Optional: Secure Token base URL override
	DatabaseFile     string        // Optional: path to SQLite database file (default: ./budgetwise.db)
	MasterKeyPath    string        // Optional: path to the key sealing tokens at rest (default: ./budgetwise.key)
	Env              string        // Environment (dev, staging, prod) (default: dev)
	LogLevel         string        // Log level (debug, info, warn, error) (default: info)
	LogFormat        string        // Log format (json, text) (default: json)
	Host             string        // Interface to listen on (default: 127.0.0.1)
	Port             int           // HTTP server port (default: 3000)
	RequestTimeout   time.Duration // Per-call timeout for backend requests (default: 10s)
	RefreshInterval  time.Duration // Token keep-alive interval, 0 disables (default: 5m)

	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads the environment, after loading .env from the working
// directory if there is one.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	return Config{
		APIURL:              getEnvOrDefault("BUDGETWISE_API_URL", budgetsdk.DefaultBaseURL),
		IdentityAPIKey:      os.Getenv("IDENTITY_API_KEY"),
		IdentityBaseURL:     os.Getenv("IDENTITY_BASE_URL"),
		IdentityTokenURL:    os.Getenv("IDENTITY_TOKEN_URL"),
		DatabaseFile:        getEnvOrDefault("DATABASE_FILE", "budgetwise.db"),
		MasterKeyPath:       getEnvOrDefault("MASTER_KEY_PATH", "budgetwise.key"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Host:                getEnvOrDefault("HOST", "127.0.0.1"),
		Port:                getEnvIntOrDefault("PORT", 3000),
		RequestTimeout:      getEnvDurationOrDefault("REQUEST_TIMEOUT", budgetsdk.DefaultTimeout),
		RefreshInterval:     getEnvDurationOrDefault("TOKEN_REFRESH_INTERVAL", session.DefaultRefreshInterval),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}, nil
}

// Validate reports every problem with cfg at once.
func (c Config) Validate() error {
	var errs []error

	if c.IdentityAPIKey == "" {
		errs = append(errs, errors.New("IDENTITY_API_KEY is required"))
	}
	if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("BUDGETWISE_API_URL %q is not an http(s) URL", c.APIURL))
	}
	if c.DatabaseFile == "" {
		errs = append(errs, errors.New("DATABASE_FILE must not be empty"))
	}
	if c.MasterKeyPath == "" {
		errs = append(errs, errors.New("MASTER_KEY_PATH must not be empty"))
	}
	if c.Host == "" {
		errs = append(errs, errors.New("HOST must not be empty"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.RefreshInterval < 0 {
		errs = append(errs, errors.New("TOKEN_REFRESH_INTERVAL must not be negative"))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
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

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
