package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		APIURL:              "http://localhost:5000/api",
		IdentityAPIKey:      "key",
		DatabaseFile:        "budgetwise.db",
		MasterKeyPath:       "budgetwise.key",
		Host:                "127.0.0.1",
		Port:                3000,
		RequestTimeout:      10 * time.Second,
		RefreshInterval:     5 * time.Minute,
		ShutdownGracePeriod: 10 * time.Second,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"refresh disabled", func(c *Config) { c.RefreshInterval = 0 }, ""},
		{"missing api key", func(c *Config) { c.IdentityAPIKey = "" }, "IDENTITY_API_KEY is required"},
		{"relative api url", func(c *Config) { c.APIURL = "/api" }, "BUDGETWISE_API_URL"},
		{"non-http api url", func(c *Config) { c.APIURL = "ftp://example.com/api" }, "BUDGETWISE_API_URL"},
		{"empty host", func(c *Config) { c.Host = "" }, "HOST must not be empty"},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "PORT 70000 is out of range"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "REQUEST_TIMEOUT"},
		{"negative refresh", func(c *Config) { c.RefreshInterval = -time.Second }, "TOKEN_REFRESH_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	t.Parallel()

	err := Config{}.Validate()
	require.ErrorContains(t, err, "IDENTITY_API_KEY")
	require.ErrorContains(t, err, "BUDGETWISE_API_URL")
	require.ErrorContains(t, err, "PORT")
}

func TestLoadConfig(t *testing.T) {
	for _, key := range []string{
		"BUDGETWISE_API_URL", "DATABASE_FILE", "MASTER_KEY_PATH", "HOST", "PORT",
		"REQUEST_TIMEOUT", "SHUTDOWN_GRACE_PERIOD",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("IDENTITY_API_KEY", "abc")
	t.Setenv("TOKEN_REFRESH_INTERVAL", "90")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:5000/api", cfg.APIURL)
	require.Equal(t, "abc", cfg.IdentityAPIKey)
	require.Equal(t, "budgetwise.db", cfg.DatabaseFile)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, "127.0.0.1:3000", cfg.Addr(), "loopback only unless HOST says otherwise")
	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
	require.Equal(t, 90*time.Second, cfg.RefreshInterval)
	require.Equal(t, "text", cfg.LogFormat)
	require.NoError(t, cfg.Validate())
}

func TestGetEnvDurationOrDefault(t *testing.T) {
	t.Setenv("TEST_DURATION", "2m")
	require.Equal(t, 2*time.Minute, getEnvDurationOrDefault("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "0")
	require.Equal(t, time.Duration(0), getEnvDurationOrDefault("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "soon")
	require.Equal(t, time.Second, getEnvDurationOrDefault("TEST_DURATION", time.Second))
}

func TestAddr(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.Equal(t, "127.0.0.1:3000", cfg.Addr())

	cfg.Host = "0.0.0.0"
	cfg.Port = 8080
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())

	cfg.Host = "::1"
	require.Equal(t, "[::1]:8080", cfg.Addr())
}
