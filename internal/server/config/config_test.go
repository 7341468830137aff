package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, StoragePostgres, c.Storage)
	assert.Equal(t, "HS256", c.SigningMethod)
	assert.Equal(t, time.Hour, c.AccessTokenValidityDuration)
	assert.Equal(t, 30*24*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, 12, c.BcryptCost)
	assert.Equal(t, 10, c.LoginRateLimit)
	assert.Empty(t, c.RedisAddr)
	assert.Empty(t, c.NATSURL)
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "empty secret", mutate: func(c *Config) { c.SecretKey = "" }, wantErr: "secret key"},
		{name: "rsa method", mutate: func(c *Config) { c.SigningMethod = "RS256" }, wantErr: "unsupported signing method"},
		{name: "zero access ttl", mutate: func(c *Config) { c.AccessTokenValidityDuration = 0 }, wantErr: "access token validity"},
		{name: "negative refresh ttl", mutate: func(c *Config) { c.RefreshTokenValidityDuration = -time.Second }, wantErr: "refresh token validity"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage = "mongo" }, wantErr: "unknown storage"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.DatabaseDSN = "" }, wantErr: "database DSN"},
		{name: "rate window missing", mutate: func(c *Config) { c.LoginRateWindow = 0 }, wantErr: "login rate window"},
		{name: "memory without dsn is fine", mutate: func(c *Config) { c.Storage = StorageMemory; c.DatabaseDSN = "" }},
		{name: "limiter disabled ignores window", mutate: func(c *Config) { c.LoginRateLimit = 0; c.LoginRateWindow = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Chdir(t.TempDir())

	t.Setenv("TASKKEEPER_HTTP_ADDR", ":7000")
	t.Setenv("TASKKEEPER_SECRET_KEY", "from-env")
	t.Setenv("TASKKEEPER_LOG_LEVEL", "debug")

	path := writeTempJSON(t, "", "", map[string]any{
		"secret_key":   "from-json",
		"bcrypt_cost":  10,
		"storage":      "memory",
		"database_dsn": "",
	})
	os.Args = []string{"taskkeeper", "-c", path, "-b", "11"}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.EndpointAddrHTTP)
	assert.Equal(t, "from-json", cfg.SecretKey)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 11, cfg.BcryptCost)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Empty(t, cfg.DatabaseDSN)
}

func TestLoadConfig_InvalidResult(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Chdir(t.TempDir())

	os.Args = []string{"taskkeeper", "-m", "none"}

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported signing method")
}
