package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
	"github.com/dmitrijs2005/taskkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// "15m" style strings or integer nanoseconds. Only keys present in the file
// override the current value.
type JsonConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	Storage                      *string         `json:"storage"`
	SecretKey                    *string         `json:"secret_key"`
	SigningMethod                *string         `json:"signing_method"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   *int            `json:"bcrypt_cost"`
	LogLevel                     *string         `json:"log_level"`
	LogFormat                    *string         `json:"log_format"`
	RedisAddr                    *string         `json:"redis_addr"`
	NATSURL                      *string         `json:"nats_url"`
	LoginRateLimit               *int            `json:"login_rate_limit"`
	LoginRateWindow              *timex.Duration `json:"login_rate_window"`
}

// parseJson overlays the file named by -c/-config, if any.
func parseJson(config *Config) error {
	path := flagx.ConfigFilePath()
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var c JsonConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.Storage, c.Storage)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SigningMethod, c.SigningMethod)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.NATSURL, c.NATSURL)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.LoginRateWindow != nil {
		config.LoginRateWindow = c.LoginRateWindow.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.LoginRateLimit != nil {
		config.LoginRateLimit = *c.LoginRateLimit
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
