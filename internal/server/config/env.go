package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "TASKKEEPER_"

// parseEnv loads the dotenv file (the -env flag, or ./.env when present)
// without overriding variables already set in the process, then overlays
// every TASKKEEPER_* variable onto config.
func parseEnv(config *Config) error {
	path := flagx.EnvFilePath()
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	return applyEnv(config, os.LookupEnv)
}

func applyEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(envPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("GRPC_ADDR", &config.EndpointAddrGRPC)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("STORAGE", &config.Storage)
	str("SECRET_KEY", &config.SecretKey)
	str("SIGNING_METHOD", &config.SigningMethod)
	dur("ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)
	dur("REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration)
	num("BCRYPT_COST", &config.BcryptCost)
	str("LOG_LEVEL", &config.LogLevel)
	str("LOG_FORMAT", &config.LogFormat)
	str("REDIS_ADDR", &config.RedisAddr)
	str("NATS_URL", &config.NATSURL)
	num("LOGIN_RATE_LIMIT", &config.LoginRateLimit)
	dur("LOGIN_RATE_WINDOW", &config.LoginRateWindow)

	return errors.Join(errs...)
}
