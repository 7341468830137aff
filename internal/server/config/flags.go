package config

import (
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
)

var knownFlags = []string{
	"-a", "-g", "-d", "-s", "-m", "-t", "-r", "-b", "-l", "-f",
	"-storage", "-redis", "-nats", "-login-limit", "-login-window",
}

// parseFlags overlays command-line flags. Only the flags listed in
// knownFlags are looked at; durations use Go syntax ("15m", "720h").
//
//	-a  HTTP bind address        -g  gRPC bind address
//	-d  PostgreSQL DSN           -s  JWT secret key
//	-m  JWT signing method       -t  access token validity
//	-r  refresh token validity   -b  bcrypt cost
//	-l  log level                -f  log format (json, text, console)
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("taskkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.SigningMethod, "m", config.SigningMethod, "JWT signing method")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token validity")
	fs.DurationVar(&config.RefreshTokenValidityDuration, "r", config.RefreshTokenValidityDuration, "refresh token validity")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")
	fs.StringVar(&config.Storage, "storage", config.Storage, "storage backend: postgres or memory")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address for login throttling")
	fs.StringVar(&config.NATSURL, "nats", config.NATSURL, "NATS URL for registration events")
	fs.IntVar(&config.LoginRateLimit, "login-limit", config.LoginRateLimit, "login attempts per window, 0 disables")
	fs.DurationVar(&config.LoginRateWindow, "login-window", config.LoginRateWindow, "login rate window")

	return fs.Parse(args)
}
