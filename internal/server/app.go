// Package server wires configuration, storage, the auth service and both
// transports into a runnable application with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/events"
	"github.com/dmitrijs2005/taskkeeper/internal/server/gate"
	gs "github.com/dmitrijs2005/taskkeeper/internal/server/grpc"
	hs "github.com/dmitrijs2005/taskkeeper/internal/server/http"
	"github.com/dmitrijs2005/taskkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const defaultJanitorInterval = time.Hour

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	auth    *services.AuthService
	tokens  *services.RefreshTokenManager
	limiter ratelimit.Limiter
	closers []func() error

	janitorInterval time.Duration
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, out io.Writer) (_ *App, err error) {
	logger := logging.New(out, c.LogFormat, c.LogLevel)
	app := &App{config: c, logger: logger, janitorInterval: defaultJanitorInterval}

	defer func() {
		if err != nil {
			app.close()
		}
	}()

	app.repos, err = app.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, app.repos.Close)

	codec, err := auth.NewTokenCodec([]byte(c.SecretKey), c.SigningMethod, c.AccessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	hasher := auth.NewPasswordHasher(c.BcryptCost, 0)
	app.tokens = services.NewRefreshTokenManager(app.repos, c.RefreshTokenValidityDuration)

	hooks := []services.RegistrationHook{services.NewWelcomeTaskHook(app.repos)}
	if c.NATSURL != "" {
		nc, err := events.Connect(c.NATSURL)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() error { return nc.Drain() })
		hooks = append(hooks, events.NewPublisher(nc, events.SubjectUserRegistered))
	}

	app.limiter = app.newLimiter()
	app.auth = services.NewAuthService(app.repos, hasher, codec, app.tokens, logger, hooks...)

	return app, nil
}

func (app *App) openStorage(ctx context.Context) (repomanager.RepositoryManager, error) {
	if app.config.Storage == config.StorageMemory {
		app.logger.Warn(ctx, "using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	}

	db, err := repomanager.OpenPostgres(ctx, app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	m, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

func (app *App) newLimiter() ratelimit.Limiter {
	c := app.config
	switch {
	case c.LoginRateLimit <= 0:
		return ratelimit.Unlimited{}
	case c.RedisAddr != "":
		rdb := goredis.NewClient(&goredis.Options{Addr: c.RedisAddr})
		app.closers = append(app.closers, rdb.Close)
		return ratelimit.NewRedisLimiter(rdb, "", c.LoginRateLimit, c.LoginRateWindow)
	default:
		return ratelimit.NewMemoryLimiter(c.LoginRateLimit, c.LoginRateWindow)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runJanitor deletes expired refresh tokens until ctx is done.
func (app *App) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(app.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.tokens.PurgeExpired(ctx)
			if err != nil {
				app.logger.Error(ctx, "purge expired refresh tokens", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "purged expired refresh tokens", "count", n)
			}
		}
	}
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or
// either server fails. Resources are released before it returns.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	httpSrv := hs.NewServer(app.config.EndpointAddrHTTP, app.auth, gate.New(app.auth), app.limiter, app.logger)
	grpcSrv := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.auth, app.auth, app.limiter)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Run(ctx) })
	g.Go(func() error { return grpcSrv.Run(ctx) })
	g.Go(func() error {
		app.runJanitor(ctx)
		return nil
	})

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(context.Background(), "close", "error", err)
		}
	}
	app.closers = nil
}
