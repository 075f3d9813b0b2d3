// Package bootstrap wires the process-level dependencies every LandHub binary
// starts with: environment, config, logger, database and Redis.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/landhub-backend/pkg/config"
	"github.com/angelmondragon/landhub-backend/pkg/db"
	"github.com/angelmondragon/landhub-backend/pkg/logger"
	"github.com/angelmondragon/landhub-backend/pkg/migrate"
	"github.com/angelmondragon/landhub-backend/pkg/redis"
)

// RedisMode says whether a binary needs Redis.
type RedisMode int

const (
	RedisNone RedisMode = iota
	// RedisOptional connects only when an address is configured.
	RedisOptional
	RedisRequired
)

type Options struct {
	ServiceName string
	Redis       RedisMode
	// SkipMigrations disables the dev auto-migrate hook.
	SkipMigrations bool
}

// Runtime holds the shared clients of one process. Redis is nil unless it
// was requested and configured.
type Runtime struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client
	Redis  *redis.Client

	closers []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

// Load reads .env (if present) and the environment, and builds the service
// logger.
func Load(serviceName string) (*config.Config, *logger.Logger, error) {
	boot := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		boot.Debug(context.Background(), ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, boot, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	}), nil
}

// Start loads config and opens the clients opts asks for. On error every
// client opened so far is closed again.
func Start(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, logg, err := Load(opts.ServiceName)
	if err != nil {
		return nil, err
	}
	return Connect(ctx, cfg, logg, opts)
}

// Connect opens the clients for an already loaded config.
func Connect(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts Options) (_ *Runtime, err error) {
	rt := &Runtime{Config: cfg, Logger: logg}
	defer func() {
		if err != nil {
			err = multierr.Append(err, rt.Close())
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	rt.DB = dbClient
	rt.closers = append(rt.closers, namedCloser{"database", dbClient})

	// Only dev deployments migrate on boot; elsewhere cmd/migrate owns the schema.
	if !opts.SkipMigrations && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate {
		if err := migrate.AutoRun(ctx, dbClient.DB(), logg); err != nil {
			return nil, fmt.Errorf("dev migrations: %w", err)
		}
	}

	configured := cfg.Redis.URL != "" || cfg.Redis.Address != ""
	if opts.Redis == RedisRequired || (opts.Redis == RedisOptional && configured) {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		rt.Redis = redisClient
		rt.closers = append(rt.closers, namedCloser{"redis", redisClient})
	}
	return rt, nil
}

// Context returns ctx annotated with the fields every entry of this process
// carries.
func (rt *Runtime) Context(ctx context.Context, fields map[string]any) context.Context {
	base := map[string]any{"env": rt.Config.App.Env}
	for k, v := range fields {
		base[k] = v
	}
	return rt.Logger.WithFields(ctx, base)
}

// Close releases clients in reverse open order and returns every failure.
func (rt *Runtime) Close() error {
	var err error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		nc := rt.closers[i]
		if cerr := nc.c.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", nc.name, cerr))
		}
	}
	rt.closers = nil
	return err
}

// Exit logs err and terminates the process. A nil err or a cancelled
// context is a clean shutdown.
func Exit(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	if logg == nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	} else {
		for _, e := range multierr.Errors(err) {
			logg.Error(ctx, msg, e)
		}
	}
	os.Exit(1)
}
