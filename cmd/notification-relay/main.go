package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/landhub-backend/internal/bootstrap"
	"github.com/angelmondragon/landhub-backend/internal/notifications"
	"github.com/angelmondragon/landhub-backend/pkg/locks"
	"github.com/angelmondragon/landhub-backend/pkg/metrics"
	"github.com/angelmondragon/landhub-backend/pkg/outbox"
	"github.com/angelmondragon/landhub-backend/pkg/outbox/registry"
)

const (
	serviceName  = "notification-relay"
	relayLockKey = "lh:lock:notification-relay"
	relayLockTTL = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, bootstrap.Options{ServiceName: serviceName, Redis: bootstrap.RedisOptional})
	bootstrap.Exit(ctx, nil, "notification relay bootstrap failed", err)
	ctx = rt.Context(ctx, map[string]any{"serviceKind": serviceName})

	err = run(ctx, rt)
	if cerr := rt.Close(); cerr != nil {
		rt.Logger.Error(ctx, "closing clients", cerr)
	}
	bootstrap.Exit(ctx, rt.Logger, "notification relay stopped unexpectedly", err)
	rt.Logger.Info(ctx, "notification relay shutting down gracefully")
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	// Without Redis a single relay instance is assumed.
	var relayLock locks.Lock
	if rt.Redis != nil {
		lock, err := locks.NewRedisLock(rt.Redis, relayLockKey, relayLockTTL)
		if err != nil {
			return err
		}
		relayLock = lock
	}

	reg := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{
		Config:        rt.Config,
		Logger:        rt.Logger,
		DB:            rt.DB,
		Repository:    outbox.NewRepository(rt.DB.DB()),
		Registry:      registry.NewEventRegistry(),
		DeadLetters:   outbox.NewDeadLetters(),
		Notifications: repositoryWriter{repo: notifications.NewRepository(rt.DB.DB())},
		Metrics:       metrics.NewRelayMetrics(reg),
		Lock:          relayLock,
	})
	if err != nil {
		return err
	}
	bootstrap.ServeMetrics(ctx, ":"+rt.Config.App.Port, reg, rt.Logger)

	rt.Logger.Info(ctx, "starting notification relay")
	return service.Run(ctx)
}
