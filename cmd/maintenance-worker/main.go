package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/landhub-backend/internal/bootstrap"
	"github.com/angelmondragon/landhub-backend/internal/maintenance"
	"github.com/angelmondragon/landhub-backend/internal/notifications"
	"github.com/angelmondragon/landhub-backend/pkg/locks"
	"github.com/angelmondragon/landhub-backend/pkg/metrics"
	"github.com/angelmondragon/landhub-backend/pkg/outbox"
)

const serviceName = "maintenance-worker"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, bootstrap.Options{ServiceName: serviceName, Redis: bootstrap.RedisRequired})
	bootstrap.Exit(ctx, nil, "maintenance worker bootstrap failed", err)
	ctx = rt.Context(ctx, map[string]any{"serviceKind": serviceName})

	err = run(ctx, rt)
	if cerr := rt.Close(); cerr != nil {
		rt.Logger.Error(ctx, "closing clients", cerr)
	}
	bootstrap.Exit(ctx, rt.Logger, "maintenance worker stopped unexpectedly", err)
	rt.Logger.Info(ctx, "maintenance worker shutting down gracefully")
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	cfg := rt.Config

	// The lease outlives one pass so a slow run is not taken over midway.
	lock, err := locks.NewRedisLock(rt.Redis, lockKey(cfg.App.Env), cfg.Maintenance.Interval+time.Minute)
	if err != nil {
		return fmt.Errorf("maintenance lock: %w", err)
	}
	outboxJob, err := maintenance.NewOutboxRetentionJob(maintenance.OutboxRetentionJobParams{
		DB:               rt.DB,
		Repository:       outbox.NewRepository(rt.DB.DB()),
		RetentionDays:    cfg.Maintenance.OutboxRetentionDays,
		TerminalAttempts: cfg.Relay.MaxAttempts,
	})
	if err != nil {
		return err
	}
	notificationJob, err := maintenance.NewNotificationCleanupJob(
		notifications.NewRepository(rt.DB.DB()),
		cfg.Maintenance.NotificationRetentionDays,
	)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	scheduler, err := maintenance.NewScheduler(maintenance.SchedulerParams{
		Logger:   rt.Logger,
		Jobs:     []maintenance.Job{outboxJob, notificationJob},
		Lock:     lock,
		Metrics:  metrics.NewMaintenanceMetrics(registry),
		Interval: cfg.Maintenance.Interval,
	})
	if err != nil {
		return err
	}
	bootstrap.ServeMetrics(ctx, ":"+cfg.App.Port, registry, rt.Logger)

	rt.Logger.Info(ctx, "starting maintenance worker")
	return scheduler.Run(ctx)
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return "lh:lock:maintenance:" + env
}
