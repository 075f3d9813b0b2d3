package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/landhub-backend/api/routes"
	"github.com/angelmondragon/landhub-backend/internal/bids"
	"github.com/angelmondragon/landhub-backend/internal/bootstrap"
	"github.com/angelmondragon/landhub-backend/internal/documents"
	"github.com/angelmondragon/landhub-backend/internal/fanout"
	"github.com/angelmondragon/landhub-backend/internal/listings"
	"github.com/angelmondragon/landhub-backend/internal/messages"
	"github.com/angelmondragon/landhub-backend/internal/notifications"
	"github.com/angelmondragon/landhub-backend/internal/offers"
	"github.com/angelmondragon/landhub-backend/pkg/locks"
	"github.com/angelmondragon/landhub-backend/pkg/metrics"
	"github.com/angelmondragon/landhub-backend/pkg/outbox"
)

const (
	serviceName     = "api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, bootstrap.Options{ServiceName: serviceName, Redis: bootstrap.RedisRequired})
	bootstrap.Exit(ctx, nil, "api bootstrap failed", err)

	err = serve(ctx, rt)
	if cerr := rt.Close(); cerr != nil {
		rt.Logger.Error(ctx, "closing clients", cerr)
	}
	bootstrap.Exit(ctx, rt.Logger, "api server stopped unexpectedly", err)
}

// serve runs the HTTP server until ctx is cancelled, then drains requests and
// the notification dispatcher.
func serve(ctx context.Context, rt *bootstrap.Runtime) error {
	cfg, logg := rt.Config, rt.Logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dispatcher, err := newDispatcher(rt, metrics.NewFanoutMetrics(reg))
	if err != nil {
		return err
	}
	dispatcher.Start()

	ledgerMetrics := metrics.NewLedgerMetrics(reg)
	listingLocks := locks.NewKeyedMutex()
	listingsService, err := listings.NewService(
		listings.NewRepository(rt.DB.DB()),
		rt.DB,
		listingLocks,
		cfg.Bidding.DefaultMinIncrement,
	)
	if err != nil {
		return fmt.Errorf("listings service: %w", err)
	}
	bidRepo := bids.NewRepository(rt.DB.DB())
	offersService, err := offers.NewService(
		offers.NewRepository(rt.DB.DB()),
		bidRepo,
		rt.DB,
		listingsService,
		listingLocks,
		dispatcher,
		offers.Options{MaxCASRetries: cfg.Bidding.MaxCASRetries, Metrics: ledgerMetrics, Logger: logg},
	)
	if err != nil {
		return fmt.Errorf("offers service: %w", err)
	}
	bidsService, err := bids.NewService(
		bidRepo,
		rt.DB,
		listingsService,
		offersService,
		listingLocks,
		dispatcher,
		bids.Options{MaxCASRetries: cfg.Bidding.MaxCASRetries, Metrics: ledgerMetrics, Logger: logg},
	)
	if err != nil {
		return fmt.Errorf("bids service: %w", err)
	}
	notificationsService, err := notifications.NewService(notifications.NewRepository(rt.DB.DB()))
	if err != nil {
		return fmt.Errorf("notifications service: %w", err)
	}
	messagesService, err := messages.NewService(messages.NewRepository(rt.DB.DB()), listingsService)
	if err != nil {
		return fmt.Errorf("messages service: %w", err)
	}
	documentsService, err := documents.NewService(documents.NewRepository(rt.DB.DB()), listingsService)
	if err != nil {
		return fmt.Errorf("documents service: %w", err)
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			rt.DB,
			rt.Redis,
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			listingsService,
			bidsService,
			offersService,
			notificationsService,
			messagesService,
			documentsService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logCtx := rt.Context(ctx, map[string]any{"addr": addr, "realtime": cfg.FeatureFlags.Realtime})

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		serverErr <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(logCtx, "api server shutdown failed", err)
	}
	// Queued notifications are drained after the last request has committed.
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logg.Error(logCtx, "fanout dispatcher did not drain", err)
	}
	return runErr
}

// newDispatcher always writes to the outbox and, with realtime enabled, also
// publishes to Redis.
func newDispatcher(rt *bootstrap.Runtime, m *metrics.FanoutMetrics) (*fanout.Dispatcher, error) {
	outboxSink, err := fanout.NewOutboxSink(rt.DB, outbox.NewEmitter(outbox.NewRepository(rt.DB.DB()), rt.Logger))
	if err != nil {
		return nil, fmt.Errorf("outbox sink: %w", err)
	}
	sinks := fanout.MultiSink{outboxSink}
	if rt.Config.FeatureFlags.Realtime {
		redisSink, err := fanout.NewRedisSink(rt.Redis, rt.Config.Fanout.ChannelPrefix)
		if err != nil {
			return nil, fmt.Errorf("realtime sink: %w", err)
		}
		sinks = append(sinks, redisSink)
	}
	return fanout.NewDispatcher(rt.Config.Fanout, sinks, rt.Logger, m)
}
