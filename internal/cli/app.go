package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/stagehand/internal/config"
	"github.com/aretw0/stagehand/pkg/adapters/throttle"
	"github.com/aretw0/stagehand/pkg/observability"
	"github.com/aretw0/stagehand/pkg/ports"
	"github.com/aretw0/stagehand/pkg/router"
	"github.com/aretw0/stagehand/pkg/scene"
	"github.com/aretw0/stagehand/pkg/schedule"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is a router wired to its stores, scheduler and metrics registry.
type App struct {
	Router   *router.Router
	Stores   *Stores
	Registry *prometheus.Registry

	timer  *schedule.Timer
	logger *slog.Logger
}

// NewApp opens the configured stores and builds a router over transport.
// The transport is rate limited when throttling is enabled.
func NewApp(ctx context.Context, cfg *config.Config, transport ports.Transport, logger *slog.Logger, entries ...scene.Entry) (*App, error) {
	stores, err := OpenStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewPrometheusObserver(registry)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}

	if cfg.Throttle.Enabled {
		transport = throttle.New(transport,
			throttle.WithChatRate(cfg.Throttle.RPS, cfg.Throttle.Burst),
			throttle.WithGlobalRate(cfg.Throttle.GlobalRPS, cfg.Throttle.GlobalBurst),
		)
	}

	timer := schedule.NewTimer(schedule.WithLogger(logger))
	opts := []router.Option{
		router.WithLogger(logger),
		router.WithObserver(observability.NewMultiObserver(observability.NewSlogObserver(logger), metrics)),
		router.WithScheduler(timer),
		router.WithMetadataTTL(cfg.Metadata.TTL),
	}
	if cfg.DeleteUnhandled {
		opts = append(opts, router.WithDeleteUnhandled())
	}

	r, err := router.NewBuilder(transport, stores.Sessions, stores.Metadata, opts...).
		Register(entries...).
		Build()
	if err != nil {
		_ = stores.Close()
		return nil, err
	}

	return &App{
		Router:   r,
		Stores:   stores,
		Registry: registry,
		timer:    timer,
		logger:   logger,
	}, nil
}

// Shutdown waits for scheduled tasks until ctx is done, then closes the stores.
func (a *App) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.timer.Wait()
		close(done)
	}()

	var waitErr error
	select {
	case <-done:
	case <-ctx.Done():
		waitErr = ctx.Err()
		a.logger.Warn("Scheduled tasks still pending at shutdown", "err", waitErr)
	}
	return errors.Join(waitErr, a.Stores.Close())
}
