package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/pdv-terminal/api/routes"
	"github.com/angelmondragon/pdv-terminal/internal/auth"
	"github.com/angelmondragon/pdv-terminal/internal/catalog"
	"github.com/angelmondragon/pdv-terminal/internal/sales"
	"github.com/angelmondragon/pdv-terminal/internal/terminal"
	"github.com/angelmondragon/pdv-terminal/pkg/config"
	"github.com/angelmondragon/pdv-terminal/pkg/logger"
	"github.com/angelmondragon/pdv-terminal/pkg/metrics"
	"github.com/angelmondragon/pdv-terminal/pkg/pagination"
	"github.com/angelmondragon/pdv-terminal/pkg/pdvapi"
	"github.com/angelmondragon/pdv-terminal/pkg/redis"
)

const serviceName = "pdv-terminal"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "pdv terminal stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	terminalMetrics := metrics.NewTerminalMetrics(registry)

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}
	now := func() time.Time { return time.Now().In(loc) }

	api, err := pdvapi.NewClient(cfg.Upstream.BaseURL,
		pdvapi.WithTimeout(cfg.Upstream.Timeout),
		pdvapi.WithUserAgent(cfg.Upstream.UserAgent),
		pdvapi.WithObserver(terminalMetrics),
		pdvapi.WithBreaker(pdvapi.BreakerSettings{
			Failures: cfg.Upstream.BreakerFailures,
			Cooldown: cfg.Upstream.BreakerCooldown,
			OnStateChange: func(open bool) {
				terminalMetrics.SetUpstreamBreaker(open)
				if open {
					logg.Warn(context.Background(), "pdv_api.breaker_open")
					return
				}
				logg.Info(context.Background(), "pdv_api.breaker_closed")
			},
		}),
	)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(api, logg)
	if err != nil {
		return err
	}
	catalogService, err := catalog.NewService(catalog.Config{
		Finder:   api,
		Cache:    redisClient,
		CacheTTL: cfg.Catalog.LookupCacheTTL,
		Logger:   logg,
		Metrics:  terminalMetrics,
		Now:      now,
	})
	if err != nil {
		return err
	}
	salesService, err := sales.NewService(api, sales.Limits{
		History: pagination.Limits{Default: cfg.History.DefaultLimit, Max: cfg.History.MaxLimit},
		Clients: pagination.Limits{Default: cfg.History.ClientsLimit, Max: cfg.History.MaxLimit},
	})
	if err != nil {
		return err
	}
	terminalService, err := terminal.NewService(terminal.ServiceParams{
		Catalog: catalogService,
		Sales:   salesService,
		Users:   api,
		Logger:  logg,
		Metrics: terminalMetrics,
		IdleTTL: cfg.Terminal.SessionIdleTTL,
		Now:     now,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, routes.Services{
			Auth:     authService,
			Terminal: terminalService,
			Sales:    salesService,
		}, routes.Options{Gatherer: registry, Now: now}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting pdv terminal")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := terminalService.Run(groupCtx, cfg.Terminal.SweepInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		logg.Info(ctx, "pdv terminal shutting down gracefully")
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
