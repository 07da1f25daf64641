package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"fxgate/infra/cache"
	"fxgate/infra/provider"
	"fxgate/infra/resilience"
	"fxgate/pkg/config"
	"fxgate/pkg/service/conversion"
	"fxgate/pkg/service/warmup"
	"fxgate/webapi"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	logger := slog.Default()

	cfg, err := config.Load(logger, ".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse redis URL: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close() //nolint:errcheck

	// Wire the chain: client -> resilience pipeline -> coalescing cache.
	upstream := provider.NewClient(cfg.Upstream, logger)
	pipeline := resilience.NewPipeline(upstream, cfg.Upstream, logger)
	rates := cache.New(
		cache.NewMemoryStore(),
		cache.NewRedisStore(redisClient, cfg.Cache.Prefix, logger),
		pipeline,
		cfg.Cache.LocalTTL,
		cfg.Cache.SharedTTL,
		logger,
	)
	conversionSvc := conversion.New(rates, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	warmer := warmup.New(rates, cfg.Warmup.Currencies, cfg.Warmup.Interval, cfg.Warmup.PassTimeout, logger)
	go warmer.Run(ctx)

	app := webapi.SetupApp(webapi.Deps{
		Conversion: conversionSvc,
		Rates:      rates,
		Breaker:    pipeline,
		Logger:     logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server", "env", cfg.Env, "address", addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received, draining")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}
