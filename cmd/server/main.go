package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/app"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/config"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/logger"
)

const serviceName = "storefront-cart"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		slog.Error("storefront cart exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(serviceName, cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("shop_api", cfg.ShopAPIBaseURL),
		slog.String("locale", cfg.DisplayLocale),
		slog.Bool("invalidation_consumer", cfg.KafkaConsumerEnabled),
	)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	log.Info("stopped")
	return nil
}
