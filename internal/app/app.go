package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/config"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/event"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/format"
	handler "github.com/AnhTuan1407/shopsphere-fe-sub001/internal/handler/http"
	redisrepo "github.com/AnhTuan1407/shopsphere-fe-sub001/internal/repository/redis"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/service"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/shopapi"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/health"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/httpclient"
	pkgkafka "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/kafka"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/middleware"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/tracing"
)

const (
	startupTimeout  = 10 * time.Second
	httpDrainTime   = 10 * time.Second
	tracerFlushTime = 3 * time.Second
)

// closer releases one component during shutdown.
type closer struct {
	name  string
	close func(ctx context.Context) error
}

// App owns the storefront cart service and everything it connects to.
type App struct {
	logger     *slog.Logger
	httpServer *http.Server
	consumer   *pkgkafka.Consumer
	// closers run last-opened first, after the HTTP server has drained.
	closers []closer
}

// NewApp connects Redis, Kafka and the shop API and builds the HTTP server.
// On failure, whatever was already opened is released.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	a := &App{logger: logger}
	defer func() {
		if err != nil {
			_ = a.closeAll()
		}
	}()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    handler.ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.onClose("tracer", withTimeout(tracerFlushTime, tracerShutdown))

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
	a.onClose("redis", func(context.Context) error { return rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to redis", slog.String("addr", cfg.RedisAddr), slog.Int("db", cfg.RedisDB))

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	a.onClose("kafka producer", func(context.Context) error { return producer.Close() })

	api := newShopAPI(cfg, logger)
	sessions := redisrepo.NewSessionRepository(rdb)
	references := redisrepo.NewReferenceCache(rdb, cfg.ReferenceCacheTTL())
	events := event.NewProducer(producer, logger)
	carts := service.NewCartService(api, references, events, logger, cfg.SelectAllConcurrency)
	auth := service.NewSessionService(api, sessions, carts, events, logger, cfg.SessionTTL())

	if cfg.KafkaConsumerEnabled {
		a.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaConsumerGroup,
			Topics:   event.ConsumedTopics(),
			MinBytes: 1,
			MaxBytes: 10e6,
		}, event.NewConsumer(references, logger).Handle, logger)
		a.onClose("kafka consumer", func(context.Context) error { return a.consumer.Close() })

		if cfg.KafkaDeadLetterEnabled {
			dlq := pkgkafka.NewDeadLetterWriter(cfg.KafkaBrokers, logger)
			a.onClose("kafka dead letter", func(context.Context) error { return dlq.Close() })
			a.consumer.WithDeadLetter(dlq)
		}
	}

	probes := health.NewHandler()
	probes.Register("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	probes.RegisterOptional("kafka", producer.Ping)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	routes := handler.RouterConfig{CORS: cors, RequestTimeout: cfg.RequestTimeout()}
	if cfg.PprofEnabled {
		routes.PprofCIDRs = cfg.PprofAllowedCIDRs
	}
	router := handler.NewRouter(carts, auth, format.New(cfg.DisplayLocale), probes, routes, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// Leave room past the per-request deadline for the error body.
		WriteTimeout: cfg.RequestTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

// newShopAPI stacks the retrying HTTP client behind the circuit breaker.
func newShopAPI(cfg *config.Config, logger *slog.Logger) *shopapi.Client {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = time.Duration(cfg.ShopAPITimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.ShopAPIMaxRetries

	breaker := httpclient.NewCircuitBreakerClient(httpclient.New(httpCfg), httpclient.CircuitBreakerConfig{
		Name:         shopapi.ServiceName,
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}, logger)
	return shopapi.New(breaker, cfg.ShopAPIBaseURL, cfg.ShopAPISuccessCode, logger)
}

func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, close: fn})
}

func withTimeout(d time.Duration, fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return fn(ctx)
	}
}

// Run serves HTTP and consumes invalidation events until ctx is canceled or
// either of them fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("http server listening", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("invalidation consumer: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}
}

// Shutdown drains in-flight requests, then releases the remaining
// components in reverse order of opening.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down")

	var errs []error
	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), httpDrainTime)
		defer cancel()
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("http server shutdown failed", slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	errs = append(errs, a.closeAll())

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(context.Background()); err != nil {
			a.logger.Error("close failed", slog.String("component", c.name), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
