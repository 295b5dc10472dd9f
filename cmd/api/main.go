package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"retail-catalog/internal/cache"
	"retail-catalog/internal/catalog"
	"retail-catalog/internal/config"
	"retail-catalog/internal/database"
	"retail-catalog/internal/events"
	"retail-catalog/internal/handlers"
	"retail-catalog/internal/lock"
	"retail-catalog/internal/logger"
	"retail-catalog/internal/pricing"
	"retail-catalog/internal/purchase"
	"retail-catalog/internal/recompute"
	"retail-catalog/internal/repository"
	"retail-catalog/internal/retry"
	"retail-catalog/internal/routes"
	"retail-catalog/internal/sweeper"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.Info("configuration loaded", zap.String("source", cfg.EnvSource), zap.String("store", cfg.Store.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func(context.Context)

	base, err := openStore(ctx, cfg, log, &closers)
	if err != nil {
		return err
	}
	store := repository.NewRetryingStore(base, retry.Policy{
		MaxAttempts: cfg.Store.MaxRetries,
		Base:        cfg.Store.RetryBase,
		Max:         cfg.Store.RetryMax,
		Jitter:      retry.DefaultJitter,
	})

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log.Named("events"))
		log.Info("publishing catalog events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	closers = append(closers, func(context.Context) {
		if err := publisher.Close(); err != nil {
			log.Warn("closing event publisher", zap.Error(err))
		}
	})

	var locker sweeper.Locker
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, sweeps will run unlocked until it recovers", zap.Error(err))
		}
		locker = lock.NewRedisLocker(client, cfg.Sweep.LockTTL)
		closers = append(closers, func(context.Context) { _ = client.Close() })
	}

	engine := pricing.NewEngine(pricingParams(cfg.Pricing))
	orchestrator := recompute.NewOrchestrator(store, engine, publisher, log.Named("recompute"), recompute.Config{
		Concurrency: cfg.Recompute.Concurrency,
		ItemTimeout: cfg.Recompute.ItemTimeout,
	})
	transactor := purchase.NewTransactor(store, publisher, log.Named("purchase"), cfg.Purchase.VelocityPerUnit)
	sweep := sweeper.New(store, locker, log.Named("sweeper"), cfg.Sweep.Interval)
	replay := cache.New(cfg.Purchase.IdempotencyTTL)

	if err := handlers.RegisterValidators(); err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)
	router := routes.NewRouter(log.Named("http"), routes.Handlers{
		Products:  handlers.NewProductHandler(catalog.NewService(store), store, log.Named("products")),
		Purchases: handlers.NewPurchaseHandler(transactor, replay, log.Named("purchase")),
		Pricing:   handlers.NewPricingHandler(orchestrator),
	})

	var background sync.WaitGroup
	background.Add(2)
	go func() {
		defer background.Done()
		sweep.Start(ctx)
	}()
	go func() {
		defer background.Done()
		replay.Run(ctx, time.Minute)
	}()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			log.Error("server failed", zap.Error(err))
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	background.Wait()
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i](shutdownCtx)
	}
	log.Info("stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger, closers *[]func(context.Context)) (repository.ProductStore, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return repository.NewMemoryProductRepository(), nil
	}

	client, err := database.Connect(ctx, cfg.Store.MongoURI, cfg.Store.Timeout)
	if err != nil {
		return nil, err
	}
	collection, err := database.OpenProducts(ctx, client, cfg.Store.MongoDB, cfg.Store.Timeout)
	if err != nil {
		return nil, err
	}
	*closers = append(*closers, func(ctx context.Context) {
		if err := client.Disconnect(ctx); err != nil {
			log.Warn("mongo disconnect", zap.Error(err))
		}
	})
	log.Info("connected to mongo", zap.String("db", cfg.Store.MongoDB))
	return repository.NewMongoProductRepository(collection, cfg.Store.Timeout), nil
}

func pricingParams(c config.PricingConfig) pricing.Params {
	p := pricing.DefaultParams()
	p.UrgencyWindow = c.UrgencyWindow
	p.LowStockThreshold = c.LowStock
	p.VelocityBaseline = c.VelocityBaseline
	p.VelocityCeiling = c.VelocityCeiling
	p.FestiveHorizon = c.FestiveHorizon
	p.ClearanceWindow = c.ClearanceWindow
	return p
}
