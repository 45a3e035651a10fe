package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/neointegra/neointegra-backend/internal/catalog"
	"github.com/neointegra/neointegra-backend/internal/cron"
	"github.com/neointegra/neointegra-backend/internal/notifications"
	"github.com/neointegra/neointegra-backend/internal/orders"
	"github.com/neointegra/neointegra-backend/internal/payments"
	"github.com/neointegra/neointegra-backend/internal/subscriptions"
	"github.com/neointegra/neointegra-backend/internal/users"
	"github.com/neointegra/neointegra-backend/pkg/config"
	"github.com/neointegra/neointegra-backend/pkg/db"
	"github.com/neointegra/neointegra-backend/pkg/ipaymu"
	"github.com/neointegra/neointegra-backend/pkg/logger"
	"github.com/neointegra/neointegra-backend/pkg/metrics"
	"github.com/neointegra/neointegra-backend/pkg/migrate"
	"github.com/neointegra/neointegra-backend/pkg/pubsub"
	"github.com/neointegra/neointegra-backend/pkg/redis"
)

const lockKeyFormat = "ni:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	gateway, err := ipaymu.NewClient(cfg.IPaymu, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	dispatcher, err := notifications.NewDispatcher(pubsubClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create event dispatcher", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())
	subscriptionsRepo := subscriptions.NewRepository(dbClient.DB())

	ordersService, err := orders.NewService(ordersRepo, catalogRepo, dbClient, dispatcher)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	subscriptionsService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:       subscriptionsRepo,
		Orders:     ordersService,
		Catalog:    catalogRepo,
		Dispatcher: dispatcher,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:          paymentsRepo,
		OrdersRepo:    ordersRepo,
		OrderMarker:   ordersService,
		Subscriptions: subscriptionsService,
		Users:         usersRepo,
		Gateway:       gateway,
		Tx:            dbClient,
		Dispatcher:    dispatcher,
		Metrics:       metrics.NewPaymentMetrics(prometheus.DefaultRegisterer),
		Logger:        logg,
		IPaymuConfig:  cfg.IPaymu,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	expireJob, err := cron.NewPaymentExpireJob(cron.PaymentExpireJobParams{
		Logger:    logg,
		Payments:  paymentsService,
		BatchSize: cfg.Cron.ExpireBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment expire job", err)
		os.Exit(1)
	}
	reconcileJob, err := cron.NewPaymentReconcileJob(cron.PaymentReconcileJobParams{
		Logger:    logg,
		Payments:  paymentsService,
		OlderThan: cfg.Cron.ReconcileAfter,
		Limit:     cfg.Cron.ReconcileLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment reconcile job", err)
		os.Exit(1)
	}
	subscriptionJob, err := cron.NewSubscriptionExpireJob(cron.SubscriptionExpireJobParams{
		Logger:        logg,
		Subscriptions: subscriptionsService,
		BatchSize:     cfg.Cron.ExpireBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription expire job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	registry.Register(expireJob)
	registry.Register(reconcileJob)
	registry.Register(subscriptionJob)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
