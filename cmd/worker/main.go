package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/FikranSE/bookingapp/config"
	"github.com/FikranSE/bookingapp/internal/bootstrap"
	"github.com/FikranSE/bookingapp/internal/cache"
	"github.com/FikranSE/bookingapp/internal/clock"
	"github.com/FikranSE/bookingapp/internal/email"
	"github.com/FikranSE/bookingapp/internal/kafka"
	"github.com/FikranSE/bookingapp/internal/logger"
	"github.com/FikranSE/bookingapp/internal/metrics"
	"github.com/FikranSE/bookingapp/internal/notification"
	"github.com/FikranSE/bookingapp/internal/push"
	"github.com/FikranSE/bookingapp/internal/reminder"
	"github.com/FikranSE/bookingapp/internal/repository"
	"github.com/FikranSE/bookingapp/internal/scheduler"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const reminderLockName = "reminder-scan"

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, os.Stdout).With("component", "worker")
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("worker error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}
	clk := clock.New(loc)
	metrics.Register()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	expo := push.NewExpoSender(cfg.Push)
	dispatcher := notification.NewDispatcher(email.NewSender(cfg.SMTP), expo, userRepo, clk, log)

	var scannerOpts []reminder.Option
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		scannerOpts = append(scannerOpts, reminder.WithEvents(producer, cfg.Kafka.BookingEventsTopic))
	}

	scanner := reminder.NewScanner(
		repository.NewBookingRepository(pool),
		repository.NewReminderRepository(pool),
		dispatcher,
		clk,
		log.With("job", "reminder"),
		cfg.Reminder.Window,
		cfg.Reminder.Interval,
		scannerOpts...,
	)

	var opts []scheduler.Option
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.CatalogCacheTTL)
		defer redisCache.Close()
		opts = append(opts, scheduler.WithLocker(redisCache, cfg.Reminder.LockTTL))
	}

	sched := scheduler.New(reminderLockName, cfg.Reminder.Interval, func(ctx context.Context) error {
		_, err := scanner.Scan(ctx)
		return err
	}, log, opts...)
	sched.Start(ctx)
	defer sched.Stop()

	var wg sync.WaitGroup

	if cfg.Kafka.Enabled() && cfg.Kafka.PushTopic != "" {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.PushTopic, log.With("job", "push"))
		defer consumer.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Consume(ctx, kafka.PushHandler(expo, log.With("job", "push"))); err != nil {
				log.Error("push consumer stopped", "error", err)
			}
		}()
	}

	if cfg.Worker.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		wg.Add(1)
		go func() {
			defer wg.Done()
			metricsCfg := config.HTTPConfig{Address: cfg.Worker.MetricsAddress, ShutdownTimeout: cfg.HTTP.ShutdownTimeout}
			if err := bootstrap.Run(ctx, metricsCfg, mux, log); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	log.Info("worker started", "reminder_interval", cfg.Reminder.Interval, "reminder_window", cfg.Reminder.Window)
	<-ctx.Done()
	log.Info("shutting down worker")

	sched.Stop()
	wg.Wait()
	return nil
}
