package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/FikranSE/bookingapp/api"
	"github.com/FikranSE/bookingapp/config"
	"github.com/FikranSE/bookingapp/internal/auth"
	"github.com/FikranSE/bookingapp/internal/bootstrap"
	"github.com/FikranSE/bookingapp/internal/cache"
	"github.com/FikranSE/bookingapp/internal/clock"
	"github.com/FikranSE/bookingapp/internal/email"
	"github.com/FikranSE/bookingapp/internal/kafka"
	"github.com/FikranSE/bookingapp/internal/logger"
	"github.com/FikranSE/bookingapp/internal/metrics"
	"github.com/FikranSE/bookingapp/internal/notification"
	"github.com/FikranSE/bookingapp/internal/push"
	"github.com/FikranSE/bookingapp/internal/repository"
	"github.com/FikranSE/bookingapp/internal/service/account"
	"github.com/FikranSE/bookingapp/internal/service/booking"
	"github.com/FikranSE/bookingapp/internal/service/resources"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

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

	log := logger.New(cfg.Log, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server error", "error", err)
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

	if cfg.Database.MigrateOnBoot {
		if err := repository.Migrate(pool); err != nil {
			return err
		}
		log.Info("database migrations applied")
	}

	var (
		catalogCache resources.CatalogCache
		redisCache   *cache.RedisCache
	)
	if cfg.Redis.Enabled() {
		redisCache = cache.NewRedisCache(cfg.Redis, cfg.Booking.CatalogCacheTTL)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn("redis unavailable, catalog cache will miss", "error", err)
		}
		catalogCache = redisCache
	}

	userRepo := repository.NewUserRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	roomRepo := repository.NewRoomRepository(pool)
	transportRepo := repository.NewTransportRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	var (
		pushSender  notification.PushSender = push.NewExpoSender(cfg.Push)
		bookingOpts []booking.BookingServiceOption
	)
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.Warn("kafka unavailable at startup", "error", err)
		}
		if cfg.Kafka.PushTopic != "" {
			pushSender = kafka.NewPushQueue(producer, cfg.Kafka.PushTopic)
		}
		bookingOpts = append(bookingOpts, booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic))
	}

	dispatcher := notification.NewDispatcher(email.NewSender(cfg.SMTP), pushSender, userRepo, clk, log)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	accountService := account.NewAccountService(userRepo, adminRepo, issuer, log)
	if err := accountService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return err
	}
	resourceService := resources.NewResourceService(roomRepo, transportRepo, catalogCache, log)
	bookingService := booking.NewBookingService(bookingRepo, adminRepo, dispatcher, clk, log, bookingOpts...)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.RouterDeps{
		Bookings:  bookingService,
		Resources: resourceService,
		Accounts:  accountService,
		Tokens:    issuer,
		Clock:     clk,
		Log:       log,
		Health: func(ctx context.Context) error {
			var errs []error
			errs = append(errs, pool.Ping(ctx))
			if redisCache != nil {
				errs = append(errs, redisCache.Ping(ctx))
			}
			return errors.Join(errs...)
		},
	})

	return bootstrap.Run(ctx, cfg.HTTP, router, log)
}
