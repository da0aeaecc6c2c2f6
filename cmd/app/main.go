package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mavvricks/eloque/config"
	"github.com/mavvricks/eloque/internal/bootstrap"
	"github.com/mavvricks/eloque/internal/cache"
	"github.com/mavvricks/eloque/internal/domain"
	"github.com/mavvricks/eloque/internal/kafka"
	"github.com/mavvricks/eloque/internal/repository"
	"github.com/mavvricks/eloque/internal/service/booking"
	"github.com/mavvricks/eloque/internal/service/payments"
	"github.com/mavvricks/eloque/internal/service/tastings"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if cfg.Database.MigrationsDir != "" {
		if err := repository.MigrateUp(ctx, pool, cfg.Database.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("apply migrations")
		}
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.AvailabilityCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	caps := domain.Caps{
		MaxPaxPerDay:    cfg.Booking.MaxPaxPerDay,
		MaxEventsPerDay: cfg.Booking.MaxEventsPerDay,
	}

	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	tastingRepo := repository.NewTastingRepository(pool)

	bookingService := booking.NewBookingService(
		bookingRepo,
		paymentRepo,
		redisCache,
		producer,
		caps,
		cfg.Kafka.BookingsTopic,
		log,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	paymentService := payments.NewPaymentService(
		paymentRepo,
		bookingRepo,
		producer,
		cfg.Kafka.BookingsTopic,
		log,
	)

	tastingService := tastings.NewTastingService(
		tastingRepo,
		producer,
		cfg.Kafka.NotificationsTopic,
		log,
	)

	if err := bootstrap.Run(ctx, cfg, bookingService, paymentService, tastingService); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
