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
	"github.com/mavvricks/eloque/internal/domain"
	"github.com/mavvricks/eloque/internal/email"
	"github.com/mavvricks/eloque/internal/kafka"
	"github.com/mavvricks/eloque/internal/repository"
	"github.com/mavvricks/eloque/internal/service/booking"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stderr).With().Timestamp().Str("component", "worker").Logger()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	caps := domain.Caps{
		MaxPaxPerDay:    cfg.Booking.MaxPaxPerDay,
		MaxEventsPerDay: cfg.Booking.MaxEventsPerDay,
	}

	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	bookingService := booking.NewBookingService(
		bookingRepo,
		paymentRepo,
		nil,
		producer,
		caps,
		cfg.Kafka.BookingsTopic,
		log,
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, event kafka.Event) error {
			return emailSender.Send(ctx, event)
		}); err != nil {
			log.Warn().Err(err).Msg("consumer stopped")
		}
	}()

	retryTicker := time.NewTicker(time.Duration(cfg.Worker.ScheduleRetryMinutes) * time.Minute)
	defer retryTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-retryTicker.C:
			repaired, err := bookingService.RetryPendingSchedules(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("schedule retry sweep error")
				continue
			}
			if repaired > 0 {
				log.Info().Int("repaired", repaired).Msg("regenerated payment schedules")
			}
		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			return
		}
	}
}
