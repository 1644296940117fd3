package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/pool-reservation/internal/attendance"
	"github.com/iliyamo/pool-reservation/internal/booking"
	"github.com/iliyamo/pool-reservation/internal/config"
	"github.com/iliyamo/pool-reservation/internal/database"
	"github.com/iliyamo/pool-reservation/internal/handler"
	"github.com/iliyamo/pool-reservation/internal/ledger"
	"github.com/iliyamo/pool-reservation/internal/logging"
	"github.com/iliyamo/pool-reservation/internal/middleware"
	"github.com/iliyamo/pool-reservation/internal/queue"
	"github.com/iliyamo/pool-reservation/internal/repository"
	"github.com/iliyamo/pool-reservation/internal/router"
	"github.com/iliyamo/pool-reservation/internal/schedule"
	"github.com/iliyamo/pool-reservation/internal/service"
	"github.com/iliyamo/pool-reservation/internal/stats"
)

func main() {
	cfg := config.Load()
	logging.Init("pool-reservation", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MySQL")
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create schema")
	}

	policy := schedule.NewPolicy(config.LoadScheduleConfig())
	reservations := repository.NewReservationRepo(db)
	attendanceRepo := repository.NewAttendanceRepo(db)
	members := repository.NewMemberRepo(db)
	tokens := repository.NewTokenRepo(db)
	reports := repository.NewReportRepo(db)

	opts := []booking.Option{booking.WithNotifier(service.NewPublisher(cfg.AMQPURL))}
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
		if gc := config.LoadSlotGuardConfig(); gc.Enabled {
			opts = append(opts, booking.WithSlotGuard(repository.NewSlotCounter(rdb, gc.Prefix, gc.TTL)))
			log.Info().Str("prefix", gc.Prefix).Msg("redis slot guard enabled")
		}
	} else {
		log.Warn().Msg("running without redis: no slot guard, cache or rate limit")
	}

	clock := handler.Clock(cfg.Clock)
	bookings := booking.NewService(reservations, policy, members, opts...)
	tracker := attendance.NewTracker(reservations, attendanceRepo)
	aggregator := stats.NewAggregator(reports, policy)

	go func() {
		c := queue.CancellationConsumer{URL: cfg.AMQPURL, Dir: "logs"}
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("component", "cancel-consumer").Msg("consumer stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID(), echomw.Recover(), logging.RequestLogger(log.Logger))

	router.Register(e, router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, members, tokens, clock),
		Bookings:   handler.NewBookingHandler(bookings, ledger.New(reservations, policy), reservations, members, clock),
		Attendance: handler.NewAttendanceHandler(tracker, reservations, clock),
		Reports:    handler.NewReportHandler(aggregator, clock),
		Members:    handler.NewMemberHandler(members),
		Health:     handler.Health(db),
	}, router.Guards{
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("tz", cfg.Location.String()).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
