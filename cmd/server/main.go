package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/slot-booking-api/internal/booking"
	"github.com/iliyamo/slot-booking-api/internal/config"
	"github.com/iliyamo/slot-booking-api/internal/database"
	"github.com/iliyamo/slot-booking-api/internal/handler"
	"github.com/iliyamo/slot-booking-api/internal/logging"
	"github.com/iliyamo/slot-booking-api/internal/metrics"
	"github.com/iliyamo/slot-booking-api/internal/middleware"
	"github.com/iliyamo/slot-booking-api/internal/queue"
	"github.com/iliyamo/slot-booking-api/internal/repository"
	"github.com/iliyamo/slot-booking-api/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", "console", "", os.Stderr)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.Env, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database unavailable")
	}
	defer db.Close()

	rdb := connectRedis(ctx, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	metrics.Register()

	// ---- Booking core ----
	cacheCfg := config.LoadCacheConfig()
	opts := []booking.Option{
		booking.WithTimeout(cfg.BookingTimeout),
		booking.WithListener(queue.NewPublisher(cfg.RabbitURL, logger)),
	}
	if purger := middleware.NewCachePurger(cacheCfg, rdb, logger); purger != nil {
		opts = append(opts, booking.WithListener(purger))
	}
	coord := booking.NewCoordinator(repository.NewBookingStore(db, dialect), opts...)

	if cfg.RabbitURL != "" {
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.EventLogDir, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("event consumer stopped")
			}
		}()
	}

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(cfg.IsDevelopment())

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}))
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit("10K"))

	var cache echo.MiddlewareFunc
	if rdb != nil && cacheCfg.Enabled {
		cache = middleware.NewRedisCache(cacheCfg, rdb)
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret, limiter)
	router.RegisterSlots(e, handler.NewSlotHandler(repository.NewSlotRepo(db, dialect), cfg.IsDevelopment()), cfg.JWTSecret, cache)
	router.RegisterAppointments(e, handler.NewAppointmentHandler(coord, repository.NewAppointmentRepo(db, dialect), cfg.IsDevelopment()), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Str("driver", cfg.DBDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// connectRedis returns nil when Redis is disabled or unreachable; the rate
// limiter then falls back to memory and the slot cache is skipped.
func connectRedis(ctx context.Context, logger zerolog.Logger) *redis.Client {
	rcfg := config.LoadRedisConfig()
	if rcfg.Disabled {
		logger.Info().Msg("redis disabled")
		return nil
	}
	rdb, err := config.NewRedisClient(ctx, rcfg)
	if err != nil {
		logger.Warn().Err(err).Str("addr", rcfg.Addr).Msg("redis unavailable; continuing without it")
		return nil
	}
	return rdb
}
