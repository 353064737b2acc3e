package main

import (
	"context"
	"log"
	"time"

	"github.com/OpenReservation/reservation-service/config"
	"github.com/OpenReservation/reservation-service/internal/clock"
	"github.com/OpenReservation/reservation-service/internal/handler"
	"github.com/OpenReservation/reservation-service/internal/lock"
	"github.com/OpenReservation/reservation-service/internal/middleware"
	"github.com/OpenReservation/reservation-service/internal/repository"
	"github.com/OpenReservation/reservation-service/internal/service"
	"github.com/OpenReservation/reservation-service/pkg/captcha"
	"github.com/OpenReservation/reservation-service/pkg/database"
	"github.com/OpenReservation/reservation-service/pkg/logger"
	"github.com/OpenReservation/reservation-service/pkg/rabbitmq"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat, "reservation-service")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		zlog.Fatal("database init failed", zap.Error(err))
	}

	// Redis backs the slot lock and the catalog cache when configured. A
	// single node runs correctly on the in-process lock.
	var redisClient *redis.Client
	var locker lock.Locker = lock.NewMemory()
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			zlog.Fatal("redis unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		locker = lock.NewRedis(redisClient, cfg.LockTTL)
	}

	var publisher service.EventPublisher
	if cfg.RabbitURL != "" {
		mq, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			zlog.Fatal("rabbitmq connect failed", zap.Error(err))
		}
		defer mq.Close()
		publisher = mq
	}

	var oracle captcha.Oracle
	if cfg.Captcha.Enabled {
		oracle = captcha.NewHTTPOracle(cfg.Captcha)
	}

	placeStore := repository.NewPlaceStore(db)
	periodStore := repository.NewPeriodStore(db)
	reservationStore := repository.NewReservationStore(db)

	clk := clock.NewSystem()
	catalog := service.NewCatalog(placeStore, periodStore, redisClient, zlog)
	validator := service.NewValidator(placeStore, periodStore, cfg.Booking, clk)
	availability := service.NewAvailabilityChecker(periodStore, reservationStore)
	guard := service.NewConflictGuard(reservationStore, locker, clk, cfg.LockTTL, zlog)
	workflow := service.NewWorkflow(reservationStore, publisher, zlog)
	svc := service.NewReservationService(
		reservationStore, validator, availability, guard, workflow, oracle, publisher, zlog)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.NewErrorHandler(zlog)
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			zlog.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status))
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(middleware.Prometheus())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "reservation-service"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler.NewReservationHandler(svc, catalog, zlog).RegisterRoutes(e)

	zlog.Info("reservation service starting", zap.String("port", cfg.ServerPort))
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
