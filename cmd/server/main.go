package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/exam-reservation/internal/booking"
	"github.com/iliyamo/exam-reservation/internal/config"
	"github.com/iliyamo/exam-reservation/internal/database"
	"github.com/iliyamo/exam-reservation/internal/handler"
	"github.com/iliyamo/exam-reservation/internal/logging"
	"github.com/iliyamo/exam-reservation/internal/middleware"
	"github.com/iliyamo/exam-reservation/internal/queue"
	"github.com/iliyamo/exam-reservation/internal/repository"
	"github.com/iliyamo/exam-reservation/internal/router"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// a missing .env is fine; the environment may be set directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.IsDev())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		return err
	}
	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		return err
	}
	redisCfg, err := config.LoadRedisConfig()
	if err != nil {
		return err
	}
	rdb := config.NewRedisClient(redisCfg)
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting and caching disabled", "addr", redisCfg.Address())
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	if cfg.AdminEmail != "" {
		id, err := users.EnsureSuperuser(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
		if err != nil {
			return err
		}
		logger.Info("superuser ready", "user_id", id)
	}

	opts := []booking.Option{
		booking.WithLogger(logger),
		booking.WithTxTimeout(cfg.TxTimeout),
	}
	if cfg.AuditEnabled {
		opts = append(opts, booking.WithAuditor(queue.NewPublisher(cfg.RabbitURL)))
	}
	if cfg.AuditConsumerEnabled {
		go queue.StartAuditConsumer(ctx, cfg.RabbitURL, cfg.AuditLogPath, logger)
	}
	svc := booking.NewService(repository.NewStore(db), booking.Policy{Cutoff: cfg.BookingCutoff}, opts...)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.RequestID())
	e.Use(middleware.ContextLogger(logger))
	e.Use(middleware.AccessLog(logger))
	e.Use(echomw.Recover())

	router.RegisterRoutes(e, router.Deps{
		DB:           db,
		Auth:         handler.NewAuthHandler(cfg, users, tokens),
		Schedules:    handler.NewExamScheduleHandler(svc),
		Reservations: handler.NewReservationHandler(svc),
		JWTSecret:    cfg.JWTSecret,
		Redis:        rdb,
		RateLimit:    rlCfg,
		Cache:        cacheCfg,
		Logger:       logger,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
