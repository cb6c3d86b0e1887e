package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"qurux/internal/config"
	"qurux/internal/database"
	"qurux/internal/domain/booking"
	"qurux/internal/domain/catalog"
	"qurux/internal/domain/feed"
	"qurux/internal/domain/notification"
	"qurux/internal/domain/profile"
	"qurux/internal/logging"
	"qurux/internal/metrics"
	"qurux/internal/middleware"
	jwtsvc "qurux/internal/pkg/jwt"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleTTL         = 15 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "json", "unknown")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.AppEnv)

	if config.IsProdLike(cfg.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	if cfg.MetricsEnabled {
		metrics.Register()
	}

	catalogRepo := catalog.NewRepository(db)
	profileRepo := profile.NewRepository(db)
	bookingRepo := booking.NewRepository(db)

	var cache booking.AvailabilityCache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, availability cache disabled")
			_ = redisClient.Close()
			redisClient = nil
		} else {
			cache = booking.NewRedisAvailabilityCache(redisClient, cfg.AvailabilityCacheTTL)
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.AvailabilityCacheTTL).Msg("availability cache enabled")
		}
		cancel()
	}

	renderer, err := notification.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("load email templates")
	}
	var mailer notification.Mailer
	if cfg.SMTP.Enabled() {
		mailer = notification.NewSMTPMailer(cfg.SMTP)
	} else {
		log.Warn().Msg("SMTP_HOST not set, emails will only be logged")
		mailer = notification.NewLogMailer(log)
	}
	dispatcher := notification.NewDispatcher(
		notification.Config{
			Workers:   cfg.Notify.Workers,
			QueueSize: cfg.Notify.QueueSize,
			Timeout:   cfg.Notify.Timeout,
		},
		notification.NewResolver(bookingRepo, profileRepo, catalogRepo, cfg.Notify.BookingsLink),
		renderer,
		mailer,
		log,
	)
	dispatcher.Start(context.Background())

	hub := feed.NewHub(log)

	bookingService := booking.NewService(booking.Deps{
		Bookings:  bookingRepo,
		Catalog:   catalogRepo,
		Payments:  booking.NewSimulatedGateway(log),
		Notifier:  dispatcher,
		Cache:     cache,
		Publisher: hub,
		Log:       log,
	})

	limiter := middleware.NewRateLimiter(cfg.AdmissionRPS, cfg.AdmissionBurst, log)
	jwtService := jwtsvc.New(cfg.JWTSecret, 24*time.Hour)
	router := newRouter(cfg, log, routerDeps{
		jwt:      jwtService,
		bookings: booking.NewHandler(bookingService),
		feed:     feed.NewHandler(hub, catalogRepo, cfg.CORSAllowedOrigins),
		limiter:  limiter,
		db:       db,
	})

	bgCtx, stopBackground := context.WithCancel(context.Background())
	var background sync.WaitGroup
	background.Add(2)
	go func() {
		defer background.Done()
		booking.NewSweeper(bookingService, cfg.CompletionSweepInterval, log).Run(bgCtx)
	}()
	go func() {
		defer background.Done()
		limiter.RunCleanup(bgCtx, limiterCleanupInterval, limiterIdleTTL)
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForSignal(log)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	hub.Close()
	stopBackground()
	background.Wait()
	dispatcher.Stop()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("shutdown complete")
}

func waitForSignal(log zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")
}
