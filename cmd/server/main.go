package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hongminglow/invest-be/internal/auth"
	"github.com/hongminglow/invest-be/internal/config"
	"github.com/hongminglow/invest-be/internal/events"
	"github.com/hongminglow/invest-be/internal/http/handlers"
	"github.com/hongminglow/invest-be/internal/logger"
	"github.com/hongminglow/invest-be/internal/mail"
	"github.com/hongminglow/invest-be/internal/ratelimit"
	"github.com/hongminglow/invest-be/internal/scheduler"
	"github.com/hongminglow/invest-be/internal/server"
	"github.com/hongminglow/invest-be/internal/service"
	"github.com/hongminglow/invest-be/internal/storage"
	"github.com/hongminglow/invest-be/internal/storage/memory"
	postgres "github.com/hongminglow/invest-be/internal/storage/postgres"
)

func main() {
	envLoaded := loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)
	if !envLoaded {
		log.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	var checks []handlers.Check

	var store storage.Store
	switch cfg.StorageDriver {
	case config.DriverMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		store = memory.New()
	default:
		pg, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("init database", zap.Error(err))
		}
		checks = append(checks, handlers.Check{Name: "database", Probe: pg.Ping})
		store = pg
	}
	defer store.Close()

	var publisher events.Publisher = events.NewLogPublisher(log)
	if cfg.RabbitMQURL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.EventsExchange, log)
		if err != nil {
			log.Warn("rabbitmq unavailable, events will only be logged", zap.Error(err))
		} else {
			publisher = rabbit
		}
	}
	defer publisher.Close()

	var mailer mail.Sender = mail.NewLogSender(log)
	if cfg.EmailAPIURL != "" {
		mailer = mail.NewHTTPSender(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom)
	}

	limiter, err := ratelimit.NewFromURL(cfg.RedisURL, cfg.RateLimitPrefix)
	if err != nil {
		log.Fatal("init rate limiter", zap.Error(err))
	}
	defer func() { _ = limiter.Close() }()
	if limiter.Enabled() {
		checks = append(checks, handlers.Check{Name: "redis", Probe: limiter.Ping})
	} else {
		log.Info("REDIS_URL not set; rate limiting disabled")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	svc := service.New(service.Options{
		Store:     store,
		Tokens:    tokens,
		Publisher: publisher,
		Mailer:    mailer,
		Logger:    log,
		Settings: service.Settings{
			MinDeposit:                cfg.MinDeposit,
			MinWithdrawal:             cfg.MinWithdrawal,
			ReferralCommissionPercent: cfg.ReferralCommissionPercent,
			AdminEmails:               cfg.AdminEmails,
		},
	})

	sched := scheduler.New(scheduler.NewJobs(svc, log), log, cfg.YieldJobSchedule)
	if err := sched.Start(); err != nil {
		log.Fatal("start scheduler", zap.Error(err))
	}

	srv := server.New(cfg, server.Deps{
		Service: svc,
		Tokens:  tokens,
		Limiter: limiter,
		Logger:  log,
		Checks:  checks,
	})

	go func() {
		log.Info("invest backend listening", zap.String("addr", cfg.HTTPAddress()), zap.String("storage", cfg.StorageDriver))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("graceful shutdown error", zap.Error(err))
	}
	select {
	case <-sched.Stop().Done():
	case <-ctxShutdown.Done():
		log.Warn("yield job still running at shutdown")
	}
}

func loadLocalEnv() bool {
	return godotenv.Load() == nil
}
