package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rayaproluaditya/justforyou-backend/internal/config"
	"github.com/rayaproluaditya/justforyou-backend/internal/db"
	"github.com/rayaproluaditya/justforyou-backend/internal/email"
	apihttp "github.com/rayaproluaditya/justforyou-backend/internal/http"
	"github.com/rayaproluaditya/justforyou-backend/internal/repository"
	"github.com/rayaproluaditya/justforyou-backend/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var feedCache service.FeedCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			feedCache = service.NewRedisFeedCache(redisClient, time.Duration(cfg.FeedCacheTTLSeconds)*time.Second)
		}
		cancel()
	}

	userSvc := service.NewUserService(logger, userRepo)
	messageSvc := service.NewMessageService(logger, messageRepo, userRepo, feedCache, cfg.RequireExistingUser)
	authSvc := service.NewAuthService(logger, userRepo, emailSender, cfg.BaseURL, time.Duration(cfg.LoginTokenTTLMinutes)*time.Minute)

	userHandler := apihttp.NewUserHandler(logger, userSvc)
	messageHandler := apihttp.NewMessageHandler(logger, messageSvc)
	authHandler := apihttp.NewAuthHandler(logger, authSvc)
	healthHandler := apihttp.NewHealthHandler(logger, func(ctx context.Context) error {
		return db.Ping(ctx, pool)
	})
	router := apihttp.NewRouter(logger, userHandler, messageHandler, authHandler, healthHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
