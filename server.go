package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/auth"
	"github.com/medcenter/clinic-api/cache"
	"github.com/medcenter/clinic-api/config"
	"github.com/medcenter/clinic-api/database"
	"github.com/medcenter/clinic-api/handlers"
	"github.com/medcenter/clinic-api/mailer"
	"github.com/medcenter/clinic-api/middleware"
	"github.com/medcenter/clinic-api/observability"
	"github.com/medcenter/clinic-api/repository"
	"github.com/medcenter/clinic-api/routes"
	"github.com/medcenter/clinic-api/storage"
	"github.com/rs/zerolog/log"
)

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.Enabled {
		shutdown, err := observability.SetupTracing(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("tracing disabled")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					log.Error().Err(err).Msg("failed to flush traces")
				}
			}()
		}
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	store := repository.New(pool)

	kv, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	files, err := newFileStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)
	h := handlers.New(handlers.Deps{
		Users:         store,
		Appointments:  store,
		Prescriptions: store,
		Certificates:  store,
		AuditLog:      store,
		Cache:         kv,
		Mailer:        newMailer(cfg.SMTP),
		Files:         files,
		Tokens:        tokens,
		OTP:           auth.NewOTPGenerator(cfg.OTP.Issuer),
		Audit:         middleware.NewAuditLogger(store),
		OTPTTL:        cfg.OTP.TTL,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.OTEL.ServiceName + " " + cfg.OTEL.ServiceVersion,
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	routes.SetupRoutes(app, h, routes.Options{
		AllowOrigins: cfg.Server.AllowOrigins,
		ServiceName:  cfg.OTEL.ServiceName,
		Version:      cfg.OTEL.ServiceVersion,
		Tokens:       tokens,
		Cache:        kv,
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Server.Port).Str("environment", cfg.Environment).Msg("server starting")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.Redis.Host == "" {
		log.Info().Msg("using in-memory cache")
		return cache.NewMemoryCache(10000, max(cfg.JWT.TTL, time.Hour)), nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	return cache.NewRedisCache(client, "clinic:"), nil
}

func newMailer(cfg config.SMTPConfig) mailer.Mailer {
	if cfg.Host == "" {
		log.Warn().Msg("SMTP_HOST not set, emails will be logged instead of sent")
		return mailer.LogMailer{}
	}
	return mailer.NewSMTPMailer(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.From)
}

func newFileStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	if cfg.Driver == "s3" {
		return storage.NewS3Store(ctx, cfg.Bucket)
	}
	return storage.NewLocalStore(cfg.LocalDir)
}
