package main

import (
	"StudyVault/config"
	"StudyVault/internal/handler"
	"StudyVault/internal/mq"
	"StudyVault/internal/repo"
	"StudyVault/internal/service"
	"StudyVault/internal/storage"
	"StudyVault/router"
	"StudyVault/utils"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

// main wires the stores and starts the HTTP server.
func main() {
	cfg := config.InitConfig()
	utils.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	defer func() { _ = repo.Close(db) }()

	rdb, err := repo.NewRedis(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis init failed")
	}
	defer rdb.Close()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("object store init failed")
	}

	publisher := mq.NewPublisher(cfg.RabbitMQURL)
	defer publisher.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	mailer := utils.NewMailer(cfg)
	if !mailer.Configured() {
		log.Warn().Msg("SMTP not configured, registrations cannot be activated")
	}

	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	redisCache := utils.NewRedisCache(rdb)
	svc := service.New(repo.New(db), store, service.Options{
		Cache:        utils.NewListCache(redisCache, cfg.ListCacheTTL),
		Publisher:    publisher,
		Metrics:      service.NewMetrics(registry),
		Tokens:       tokens,
		SignedURLTTL: cfg.SignedURLTTL,
		Pending:      redisCache,
		Mailer:       mailer,
		RegisterTTL:  cfg.RegisterTTL,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.InitRouter(handler.New(svc, cfg.AppBaseURL), tokens, cfg.CORSOrigins, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	log.Info().Msg("http server stopped")
}
