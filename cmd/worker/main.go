package main

import (
	"StudyVault/config"
	"StudyVault/internal/mq"
	"StudyVault/internal/repo"
	"StudyVault/internal/storage"
	"StudyVault/internal/worker"
	"StudyVault/utils"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.InitConfig()
	utils.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("object store init failed")
	}
	mailer := utils.NewMailer(cfg)
	if !mailer.Configured() {
		log.Warn().Msg("SMTP not configured, share notices will be dropped")
	}

	client, err := mq.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq dial failed")
	}
	defer client.Close()

	log.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("task worker started")
	if err := worker.New(cfg, worker.NewProcessor(store, repo.NewFileRepository(db), mailer)).Run(ctx, client); err != nil {
		log.Fatal().Err(err).Msg("task worker stopped")
	}
	log.Info().Msg("task worker stopped")
}
