package main

import (
	"campusbook/config"
	"campusbook/di"
	"campusbook/shared/logger"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

// The worker records every booking lifecycle event in the audit log.
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	worker, err := di.InitializeWorker()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	topic := cfg.Kafka.Topics.BookingEvents

	log.Info().Str("topic", topic).Str("group", cfg.Kafka.ConsumerGroup).Msg("Starting audit consumer.")

	worker.Kafka.Consume(ctx, cfg.Kafka.ConsumerGroup, topic, worker.Audit.Handle)

	if err := worker.Kafka.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Kafka client.")
	}

	log.Info().Msg("Audit consumer stopped.")
}
