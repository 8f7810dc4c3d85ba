package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"batteryeis/backend/libs/logging"
	"batteryeis/backend/services/eis-producer/internal/clients"
	"batteryeis/backend/services/eis-producer/internal/config"
	"batteryeis/backend/services/eis-producer/internal/producer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger("eis-producer")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	client := clients.NewIngestClient(cfg.Ingest.URL, clients.NewDefaultHTTPClient(cfg.Timeout()))
	if _, err := producer.New(client, logger).Run(ctx, cfg.Source.Dir); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("producer stopped with error", zap.Error(err))
	}
}
