package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"inpaint-bot/api/internal/app"
	"inpaint-bot/api/internal/config"
	"inpaint-bot/api/internal/logging"
)

// inpaint-api — только HTTP: загрузки и /v1/inpaint без Telegram.
func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init", zap.Error(err))
	}
	defer a.Close()

	addr := ":" + cfg.Port
	logger.Info("inpaint-api listening", zap.String("addr", addr))
	if err := a.Server().Run(ctx, addr); err != nil {
		logger.Error("http server", zap.Error(err))
	}
}
