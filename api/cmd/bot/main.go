package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"inpaint-bot/api/internal/app"
	"inpaint-bot/api/internal/config"
	"inpaint-bot/api/internal/logging"
	"inpaint-bot/api/internal/telegram"
	"inpaint-bot/api/internal/util"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.BotToken == "" {
		log.Fatal("config: missing required BOT_TOKEN")
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

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("telegram", zap.Error(err))
	}
	bot.Debug = false
	logger.Info("bot authorized", zap.String("username", bot.Self.UserName))

	r := &telegram.Router{
		Bot:           bot,
		Uploads:       a.Uploads,
		Images:        a.Images,
		Inpaint:       a.Inpaint,
		PublicBaseURL: cfg.PublicBaseURL,
		HTTP:          util.NewHTTPClient(cfg.HTTPTimeout, cfg.HTTPConnectTimeout),
		Log:           logger.Named("telegram"),
	}

	srv := a.Server()
	addr := "0.0.0.0:" + cfg.Port

	// --- Choose mode: Webhook vs Polling ---
	if cfg.WebhookURL != "" {
		srv.WebhookPath = telegram.WebhookPath(cfg.BotToken)
		srv.WebhookHandler = telegram.WebhookHandler(ctx, logger.Named("webhook"), r.HandleUpdate)
		if err := telegram.SetWebhook(bot, cfg.WebhookURL, srv.WebhookPath); err != nil {
			logger.Fatal("set webhook", zap.Error(err))
		}
		logger.Info("webhook mode", zap.String("addr", addr))
	} else {
		// без вебхука Telegram не начнёт отдавать апдейты в getUpdates
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn("delete webhook", zap.Error(err))
		}
		go telegram.Poll(ctx, bot, logger.Named("polling"), r.HandleUpdate)
		logger.Info("polling mode", zap.String("addr", addr))
	}

	if err := srv.Run(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server", zap.Error(err))
	}
	logger.Info("bye")
}
