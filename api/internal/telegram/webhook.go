package telegram

import (
	"context"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// WebhookPath — секретный путь вебхука, производный от токена.
func WebhookPath(token string) string {
	return "/webhook/" + shortHash(token)
}

// SetWebhook регистрирует baseURL+path у Telegram, сбрасывая накопившиеся апдейты.
func SetWebhook(bot BotAPI, baseURL, path string) error {
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + path)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	_, err = bot.Request(wh)
	return err
}

// WebhookHandler отвечает Telegram сразу, обработка идёт в фоне с ctx.
func WebhookHandler(ctx context.Context, log *zap.Logger, handle func(context.Context, Update)) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		upd, err := DecodeUpdate(body)
		if err != nil {
			log.Warn("webhook: bad update", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
		go handle(ctx, upd)
	}
}

// лёгкий хэш для пути вебхука (не крипто, но стабильно для токена)
func shortHash(s string) string {
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
