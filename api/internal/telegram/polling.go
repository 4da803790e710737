package telegram

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	pollTimeoutSec = 30
	pollBaseDelay  = 1 * time.Second
	pollMaxDelay   = 15 * time.Second
	pollIdleDelay  = 200 * time.Millisecond
)

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

// retryDelay — сколько ждать после ошибки getUpdates, в пределах [pollBaseDelay, pollMaxDelay].
func retryDelay(err error) time.Duration {
	d := rawRetryDelay(err)
	if d < pollBaseDelay {
		d = pollBaseDelay
	}
	if d > pollMaxDelay {
		d = pollMaxDelay
	}
	return d
}

func rawRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		return time.Duration(tgErr.RetryAfter) * time.Second
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 от Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

// Poll — long polling через сырой getUpdates, чтобы не терять web_app_data.
// Каждый апдейт обрабатывается в своей горутине; выходит по отмене ctx.
func Poll(ctx context.Context, bot BotAPI, log *zap.Logger, handle func(context.Context, Update)) {
	if log == nil {
		log = zap.NewNop()
	}
	offset := 0
	for {
		if ctx.Err() != nil {
			log.Info("polling: context cancelled")
			return
		}

		params := tgbotapi.Params{}
		params.AddNonZero("offset", offset)
		params.AddNonZero("timeout", pollTimeoutSec)

		resp, err := bot.MakeRequest("getUpdates", params)
		if err != nil {
			d := retryDelay(err)
			log.Warn("polling error", zap.Error(err), zap.Duration("retry_in", d))
			if !sleep(ctx, d) {
				return
			}
			continue
		}

		updates, maxID, err := DecodeUpdates(resp.Result)
		if err != nil {
			log.Warn("polling: bad response", zap.Error(err))
			if !sleep(ctx, pollBaseDelay) {
				return
			}
			continue
		}
		if maxID >= offset {
			offset = maxID + 1
		}
		for _, upd := range updates {
			go handle(ctx, upd)
		}

		if len(updates) == 0 && !sleep(ctx, pollIdleDelay) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
