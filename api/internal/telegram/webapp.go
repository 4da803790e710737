package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"inpaint-bot/api/internal/inpaint"
)

// подпись к фото в Telegram ограничена 1024 символами
const captionLimit = 1024

func (r *Router) handleWebApp(ctx context.Context, chatID, uid int64, data string) {
	r.logger().Info("web_app_data",
		zap.Int("bytes", len(data)),
		zap.Int64("chat_id", chatID),
		zap.Int64("user_id", uid))

	p, err := inpaint.ParsePayload([]byte(data))
	if err != nil {
		r.logger().Warn("web_app_data: bad payload", zap.Int64("user_id", uid), zap.Error(err))
		r.send(chatID, inpaint.UserMessage(err))
		return
	}

	_, _ = r.Bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadPhoto))

	res, err := r.Inpaint.Run(ctx, uid, p)
	if err != nil {
		// этап и причина уже в логе оркестратора
		r.send(chatID, inpaint.UserMessage(err))
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "result.png", Bytes: res.Image})
	photo.Caption = truncateRunes(res.Caption, captionLimit)
	if _, err := r.Bot.Send(photo); err != nil {
		r.logger().Error("send result", zap.Int64("chat_id", chatID), zap.Error(err))
		r.send(chatID, "❌ Ошибка отправки результата. Попробуйте ещё раз.")
	}
}
