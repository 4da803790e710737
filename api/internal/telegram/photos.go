package telegram

import (
	"context"
	"net/url"
	"path"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"inpaint-bot/api/internal/util"
)

// acceptImage принимает фото или документ-картинку, кладёт в uploads и запоминает как последнее.
func (r *Router) acceptImage(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	var fileID string
	switch {
	case len(msg.Photo) > 0:
		fileID = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		fileID = msg.Document.FileID
	default:
		r.send(cid, "Пришли изображение в виде фото или документа.")
		return
	}

	fileURL, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.logger().Error("get file", zap.Int64("chat_id", cid), zap.Error(err))
		r.send(cid, "❌ Не удалось получить файл из Telegram. Пришлите ещё раз.")
		return
	}
	data, err := util.Download(ctx, r.httpClient(), fileURL)
	if err != nil {
		r.logger().Error("download telegram file", zap.Int64("chat_id", cid), zap.Error(err))
		r.send(cid, "❌ Не удалось скачать файл из Telegram. Пришлите ещё раз.")
		return
	}

	localPath, publicURL, err := r.Uploads.Save(data, fileExt(fileURL))
	if err != nil {
		r.logger().Error("save upload", zap.Int64("chat_id", cid), zap.Error(err))
		r.send(cid, "❌ Не удалось сохранить изображение. Попробуйте ещё раз.")
		return
	}
	uid := userID(msg)
	if err := r.Images.Set(ctx, uid, publicURL); err != nil {
		r.logger().Warn("remember last image", zap.Int64("user_id", uid), zap.Error(err))
	}
	r.logger().Info("saved", zap.String("path", localPath), zap.String("url", publicURL))

	text := "✅ Изображение загружено. Нажми «" + brushButtonText + "»."
	if err := r.sendWebAppKeyboard(cid, text, BrushURL(r.PublicBaseURL, publicURL, r.clock())); err != nil {
		r.logger().Warn("send brush keyboard", zap.Int64("chat_id", cid), zap.Error(err))
	}
}

// fileExt — расширение из пути файла Telegram, по умолчанию .jpg.
func fileExt(fileURL string) string {
	p := fileURL
	if u, err := url.Parse(fileURL); err == nil {
		p = u.Path
	}
	if ext := strings.ToLower(path.Ext(p)); ext != "" {
		return ext
	}
	return ".jpg"
}
