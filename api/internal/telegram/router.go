package telegram

import (
	"context"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"inpaint-bot/api/internal/inpaint"
	"inpaint-bot/api/internal/store"
)

// BotAPI — то, чем роутер пользуется из *tgbotapi.BotAPI.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Uploader сохраняет принятое изображение и отдаёт его публичный URL.
type Uploader interface {
	Save(data []byte, ext string) (localPath, publicURL string, err error)
}

// Inpainter — конвейер перерисовки (inpaint.Orchestrator).
type Inpainter interface {
	Run(ctx context.Context, userID int64, p inpaint.Payload) (*inpaint.Result, error)
}

type Router struct {
	Bot           BotAPI
	Uploads       Uploader
	Images        store.LastImageStore
	Inpaint       Inpainter
	PublicBaseURL string
	HTTP          *http.Client // скачивание файлов Telegram
	Log           *zap.Logger

	now func() time.Time
}

func (r *Router) HandleUpdate(ctx context.Context, upd Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	cid := msg.Chat.ID
	uid := userID(msg)

	marker := "MSG"
	if upd.WebAppData != nil {
		marker = "WEB_APP"
	}
	r.logger().Debug("rx",
		zap.String("kind", marker),
		zap.Int64("chat_id", cid),
		zap.Int64("user_id", uid),
		zap.String("text", truncateRunes(msg.Text, 80)))

	switch {
	case upd.WebAppData != nil:
		r.handleWebApp(ctx, cid, uid, upd.WebAppData.Data)
	case msg.IsCommand():
		r.HandleCommand(ctx, msg)
	case len(msg.Photo) > 0 || msg.Document != nil:
		r.acceptImage(ctx, msg)
	}
}

func (r *Router) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start":
		r.send(cid, "Привет! Пришли фото (как фото или документ), затем нажми «"+brushButtonText+"».")
	case "ping":
		r.send(cid, "pong ✅ Бот онлайн.")
	case "brush":
		last, err := r.Images.Get(ctx, userID(msg))
		if err != nil {
			last = ""
		}
		if err := r.sendWebAppKeyboard(cid, "Открой WebApp:", BrushURL(r.PublicBaseURL, last, r.clock())); err != nil {
			r.logger().Warn("send brush keyboard", zap.Int64("chat_id", cid), zap.Error(err))
		}
	default:
		r.send(cid, "Неизвестная команда. Доступны: /start, /ping, /brush")
	}
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.logger().Warn("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Router) httpClient() *http.Client {
	if r.HTTP == nil {
		return http.DefaultClient
	}
	return r.HTTP
}

func (r *Router) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

// userID — отправитель; в каналах From пуст, тогда ключ — чат.
func userID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func truncateRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
