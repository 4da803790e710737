package telegram

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const brushButtonText = "🖌 Открыть кисть"

// Reply-клавиатура с web_app кнопкой: в tgbotapi v5.5.1 нет WebAppInfo.
type webAppInfo struct {
	URL string `json:"url"`
}

type keyboardButton struct {
	Text   string      `json:"text"`
	WebApp *webAppInfo `json:"web_app,omitempty"`
}

type replyKeyboard struct {
	Keyboard        [][]keyboardButton `json:"keyboard"`
	ResizeKeyboard  bool               `json:"resize_keyboard"`
	OneTimeKeyboard bool               `json:"one_time_keyboard"`
}

func makeBrushKeyboard(webAppURL string) replyKeyboard {
	return replyKeyboard{
		Keyboard:        [][]keyboardButton{{{Text: brushButtonText, WebApp: &webAppInfo{URL: webAppURL}}}},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

// BrushURL — адрес страницы кисти; v сбрасывает кэш WebView, img — последнее изображение.
func BrushURL(publicBaseURL, img string, now time.Time) string {
	u := strings.TrimRight(publicBaseURL, "/") + "/index.html?v=" + strconv.FormatInt(now.Unix(), 10)
	if img != "" {
		u += "&img=" + url.QueryEscape(img)
	}
	return u
}

// sendWebAppKeyboard отправляет текст с кнопкой кисти через сырой sendMessage.
func (r *Router) sendWebAppKeyboard(chatID int64, text, webAppURL string) error {
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", chatID)
	params.AddNonEmpty("text", text)
	if err := params.AddInterface("reply_markup", makeBrushKeyboard(webAppURL)); err != nil {
		return err
	}
	_, err := r.Bot.MakeRequest("sendMessage", params)
	return err
}
