package telegram

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// WebAppData — данные, которые WebApp отправил через Telegram.WebApp.sendData.
// В tgbotapi v5.5.1 этого поля нет, поэтому апдейты декодируются сами.
type WebAppData struct {
	Data       string `json:"data"`
	ButtonText string `json:"button_text"`
}

// Update — tgbotapi.Update плюс message.web_app_data.
type Update struct {
	tgbotapi.Update
	WebAppData *WebAppData
}

type webAppEnvelope struct {
	Message *struct {
		WebAppData *WebAppData `json:"web_app_data"`
	} `json:"message"`
}

// DecodeUpdate разбирает один апдейт из getUpdates или тела вебхука.
func DecodeUpdate(raw []byte) (Update, error) {
	var u Update
	if err := json.Unmarshal(raw, &u.Update); err != nil {
		return Update{}, fmt.Errorf("decode update: %w", err)
	}
	var env webAppEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Update{}, fmt.Errorf("decode web_app_data: %w", err)
	}
	if env.Message != nil && env.Message.WebAppData != nil && env.Message.WebAppData.Data != "" {
		u.WebAppData = env.Message.WebAppData
	}
	return u, nil
}

// DecodeUpdates — массив result из ответа getUpdates. Битые апдейты пропускаются,
// но их UpdateID всё равно учитывается в offset через maxID.
func DecodeUpdates(result json.RawMessage) (updates []Update, maxID int, err error) {
	var items []json.RawMessage
	if err := json.Unmarshal(result, &items); err != nil {
		return nil, 0, fmt.Errorf("decode updates: %w", err)
	}
	maxID = -1
	for _, it := range items {
		var id struct {
			UpdateID int `json:"update_id"`
		}
		if json.Unmarshal(it, &id) == nil && id.UpdateID > maxID {
			maxID = id.UpdateID
		}
		u, err := DecodeUpdate(it)
		if err != nil {
			continue
		}
		updates = append(updates, u)
	}
	return updates, maxID, nil
}
