package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"inpaint-bot/api/internal/util"
)

const defaultURL = "https://api.openai.com/v1/chat/completions"

type Provider struct {
	APIKey string
	Model  string
	url    string
	httpc  *http.Client
}

func New(httpc *http.Client, key, model string) *Provider {
	return &Provider{
		APIKey: strings.TrimSpace(key),
		Model:  strings.TrimSpace(model),
		url:    defaultURL,
		httpc:  httpc,
	}
}

func (p *Provider) Name() string { return "gpt" }

func (p *Provider) Configured() bool { return p.APIKey != "" && p.Model != "" }

func (p *Provider) Translate(ctx context.Context, text, source, target string) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY is empty")
	}
	system := fmt.Sprintf("Translate the user's image-editing prompt from %q to %q. "+
		"Reply with the translation only, without quotes or comments.", source, target)

	body := map[string]any{
		"model": p.Model,
		"messages": []any{
			map[string]any{"role": "system", "content": system},
			map[string]any{"role": "user", "content": text},
		},
		"temperature": 0,
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, util.SnippetLimit))
		return "", fmt.Errorf("openai translate %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("openai translate: bad JSON: %w", err)
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("openai translate: empty response")
	}
	return util.StripCodeFences(raw.Choices[0].Message.Content), nil
}
