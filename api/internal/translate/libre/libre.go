package libre

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

// Provider — LibreTranslate; по умолчанию публичный инстанс, ключ необязателен.
type Provider struct {
	BaseURL string
	APIKey  string
	httpc   *http.Client
}

func New(httpc *http.Client, baseURL, key string) *Provider {
	return &Provider{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		APIKey:  strings.TrimSpace(key),
		httpc:   httpc,
	}
}

func (p *Provider) Name() string { return "libre" }

func (p *Provider) Configured() bool { return p.BaseURL != "" }

type request struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

func (p *Provider) Translate(ctx context.Context, text, source, target string) (string, error) {
	payload, _ := json.Marshal(request{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: p.APIKey,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/translate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, util.SnippetLimit))
		return "", fmt.Errorf("libretranslate %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("libretranslate: bad JSON: %w", err)
	}
	return out.TranslatedText, nil
}
