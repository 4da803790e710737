package deepl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"inpaint-bot/api/internal/util"
)

type Provider struct {
	APIKey string
	APIURL string
	httpc  *http.Client
}

func New(httpc *http.Client, apiURL, key string) *Provider {
	return &Provider{
		APIKey: strings.TrimSpace(key),
		APIURL: strings.TrimSpace(apiURL),
		httpc:  httpc,
	}
}

func (p *Provider) Name() string { return "deepl" }

func (p *Provider) Configured() bool { return p.APIKey != "" && p.APIURL != "" }

func (p *Provider) Translate(ctx context.Context, text, source, target string) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("DEEPL_API_KEY is empty")
	}
	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", strings.ToUpper(target))
	form.Set("source_lang", strings.ToUpper(source))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+p.APIKey)

	resp, err := p.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, util.SnippetLimit))
		return "", fmt.Errorf("deepl %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("deepl: bad JSON: %w", err)
	}
	if len(out.Translations) == 0 {
		return "", fmt.Errorf("deepl: empty translations")
	}
	return out.Translations[0].Text, nil
}
