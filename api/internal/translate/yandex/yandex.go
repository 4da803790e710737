package yandex

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

const defaultTranslateURL = "https://translate.api.cloud.yandex.net/translate/v2/translate"

// Provider — Yandex Cloud Translate v2.
type Provider struct {
	iamc     *IamClient
	folderID string
	url      string
	httpc    *http.Client
}

func New(httpc *http.Client, oauthToken, folderID string) *Provider {
	var iamc *IamClient
	if oauthToken = strings.TrimSpace(oauthToken); oauthToken != "" {
		iamc = NewIamClient(httpc, oauthToken)
	}
	return &Provider{
		iamc:     iamc,
		folderID: strings.TrimSpace(folderID),
		url:      defaultTranslateURL,
		httpc:    httpc,
	}
}

func (p *Provider) Name() string { return "yandex" }

func (p *Provider) Configured() bool { return p.iamc != nil && p.folderID != "" }

type request struct {
	FolderID           string   `json:"folderId"`
	Texts              []string `json:"texts"`
	SourceLanguageCode string   `json:"sourceLanguageCode"`
	TargetLanguageCode string   `json:"targetLanguageCode"`
}

type response struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

func (p *Provider) Translate(ctx context.Context, text, source, target string) (string, error) {
	if !p.Configured() {
		return "", fmt.Errorf("YC_OAUTH_TOKEN / YC_FOLDER_ID not set")
	}
	payload, _ := json.Marshal(request{
		FolderID:           p.folderID,
		Texts:              []string{text},
		SourceLanguageCode: source,
		TargetLanguageCode: target,
	})

	resp, err := p.do(ctx, payload)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// один ретрай со свежим IAM
		resp.Body.Close()
		p.iamc.Invalidate()
		if resp, err = p.do(ctx, payload); err != nil {
			return "", err
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, util.SnippetLimit))
		return "", fmt.Errorf("yandex translate %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("yandex translate: bad JSON: %w", err)
	}
	if len(out.Translations) == 0 {
		return "", fmt.Errorf("yandex translate: empty translations")
	}
	return out.Translations[0].Text, nil
}

func (p *Provider) do(ctx context.Context, payload []byte) (*http.Response, error) {
	iamToken, err := p.iamc.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+iamToken)
	return p.httpc.Do(req)
}
