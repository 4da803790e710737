package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"inpaint-bot/api/internal/util"
)

// Provider — перевод через Gemini (LLM), последний рубеж перед исходным текстом.
type Provider struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Provider {
	return &Provider{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) Configured() bool { return p.APIKey != "" && p.Model != "" }

func (p *Provider) Translate(ctx context.Context, text, source, target string) (string, error) {
	if p.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(p.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(p.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "text/plain",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt(source, target))},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("gemini translate: %w", err)
	}
	out := cleanOutput(firstText(resp))
	if out == "" {
		return "", errors.New("gemini translate: empty response")
	}
	return out, nil
}

func systemPrompt(source, target string) string {
	return fmt.Sprintf(`You translate prompts for an image editing model from %s to %s.
Return only the translated text: no quotes, no explanations, no markdown.
Keep the meaning and all visual details; do not add anything.`, langName(source), langName(target))
}

func langName(code string) string {
	switch strings.ToLower(code) {
	case "ru":
		return "Russian"
	case "en":
		return "English"
	default:
		return code
	}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s
		}
	}
	return ""
}

// cleanOutput снимает обёртки, которые модель иногда добавляет вокруг ответа.
func cleanOutput(s string) string {
	s = util.StripCodeFences(s)
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

func ptrFloat32(v float32) *float32 { return &v }
