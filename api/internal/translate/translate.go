// Package translate переводит промпт пользователя (ru→en) цепочкой
// взаимозаменяемых провайдеров. Перевод — best effort: любая ошибка
// провайдера логируется и передаёт ход следующему, наружу ошибка не уходит.
package translate

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	SourceLang = "ru"
	TargetLang = "en"
)

// Provider — один переводчик в цепочке.
type Provider interface {
	Name() string
	// Configured сообщает, есть ли у провайдера всё нужное (ключ, URL) для вызова.
	Configured() bool
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Outcome — результат перевода. Provider пуст, если текст вернулся без перевода.
type Outcome struct {
	Text     string
	Provider string
}

func (o Outcome) Translated() bool { return o.Provider != "" }

var cyrillicRe = regexp.MustCompile(`[А-Яа-яЁё]`)

// NeedsTranslation — есть ли в тексте кириллица.
func NeedsTranslation(text string) bool {
	return text != "" && cyrillicRe.MatchString(text)
}

// Chain пробует провайдеров строго по порядку до первого непустого перевода.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	log       *zap.Logger
}

// NewChain; timeout ограничивает каждый вызов провайдера отдельно (0 — только ctx).
func NewChain(log *zap.Logger, timeout time.Duration, providers ...Provider) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{providers: providers, timeout: timeout, log: log}
}

// Providers — имена провайдеров в порядке опроса.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Translate никогда не возвращает ошибку: при неудаче всех провайдеров — исходный текст.
func (c *Chain) Translate(ctx context.Context, text string) Outcome {
	if !NeedsTranslation(text) {
		return Outcome{Text: text}
	}
	for _, p := range c.providers {
		if !p.Configured() {
			c.log.Debug("translate: provider not configured", zap.String("provider", p.Name()))
			continue
		}
		tr, err := c.call(ctx, p, text)
		if err != nil {
			c.log.Warn("translate: provider failed", zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		tr = strings.TrimSpace(tr)
		if tr == "" {
			c.log.Warn("translate: empty result", zap.String("provider", p.Name()))
			continue
		}
		return Outcome{Text: tr, Provider: p.Name()}
	}
	return Outcome{Text: text}
}

func (c *Chain) call(ctx context.Context, p Provider, text string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return p.Translate(ctx, text, SourceLang, TargetLang)
}
