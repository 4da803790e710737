// Package inpaint — конвейер одного запроса на перерисовку: валидация
// данных кисти, сборка маски, исходное изображение, перевод промпта,
// вызов бэкенда и подпись к результату. Этапы идут строго по порядку,
// первая ошибка останавливает конвейер.
package inpaint

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"inpaint-bot/api/internal/mask"
	"inpaint-bot/api/internal/store"
	"inpaint-bot/api/internal/translate"
)

const DefaultPrompt = "inpaint"

// EditRequest — то, что уходит в бэкенд редактирования.
type EditRequest struct {
	Image  []byte
	Mask   []byte // PNG, оттенки серого, 255 = перерисовать
	Prompt string
}

// Editor — удалённый бэкенд inpaint. Ошибки ответа — *BackendError.
type Editor interface {
	Edit(ctx context.Context, req EditRequest) ([]byte, error)
}

// SourceResolver достаёт байты исходного изображения по ссылке из WebApp.
type SourceResolver interface {
	Resolve(ctx context.Context, ref string) ([]byte, error)
}

// Translator — перевод промпта без ошибок наружу (см. translate.Chain).
type Translator interface {
	Translate(ctx context.Context, text string) translate.Outcome
}

// Result — успешный результат: картинка и подпись.
type Result struct {
	Image       []byte
	Caption     string
	Prompt      string // что ушло в бэкенд
	Translation translate.Outcome
}

type Orchestrator struct {
	Images     store.LastImageStore // может быть nil
	Source     SourceResolver
	Translator Translator // nil — без перевода
	Editor     Editor

	DefaultPrompt string
	MaxMaskPixels int
	// StageTimeout ограничивает загрузку исходника и вызов бэкенда по отдельности.
	StageTimeout time.Duration

	Log *zap.Logger
}

// Run выполняет запрос пользователя userID. Ошибка всегда одного из типов
// этапов; текст для пользователя — UserMessage(err).
func (o *Orchestrator) Run(ctx context.Context, userID int64, p Payload) (*Result, error) {
	log := o.logger().With(zap.Int64("user_id", userID))

	res, err := o.run(ctx, log, userID, p)
	if err != nil {
		log.Error("inpaint failed", zap.String("stage", string(StageOf(err))), zap.Error(err))
		return nil, err
	}
	log.Info("inpaint done",
		zap.Int("bytes", len(res.Image)),
		zap.String("translated_by", res.Translation.Provider))
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, log *zap.Logger, userID int64, p Payload) (*Result, error) {
	p.Img = strings.TrimSpace(p.Img)
	if p.Img == "" && o.Images != nil {
		ref, err := o.Images.Get(ctx, userID)
		switch {
		case err == nil:
			log.Debug("using last image", zap.String("img", ref))
			p.Img = ref
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("last image lookup failed", zap.Error(err))
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	maskPNG, err := mask.Build(p.maskRequest(o.MaxMaskPixels))
	if err != nil {
		return nil, &MaskBuildError{Err: err}
	}

	src, err := o.resolve(ctx, p.Img)
	if err != nil {
		return nil, &SourceFetchError{Ref: p.Img, Err: err}
	}

	orig := strings.TrimSpace(p.Prompt)
	out := translate.Outcome{Text: orig}
	if orig != "" && o.Translator != nil {
		out = o.Translator.Translate(ctx, orig)
	}
	send := strings.TrimSpace(out.Text)
	if send == "" {
		send = o.defaultPrompt()
	}

	img, err := o.edit(ctx, EditRequest{Image: src, Mask: maskPNG, Prompt: send})
	if err != nil {
		var be *BackendError
		if !errors.As(err, &be) {
			err = &BackendError{Err: err}
		}
		return nil, err
	}

	return &Result{
		Image:       img,
		Caption:     Caption(orig, out),
		Prompt:      send,
		Translation: out,
	}, nil
}

func (o *Orchestrator) resolve(ctx context.Context, ref string) ([]byte, error) {
	ctx, cancel := o.stageContext(ctx)
	defer cancel()
	b, err := o.Source.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, errors.New("empty source image")
	}
	return b, nil
}

func (o *Orchestrator) edit(ctx context.Context, req EditRequest) ([]byte, error) {
	ctx, cancel := o.stageContext(ctx)
	defer cancel()
	return o.Editor.Edit(ctx, req)
}

func (o *Orchestrator) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.StageTimeout > 0 {
		return context.WithTimeout(ctx, o.StageTimeout)
	}
	return context.WithCancel(ctx)
}

func (o *Orchestrator) defaultPrompt() string {
	if s := strings.TrimSpace(o.DefaultPrompt); s != "" {
		return s
	}
	return DefaultPrompt
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

// Caption — подпись к готовому изображению.
func Caption(orig string, out translate.Outcome) string {
	c := "Готово ✨"
	switch {
	case orig == "":
		return c
	case out.Translated():
		return c + "\nPrompt (" + translate.SourceLang + "→" + translate.TargetLang + ", " + out.Provider + "): " + orig + " → " + out.Text
	default:
		return c + "\nPrompt: " + orig
	}
}
