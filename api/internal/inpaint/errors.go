package inpaint

import (
	"errors"
	"fmt"
	"strings"

	"inpaint-bot/api/internal/mask"
)

// Stage — этап конвейера, на котором запрос завершился ошибкой.
type Stage string

const (
	StageValidate Stage = "validate"
	StageMask     Stage = "mask"
	StageSource   Stage = "source"
	StageEdit     Stage = "edit"
	StageUnknown  Stage = "unknown"
)

// ValidationError — нет обязательных полей или они некорректны.
type ValidationError struct {
	Missing []string
	Invalid []string
	Err     error
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Fields — все проблемные поля по порядку.
func (e *ValidationError) Fields() []string {
	return append(append([]string(nil), e.Missing...), e.Invalid...)
}

// MaskBuildError — не удалось декодировать или собрать маску.
type MaskBuildError struct {
	Err error
}

func (e *MaskBuildError) Error() string { return "mask build: " + e.Err.Error() }

func (e *MaskBuildError) Unwrap() error { return e.Err }

// SourceFetchError — не удалось прочитать или скачать исходное изображение.
type SourceFetchError struct {
	Ref string
	Err error
}

func (e *SourceFetchError) Error() string { return "source fetch: " + e.Err.Error() }

func (e *SourceFetchError) Unwrap() error { return e.Err }

// BackendError — бэкенд редактирования ответил не 200 или не картинкой.
// Status 0 — ответа не было (сеть, таймаут).
type BackendError struct {
	Status      int
	ContentType string
	Body        string // усечённое тело ответа
	Err         error
}

func (e *BackendError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return "backend: " + e.Err.Error()
	case e.ContentType != "" && e.Status == 200:
		return fmt.Sprintf("backend: unexpected content-type %s | body: %s", e.ContentType, e.Body)
	default:
		return fmt.Sprintf("backend: status %d: %s", e.Status, e.Body)
	}
}

func (e *BackendError) Unwrap() error { return e.Err }

// StageOf определяет этап по типу ошибки.
func StageOf(err error) Stage {
	var (
		ve *ValidationError
		me *MaskBuildError
		de *mask.DecodeError
		se *SourceFetchError
		be *BackendError
	)
	switch {
	case errors.As(err, &ve):
		return StageValidate
	case errors.As(err, &me), errors.As(err, &de):
		return StageMask
	case errors.As(err, &se):
		return StageSource
	case errors.As(err, &be):
		return StageEdit
	default:
		return StageUnknown
	}
}

// UserMessage — одно короткое сообщение для пользователя, без внутренних деталей
// (кроме усечённого ответа бэкенда).
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		ve *ValidationError
		de *mask.DecodeError
		be *BackendError
	)
	switch StageOf(err) {
	case StageValidate:
		errors.As(err, &ve)
		if len(ve.Missing) == 0 && len(ve.Invalid) == 1 && ve.Invalid[0] == "payload" {
			return "❌ Ошибка JSON: данные кисти не читаются. Откройте кисть и попробуйте снова."
		}
		return "❌ Нет обязательных полей (" + strings.Join(ve.Fields(), ", ") + "). Откройте кисть и попробуйте снова."
	case StageMask:
		if errors.As(err, &de) {
			return "❌ Ошибка сборки маски: битовая маска повреждена. Выделите область заново."
		}
		return "❌ Ошибка сборки маски. Выделите область заново."
	case StageSource:
		return "❌ Ошибка загрузки исходного изображения. Пришлите фото ещё раз."
	case StageEdit:
		errors.As(err, &be)
		switch {
		case be.Status == 0:
			return "❌ Ошибка Stability: сервис недоступен, попробуйте позже."
		case be.Status == 200:
			return fmt.Sprintf("❌ Ошибка Stability: неожиданный ответ (%s): %s", be.ContentType, be.Body)
		default:
			return fmt.Sprintf("❌ Ошибка Stability: %d %s", be.Status, be.Body)
		}
	default:
		return "❌ Внутренняя ошибка. Попробуйте ещё раз."
	}
}
