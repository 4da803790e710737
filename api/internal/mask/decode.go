package mask

import (
	"errors"
	"fmt"
	"image"

	"inpaint-bot/api/internal/util"
)

// DecodeError — битовая маска не декодируется как base64.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "bitmask decode: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode разворачивает упакованные биты (MSB first, 1 бит на пиксель) в картинку w×h.
// Лишние биты в хвосте игнорируются; если битов не хватает, остаток маски — нули.
func Decode(raw []byte, w, h int) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, w, h))
	total := w * h
	idx := 0
	for _, b := range raw {
		for bit := 7; bit >= 0 && idx < total; bit-- {
			if (b>>uint(bit))&1 == 1 {
				m.Pix[idx] = 255
			}
			idx++
		}
		if idx >= total {
			break
		}
	}
	return m
}

// DecodeBase64 — Decode поверх base64-текста из payload.
func DecodeBase64(b64 string, w, h int) (*image.Gray, error) {
	if w <= 0 || h <= 0 {
		return nil, &DecodeError{Err: fmt.Errorf("bad bitmap size %dx%d", w, h)}
	}
	raw, _, err := util.DecodeBase64MaybeDataURL(b64)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if len(raw) == 0 {
		return nil, &DecodeError{Err: errors.New("empty bitmask")}
	}
	return Decode(raw, w, h), nil
}
