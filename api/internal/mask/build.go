package mask

import "fmt"

// Request — всё, что нужно для сборки маски одного запроса.
type Request struct {
	Bitmask   string // base64
	BitmapW   int
	BitmapH   int
	NaturalW  int
	NaturalH  int
	Box       Box
	MaxPixels int // 0 — без ограничения
}

// Build декодирует битовую маску, собирает маску в полном разрешении и кодирует её в PNG.
func Build(s Request) ([]byte, error) {
	if err := checkPixels("bitmap", s.BitmapW, s.BitmapH, s.MaxPixels); err != nil {
		return nil, err
	}
	if err := checkPixels("image", s.NaturalW, s.NaturalH, s.MaxPixels); err != nil {
		return nil, err
	}
	small, err := DecodeBase64(s.Bitmask, s.BitmapW, s.BitmapH)
	if err != nil {
		return nil, err
	}
	full := Compose(s.NaturalW, s.NaturalH, s.Box, small)
	return EncodePNG(full)
}

func checkPixels(what string, w, h, limit int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%s size %dx%d must be positive", what, w, h)
	}
	if limit > 0 && w > limit/h {
		return fmt.Errorf("%s %dx%d exceeds %d pixels", what, w, h, limit)
	}
	return nil
}
