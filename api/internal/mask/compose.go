package mask

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// Box — прямоугольник выделения в координатах исходного изображения.
// Может частично или полностью выходить за холст.
type Box struct {
	X, Y, W, H int
}

// Compose кладёт small, растянутую в box, на нулевой холст natW×natH.
// Масштабирование — только nearest-neighbor: оно не даёт промежуточных серых значений.
// Вне отсечённого box холст не трогается.
func Compose(natW, natH int, box Box, small *image.Gray) *image.Gray {
	canvas := image.NewGray(image.Rect(0, 0, natW, natH))
	if box.X >= natW || box.Y >= natH || box.W <= 0 || box.H <= 0 {
		return canvas
	}
	w := min(box.W, natW-box.X)
	h := min(box.H, natH-box.Y)
	if w <= 0 || h <= 0 {
		return canvas
	}
	// box целиком левее/выше холста
	if box.X+w <= 0 || box.Y+h <= 0 {
		return canvas
	}
	dr := image.Rect(box.X, box.Y, box.X+w, box.Y+h)
	// draw сам отсекает dr по холсту, сохраняя соответствие пикселей исходному dr
	draw.NearestNeighbor.Scale(canvas, dr, small, small.Bounds(), draw.Src, nil)
	return canvas
}

// EncodePNG — одноканальный PNG маски.
func EncodePNG(m *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		return nil, fmt.Errorf("mask png: %w", err)
	}
	return buf.Bytes(), nil
}
