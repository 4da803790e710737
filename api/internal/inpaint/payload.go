package inpaint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"inpaint-bot/api/internal/mask"
)

// Int принимает из JSON целое, дробное (отбрасывает дробную часть) или строку с числом.
type Int int

func (n *Int) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("not a number: %s", string(b))
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("number out of range: %s", string(b))
	}
	*n = Int(f)
	return nil
}

// Payload — данные, которые WebApp-кисть присылает боту.
type Payload struct {
	Img     string `json:"img"`
	Prompt  string `json:"prompt"`
	NatW    Int    `json:"nat_w"`
	NatH    Int    `json:"nat_h"`
	BmW     Int    `json:"bm_w"`
	BmH     Int    `json:"bm_h"`
	BBox    []Int  `json:"bbox"`
	Bitmask string `json:"bitmask"`
}

// ParsePayload; некорректный JSON — ValidationError.
func ParsePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, &ValidationError{Invalid: []string{"payload"}, Err: err}
	}
	p.Img = strings.TrimSpace(p.Img)
	p.Prompt = strings.TrimSpace(p.Prompt)
	p.Bitmask = strings.TrimSpace(p.Bitmask)
	return p, nil
}

// Validate перечисляет все отсутствующие и некорректные поля сразу.
func (p Payload) Validate() error {
	var missing, invalid []string
	if p.Img == "" {
		missing = append(missing, "img")
	}
	if p.Bitmask == "" {
		missing = append(missing, "bitmask")
	}
	dims := []struct {
		name string
		v    Int
	}{{"nat_w", p.NatW}, {"nat_h", p.NatH}, {"bm_w", p.BmW}, {"bm_h", p.BmH}}
	for _, d := range dims {
		switch {
		case d.v == 0:
			missing = append(missing, d.name)
		case d.v < 0:
			invalid = append(invalid, d.name)
		}
	}
	switch {
	case p.BBox == nil:
		missing = append(missing, "bbox")
	case len(p.BBox) != 4:
		invalid = append(invalid, "bbox")
	}
	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}
	return &ValidationError{Missing: missing, Invalid: invalid}
}

// Box — bbox как mask.Box; вызывать после Validate.
func (p Payload) Box() mask.Box {
	if len(p.BBox) != 4 {
		return mask.Box{}
	}
	return mask.Box{X: int(p.BBox[0]), Y: int(p.BBox[1]), W: int(p.BBox[2]), H: int(p.BBox[3])}
}

func (p Payload) maskRequest(maxPixels int) mask.Request {
	return mask.Request{
		Bitmask:   p.Bitmask,
		BitmapW:   int(p.BmW),
		BitmapH:   int(p.BmH),
		NaturalW:  int(p.NatW),
		NaturalH:  int(p.NatH),
		Box:       p.Box(),
		MaxPixels: maxPixels,
	}
}
