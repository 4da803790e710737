package mask

import (
	"encoding/base64"
	"errors"
	"math/rand"
	"testing"
)

// pack — обратное Decode: 1 бит на пиксель, MSB first.
func pack(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, on := range bits {
		if on {
			out[i/8] |= 0x80 >> uint(i%8)
		}
	}
	return out
}

func TestDecodeSingleByte(t *testing.T) {
	t.Parallel()

	m := Decode([]byte{0b11000000}, 2, 2)
	want := []byte{255, 255, 0, 0}
	if len(m.Pix) != len(want) {
		t.Fatalf("len = %d, want %d", len(m.Pix), len(want))
	}
	for i := range want {
		if m.Pix[i] != want[i] {
			t.Errorf("pix[%d] = %d, want %d", i, m.Pix[i], want[i])
		}
	}
}

func TestDecodeBitOrderAndLength(t *testing.T) {
	t.Parallel()

	raw := []byte{0b10110010, 0b01111111, 0xFF}
	cases := []struct{ w, h int }{{1, 1}, {3, 1}, {4, 2}, {5, 3}, {4, 6}, {10, 10}}
	for _, tc := range cases {
		m := Decode(raw, tc.w, tc.h)
		total := tc.w * tc.h
		if len(m.Pix) != total {
			t.Fatalf("%dx%d: len = %d", tc.w, tc.h, len(m.Pix))
		}
		for i := 0; i < total; i++ {
			var want byte
			if i < 8*len(raw) && (raw[i/8]>>uint(7-i%8))&1 == 1 {
				want = 255
			}
			if m.Pix[i] != want {
				t.Errorf("%dx%d: pix[%d] = %d, want %d", tc.w, tc.h, i, m.Pix[i], want)
			}
		}
	}
}

func TestDecodeShortInputIsZeroPadded(t *testing.T) {
	t.Parallel()

	m := Decode([]byte{0xFF}, 4, 4)
	for i, p := range m.Pix {
		want := byte(0)
		if i < 8 {
			want = 255
		}
		if p != want {
			t.Errorf("pix[%d] = %d, want %d", i, p, want)
		}
	}

	empty := Decode(nil, 3, 3)
	for i, p := range empty.Pix {
		if p != 0 {
			t.Errorf("empty input: pix[%d] = %d", i, p)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for _, size := range [][2]int{{1, 1}, {7, 3}, {8, 8}, {13, 11}, {64, 33}} {
		w, h := size[0], size[1]
		bits := make([]bool, w*h)
		for i := range bits {
			bits[i] = rng.Intn(2) == 1
		}
		m := Decode(pack(bits), w, h)
		for i, on := range bits {
			got := m.Pix[i] == 255
			if got != on {
				t.Fatalf("%dx%d: pix[%d] = %d, want on=%v", w, h, i, m.Pix[i], on)
			}
			if m.Pix[i] != 0 && m.Pix[i] != 255 {
				t.Fatalf("%dx%d: non-binary pixel %d", w, h, m.Pix[i])
			}
		}
	}
}

func TestDecodeBase64(t *testing.T) {
	t.Parallel()

	b64 := base64.StdEncoding.EncodeToString([]byte{0b11000000})
	m, err := DecodeBase64(b64, 2, 2)
	if err != nil {
		t.Fatalf("DecodeBase64: %v", err)
	}
	if m.Pix[0] != 255 || m.Pix[1] != 255 || m.Pix[2] != 0 || m.Pix[3] != 0 {
		t.Errorf("pix = %v", m.Pix)
	}

	_, err = DecodeBase64("%%%", 2, 2)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("malformed input: want *DecodeError, got %v", err)
	}

	if _, err := DecodeBase64(b64, 0, 2); !errors.As(err, &de) {
		t.Fatalf("zero width: want *DecodeError, got %v", err)
	}
}
