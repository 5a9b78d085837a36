package protocol

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"testing"
)

var varIntVectors = []struct {
	name  string
	value int32
	bytes []byte
}{
	{"zero", 0, []byte{0}},
	{"one", 1, []byte{1}},
	{"two", 2, []byte{2}},
	{"max single byte", 127, []byte{127}},
	{"first two byte", 128, []byte{128, 1}},
	{"max int32", math.MaxInt32, []byte{255, 255, 255, 255, 7}},
	{"minus one", -1, []byte{255, 255, 255, 255, 15}},
	{"min int32", math.MinInt32, []byte{128, 128, 128, 128, 8}},
}

func TestEncodeVarInt(t *testing.T) {
	t.Parallel()

	for _, tt := range varIntVectors {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := EncodeVarInt(tt.value)
			if !bytes.Equal(got, tt.bytes) {
				t.Errorf("EncodeVarInt(%d) = %v, want %v", tt.value, got, tt.bytes)
			}
			if size := VarIntSize(tt.value); size != len(tt.bytes) {
				t.Errorf("VarIntSize(%d) = %d, want %d", tt.value, size, len(tt.bytes))
			}
		})
	}
}

func TestDecodeVarInt(t *testing.T) {
	t.Parallel()

	for _, tt := range varIntVectors {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// trailing bytes belong to the next field and must not be consumed
			buf := append(append([]byte{}, tt.bytes...), 0xAA, 0xBB)
			got, n, err := DecodeVarInt(buf)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.value {
				t.Errorf("expected %d, got %d", tt.value, got)
			}
			if n != len(tt.bytes) {
				t.Errorf("expected %d bytes consumed, got %d", len(tt.bytes), n)
			}
		})
	}
}

func TestDecodeVarIntErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty buffer needs more data", func(t *testing.T) {
		t.Parallel()

		if _, _, err := DecodeVarInt(nil); !errors.Is(err, ErrNotEnoughData) {
			t.Errorf("expected ErrNotEnoughData, got %v", err)
		}
	})

	t.Run("unterminated prefix needs more data", func(t *testing.T) {
		t.Parallel()

		_, n, err := DecodeVarInt([]byte{0xff, 0xff})
		if !errors.Is(err, ErrNotEnoughData) {
			t.Errorf("expected ErrNotEnoughData, got %v", err)
		}
		if n != 0 {
			t.Errorf("expected nothing consumed, got %d", n)
		}
	})

	t.Run("sixth byte is too long", func(t *testing.T) {
		t.Parallel()

		_, _, err := DecodeVarInt([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
		if !errors.Is(err, ErrVarIntTooLong) {
			t.Errorf("expected ErrVarIntTooLong, got %v", err)
		}
		if !IsFormatError(err) {
			t.Error("expected too long varint to be a format error")
		}
	})

	t.Run("five continuation bytes are too long without a sixth", func(t *testing.T) {
		t.Parallel()

		_, _, err := DecodeVarInt([]byte{0xff, 0xff, 0xff, 0xff, 0xff})
		if !errors.Is(err, ErrVarIntTooLong) {
			t.Errorf("expected ErrVarIntTooLong, got %v", err)
		}
	})
}

func TestVarIntRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	values := []int32{math.MinInt32, -1 << 21, -129, -1, 0, 1 << 7, 1 << 14, 1 << 21, 1 << 28, math.MaxInt32}
	for range 2000 {
		values = append(values, int32(rng.Uint32()))
	}

	for _, v := range values {
		enc := EncodeVarInt(v)
		if len(enc) < 1 || len(enc) > MaxVarIntLen {
			t.Fatalf("EncodeVarInt(%d) produced %d bytes", v, len(enc))
		}
		got, n, err := DecodeVarInt(enc)
		if err != nil {
			t.Fatalf("DecodeVarInt(%v): %v", enc, err)
		}
		if got != v || n != len(enc) {
			t.Fatalf("round trip of %d gave (%d, %d), want (%d, %d)", v, got, n, v, len(enc))
		}
		if v < 0 && len(enc) != MaxVarIntLen {
			t.Fatalf("negative %d encoded in %d bytes, want 5", v, len(enc))
		}
	}
}
