package token

import (
	"bytes"
	"errors"
	"testing"
)

func TestIntegerEndianness(t *testing.T) {
	testCases := []struct {
		name  string
		field *Integer
		value Value
		want  []byte
	}{
		{"uint16 big endian", Uint16("v"), Uint(0x1234), []byte{0x12, 0x34}},
		{"uint16 little endian", Uint16("v").Little(), Uint(0x1234), []byte{0x34, 0x12}},
		{"uint32 big endian", Uint32("v"), Uint(0xDEADBEEF), []byte{0xDE, 0xAD, 0xBE, 0xEF}},
		{"uint32 little endian", Uint32("v").Little(), Uint(0xDEADBEEF), []byte{0xEF, 0xBE, 0xAD, 0xDE}},
		{"uint8", Uint8("v"), Uint(0x7F), []byte{0x7F}},
		{"int8 negative", Int8("v"), Int(-1), []byte{0xFF}},
		{"int16 negative big endian", Int16("v"), Int(-2), []byte{0xFF, 0xFE}},
		{"uint64 big endian", Uint64("v"), Uint(0x0102030405060708),
			[]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := tc.field.Encode(Scope{"v": tc.value}, nil)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if !bytes.Equal(payload, tc.want) {
				t.Fatalf("encoded % X, want % X", payload, tc.want)
			}

			scope := Scope{}
			rest, err := tc.field.Decode(payload, scope)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if len(rest) != 0 {
				t.Fatalf("decode left %d bytes", len(rest))
			}
			if !scope["v"].Equal(tc.value) {
				t.Fatalf("round trip gave %s, want %s", scope["v"], tc.value)
			}
		})
	}
}

func TestIntegerWraparound(t *testing.T) {
	// Out-of-range values wrap like fixed-width registers instead of failing.
	payload, err := Uint8("v").Encode(Scope{"v": Uint(0x1FF)}, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(payload, []byte{0xFF}) {
		t.Fatalf("encoded % X, want FF", payload)
	}

	payload, err = Int8("v").Encode(Scope{"v": Int(-129)}, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(payload, []byte{0x7F}) {
		t.Fatalf("encoded % X, want 7F", payload)
	}
}

func TestIntegerErrors(t *testing.T) {
	var missing *MissingFieldError
	if _, err := Uint16("v").Encode(Scope{}, nil); !errors.As(err, &missing) {
		t.Fatalf("want MissingFieldError, got %v", err)
	}

	var short *InsufficientDataError
	if _, err := Uint32("v").Decode([]byte{1, 2}, Scope{}); !errors.As(err, &short) {
		t.Fatalf("want InsufficientDataError, got %v", err)
	}
	if short.Need != 4 || short.Have != 2 {
		t.Fatalf("unexpected sizes in error: %v", short)
	}

	var kind *KindError
	if _, err := Uint16("v").Encode(Scope{"v": Str("nope")}, nil); !errors.As(err, &kind) {
		t.Fatalf("want KindError, got %v", err)
	}

	if _, err := NewInteger("v", false, 3); err == nil {
		t.Fatal("width 3 must be rejected")
	}
	if _, err := NewReal("v", 2); err == nil {
		t.Fatal("float width 2 must be rejected")
	}
}

func TestFloatRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		field *Real
		value float64
	}{
		{"double", Float64("v"), 3.14159265358979},
		{"double little endian", Float64("v").Little(), -2.5e-7},
		{"single", Float32("v"), 1.5},
		{"single zero", Float32("v"), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := tc.field.Encode(Scope{"v": Float(tc.value)}, nil)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			wantLen, _ := tc.field.EncodeLen(nil)
			if len(payload) != wantLen {
				t.Fatalf("encoded %d bytes, want %d", len(payload), wantLen)
			}

			scope := Scope{}
			if _, err := tc.field.Decode(payload, scope); err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if scope["v"].Float() != tc.value {
				t.Fatalf("round trip gave %v, want %v", scope["v"].Float(), tc.value)
			}
		})
	}
}

func TestFloatSinglePrecisionRounds(t *testing.T) {
	// 1/3 is not representable in single precision; the round trip lands on
	// the nearest float32, not the original double.
	in := 1.0 / 3.0
	payload, err := Float32("v").Encode(Scope{"v": Float(in)}, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	scope := Scope{}
	if _, err := Float32("v").Decode(payload, scope); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	got := scope["v"].Float()
	if got == in {
		t.Fatal("expected precision loss through float32")
	}
	if float32(got) != float32(in) {
		t.Fatalf("got %v, want the float32 rounding of %v", got, in)
	}
}

func TestIntegerMeasure(t *testing.T) {
	f := Uint32("v")
	if n, _ := f.EncodeLen(nil); n != 4 {
		t.Fatalf("EncodeLen = %d, want 4", n)
	}
	if n, err := f.DecodeLen(make([]byte, 10)); err != nil || n != 4 {
		t.Fatalf("DecodeLen = %d, %v; want 4, nil", n, err)
	}
	if _, err := f.DecodeLen(make([]byte, 3)); err == nil {
		t.Fatal("DecodeLen on short buffer must fail")
	}
}
