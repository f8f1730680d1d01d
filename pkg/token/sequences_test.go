package token

import (
	"bytes"
	"errors"
	"testing"
)

func TestStaticArrayRoundTrip(t *testing.T) {
	arr := NewStatic(3, NewArray("xs", Uint16("xs")))

	in := Seq(Uint(1), Uint(2), Uint(0x1234))
	payload, err := arr.Encode(Scope{"xs": in}, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := []byte{0x00, 0x01, 0x00, 0x02, 0x12, 0x34}
	if !bytes.Equal(payload, want) {
		t.Fatalf("encoded % X, want % X", payload, want)
	}

	scope := Scope{}
	rest, err := arr.Decode(payload, scope)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("decode left %d bytes", len(rest))
	}
	if !scope["xs"].Equal(in) {
		t.Fatalf("round trip gave %s, want %s", scope["xs"], in)
	}
}

func TestStaticArrayWrongElementCount(t *testing.T) {
	arr := NewStatic(3, NewArray("xs", Uint8("xs")))
	var mismatch *LengthMismatchError
	_, err := arr.Encode(Scope{"xs": Seq(Uint(1), Uint(2))}, nil)
	if !errors.As(err, &mismatch) {
		t.Fatalf("want LengthMismatchError, got %v", err)
	}

	// Measurement must fail exactly where encoding would, not report the
	// length of a frame that cannot be produced.
	if _, err := arr.EncodeLen(Scope{"xs": Seq(Uint(1), Uint(2))}); !errors.As(err, &mismatch) {
		t.Fatalf("EncodeLen: want LengthMismatchError, got %v", err)
	}
}

func TestReversedArray(t *testing.T) {
	arr := NewStatic(3, NewArray("xs", Uint8("xs")).Reversed())

	payload, err := arr.Encode(Scope{"xs": Seq(Uint(1), Uint(2), Uint(3))}, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(payload, []byte{3, 2, 1}) {
		t.Fatalf("encoded % X, want 03 02 01", payload)
	}

	scope := Scope{}
	if _, err := arr.Decode(payload, scope); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !scope["xs"].Equal(Seq(Uint(1), Uint(2), Uint(3))) {
		t.Fatalf("round trip gave %s", scope["xs"])
	}
}

func TestConsumerArrayTakesRemainder(t *testing.T) {
	arr := NewConsumer(NewArray("xs", Uint16("xs")))

	scope := Scope{}
	rest, err := arr.Decode([]byte{0, 1, 0, 2, 0, 3}, scope)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("consumer left %d bytes", len(rest))
	}
	if !scope["xs"].Equal(Seq(Uint(1), Uint(2), Uint(3))) {
		t.Fatalf("decoded %s", scope["xs"])
	}

	// Encode writes however many elements the value holds.
	payload, err := arr.Encode(Scope{"xs": Seq(Uint(7))}, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(payload, []byte{0, 7}) {
		t.Fatalf("encoded % X", payload)
	}
}

func TestStringPaddingAndTruncation(t *testing.T) {
	testCases := []struct {
		name    string
		in      []byte
		wire    []byte
		decoded []byte
	}{
		{"exact", []byte("fits!"), []byte("fits!"), []byte("fits!")},
		{"padded", []byte("hi"), []byte{'h', 'i', 0, 0, 0}, []byte("hi")},
		{"truncated", []byte("overflowing"), []byte("overf"), []byte("overf")},
	}

	field := NewStatic(5, NewString("s"))
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := field.Encode(Scope{"s": Bytes(tc.in)}, nil)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if !bytes.Equal(payload, tc.wire) {
				t.Fatalf("encoded % X, want % X", payload, tc.wire)
			}

			scope := Scope{}
			if _, err := field.Decode(payload, scope); err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !bytes.Equal(scope["s"].Bytes(), tc.decoded) {
				t.Fatalf("decoded %q, want %q", scope["s"].Bytes(), tc.decoded)
			}
		})
	}
}

func TestBytesKeepsTrailingZeros(t *testing.T) {
	// NewString strips NUL padding; NewBytes must not, or binary values
	// ending in zero bytes would be mangled.
	in := []byte{0xAB, 0x00, 0x00}
	field := NewStatic(3, NewBytes("b"))

	payload, err := field.Encode(Scope{"b": Bytes(in)}, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	scope := Scope{}
	if _, err := field.Decode(payload, scope); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(scope["b"].Bytes(), in) {
		t.Fatalf("decoded % X, want % X", scope["b"].Bytes(), in)
	}
}

func TestConsumerString(t *testing.T) {
	field := NewConsumer(NewString("s"))

	scope := Scope{}
	rest, err := field.Decode([]byte("everything left"), scope)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("consumer left %d bytes", len(rest))
	}
	if string(scope["s"].Bytes()) != "everything left" {
		t.Fatalf("decoded %q", scope["s"].Bytes())
	}

	// No padding processing in consume mode: trailing NULs survive.
	scope = Scope{}
	if _, err := field.Decode([]byte{'x', 0, 0}, scope); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(scope["s"].Bytes(), []byte{'x', 0, 0}) {
		t.Fatalf("decoded % X", scope["s"].Bytes())
	}
}

func TestReversedString(t *testing.T) {
	field := NewStatic(4, NewString("s").Reversed())

	payload, err := field.Encode(Scope{"s": Str("abcd")}, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(payload) != "dcba" {
		t.Fatalf("encoded %q, want %q", payload, "dcba")
	}

	scope := Scope{}
	if _, err := field.Decode(payload, scope); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if string(scope["s"].Bytes()) != "abcd" {
		t.Fatalf("round trip gave %q", scope["s"].Bytes())
	}
}

func TestStringInsufficientData(t *testing.T) {
	field := NewStatic(8, NewString("s"))
	var short *InsufficientDataError
	if _, err := field.Decode([]byte("tiny"), Scope{}); !errors.As(err, &short) {
		t.Fatalf("want InsufficientDataError, got %v", err)
	}
}

func TestSequenceMeasure(t *testing.T) {
	arr := NewStatic(3, NewArray("xs", Uint16("xs")))
	if n, err := arr.EncodeLen(Scope{"xs": Seq(Uint(1), Uint(2), Uint(3))}); err != nil || n != 6 {
		t.Fatalf("EncodeLen = %d, %v; want 6, nil", n, err)
	}
	if n, err := arr.DecodeLen(make([]byte, 10)); err != nil || n != 6 {
		t.Fatalf("DecodeLen = %d, %v; want 6, nil", n, err)
	}

	blob := NewConsumer(NewBytes("b"))
	if n, err := blob.DecodeLen(make([]byte, 17)); err != nil || n != 17 {
		t.Fatalf("consumer DecodeLen = %d, %v; want 17, nil", n, err)
	}
	if n, err := blob.EncodeLen(Scope{"b": Bytes([]byte("abc"))}); err != nil || n != 3 {
		t.Fatalf("consumer EncodeLen = %d, %v; want 3, nil", n, err)
	}
}

func TestArrayOfStructs(t *testing.T) {
	point, err := NewStruct("pt",
		Int16("x"),
		Int16("y"),
	)
	if err != nil {
		t.Fatalf("NewStruct failed: %v", err)
	}
	arr := NewStatic(2, NewArray("pts", point))

	in := Seq(
		Map(Scope{"x": Int(1), "y": Int(-1)}),
		Map(Scope{"x": Int(2), "y": Int(-2)}),
	)
	payload, err := arr.Encode(Scope{"pts": in}, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(payload) != 8 {
		t.Fatalf("encoded %d bytes, want 8", len(payload))
	}

	scope := Scope{}
	if _, err := arr.Decode(payload, scope); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !scope["pts"].Equal(in) {
		t.Fatalf("round trip gave %s, want %s", scope["pts"], in)
	}
}
