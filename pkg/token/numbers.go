package token

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Integer is a fixed-width integer codec. Width is one of 1, 2, 4, or 8
// bytes, fixed at construction. Byte order defaults to network order
// (big-endian) and is configurable per field.
//
// Values that do not fit the declared width wrap like two's-complement
// hardware registers; out-of-range input is not a validation error.
type Integer struct {
	name   string
	signed bool
	width  int
	order  binary.ByteOrder
}

// NewInteger creates an integer codec of the given signedness and byte
// width. Width must be 1, 2, 4, or 8.
func NewInteger(name string, signed bool, width int) (*Integer, error) {
	switch width {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("integer width must be 1, 2, 4 or 8, got %d", width)
	}
	return &Integer{name: name, signed: signed, width: width, order: binary.BigEndian}, nil
}

func mustInteger(name string, signed bool, width int) *Integer {
	i, err := NewInteger(name, signed, width)
	if err != nil {
		panic(err)
	}
	return i
}

// Shorthand constructors for the usual C99-style widths.

func Uint8(name string) *Integer  { return mustInteger(name, false, 1) }
func Uint16(name string) *Integer { return mustInteger(name, false, 2) }
func Uint32(name string) *Integer { return mustInteger(name, false, 4) }
func Uint64(name string) *Integer { return mustInteger(name, false, 8) }
func Int8(name string) *Integer   { return mustInteger(name, true, 1) }
func Int16(name string) *Integer  { return mustInteger(name, true, 2) }
func Int32(name string) *Integer  { return mustInteger(name, true, 4) }
func Int64(name string) *Integer  { return mustInteger(name, true, 8) }

// Little switches the field to little-endian byte order. Returns the
// receiver for chaining during schema construction.
func (i *Integer) Little() *Integer {
	i.order = binary.LittleEndian
	return i
}

// Big switches the field to big-endian (network) byte order.
func (i *Integer) Big() *Integer {
	i.order = binary.BigEndian
	return i
}

// Native switches the field to the platform's native byte order.
func (i *Integer) Native() *Integer {
	i.order = binary.NativeEndian
	return i
}

// Name returns the field name.
func (i *Integer) Name() string { return i.name }

func (i *Integer) consuming() bool { return false }

// Encode looks up the scalar by name and appends exactly width bytes.
func (i *Integer) Encode(scope Scope, payload []byte) ([]byte, error) {
	v, ok := scope[i.name]
	if !ok {
		return nil, &MissingFieldError{Field: i.name}
	}
	if !v.isScalarInt() {
		return nil, &KindError{Field: i.name, Want: KindInt, Got: v.Kind()}
	}
	return appendUint(payload, v.Uint(), i.width, i.order), nil
}

// Decode consumes exactly width bytes and stores the scalar under the field
// name, signed or unsigned per the codec.
func (i *Integer) Decode(payload []byte, scope Scope) ([]byte, error) {
	if len(payload) < i.width {
		return nil, &InsufficientDataError{Field: i.name, Need: i.width, Have: len(payload)}
	}
	u := readUint(payload, i.width, i.order)
	if i.signed {
		scope[i.name] = Int(signExtend(u, i.width))
	} else {
		scope[i.name] = Uint(u)
	}
	return payload[i.width:], nil
}

// EncodeLen returns the fixed byte width.
func (i *Integer) EncodeLen(Scope) (int, error) { return i.width, nil }

// DecodeLen returns the fixed byte width, checking availability.
func (i *Integer) DecodeLen(payload []byte) (int, error) {
	if len(payload) < i.width {
		return 0, &InsufficientDataError{Field: i.name, Need: i.width, Have: len(payload)}
	}
	return i.width, nil
}

// Real is a fixed-width IEEE 754 codec of 4 (single) or 8 (double) bytes.
// Byte order defaults to network order, like Integer.
type Real struct {
	name  string
	width int
	order binary.ByteOrder
}

// NewReal creates a float codec. Width must be 4 or 8.
func NewReal(name string, width int) (*Real, error) {
	if width != 4 && width != 8 {
		return nil, fmt.Errorf("float width must be 4 or 8, got %d", width)
	}
	return &Real{name: name, width: width, order: binary.BigEndian}, nil
}

// Float32 creates a single-precision field.
func Float32(name string) *Real {
	f, _ := NewReal(name, 4)
	return f
}

// Float64 creates a double-precision field.
func Float64(name string) *Real {
	f, _ := NewReal(name, 8)
	return f
}

// Little switches the field to little-endian byte order.
func (f *Real) Little() *Real {
	f.order = binary.LittleEndian
	return f
}

// Big switches the field to big-endian (network) byte order.
func (f *Real) Big() *Real {
	f.order = binary.BigEndian
	return f
}

// Name returns the field name.
func (f *Real) Name() string { return f.name }

func (f *Real) consuming() bool { return false }

// Encode looks up the scalar by name and appends its IEEE 754 bits.
// Integer values are converted; single precision rounds accordingly.
func (f *Real) Encode(scope Scope, payload []byte) ([]byte, error) {
	v, ok := scope[f.name]
	if !ok {
		return nil, &MissingFieldError{Field: f.name}
	}
	if v.Kind() != KindFloat && !v.isScalarInt() {
		return nil, &KindError{Field: f.name, Want: KindFloat, Got: v.Kind()}
	}
	var bits uint64
	if f.width == 4 {
		bits = uint64(math.Float32bits(float32(v.Float())))
	} else {
		bits = math.Float64bits(v.Float())
	}
	return appendUint(payload, bits, f.width, f.order), nil
}

// Decode consumes exactly width bytes and stores the float under the field
// name.
func (f *Real) Decode(payload []byte, scope Scope) ([]byte, error) {
	if len(payload) < f.width {
		return nil, &InsufficientDataError{Field: f.name, Need: f.width, Have: len(payload)}
	}
	bits := readUint(payload, f.width, f.order)
	if f.width == 4 {
		scope[f.name] = Float(float64(math.Float32frombits(uint32(bits))))
	} else {
		scope[f.name] = Float(math.Float64frombits(bits))
	}
	return payload[f.width:], nil
}

// EncodeLen returns the fixed byte width.
func (f *Real) EncodeLen(Scope) (int, error) { return f.width, nil }

// DecodeLen returns the fixed byte width, checking availability.
func (f *Real) DecodeLen(payload []byte) (int, error) {
	if len(payload) < f.width {
		return 0, &InsufficientDataError{Field: f.name, Need: f.width, Have: len(payload)}
	}
	return f.width, nil
}

// appendUint appends the low width bytes of u to payload in the given order.
func appendUint(payload []byte, u uint64, width int, order binary.ByteOrder) []byte {
	var buf [8]byte
	order.PutUint64(buf[:], u)
	if order == binary.LittleEndian || (order == binary.NativeEndian && nativeIsLittle()) {
		return append(payload, buf[:width]...)
	}
	return append(payload, buf[8-width:]...)
}

// readUint reads width bytes from the front of payload in the given order.
func readUint(payload []byte, width int, order binary.ByteOrder) uint64 {
	var buf [8]byte
	if order == binary.LittleEndian || (order == binary.NativeEndian && nativeIsLittle()) {
		copy(buf[:width], payload[:width])
	} else {
		copy(buf[8-width:], payload[:width])
	}
	return order.Uint64(buf[:])
}

// signExtend widens the low width bytes of u into a signed 64-bit value.
func signExtend(u uint64, width int) int64 {
	shift := uint(64 - width*8)
	return int64(u<<shift) >> shift
}

// nativeIsLittle probes the platform byte order once per call; the compiler
// folds this to a constant.
func nativeIsLittle() bool {
	var buf [2]byte
	binary.NativeEndian.PutUint16(buf[:], 1)
	return buf[0] == 1
}
