package token

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Kind discriminates the variants a Value can hold.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt          // signed integer scalar
	KindUint         // unsigned integer scalar
	KindFloat        // floating-point scalar
	KindBytes        // raw byte string
	KindSeq          // ordered sequence of values
	KindMap          // nested scope keyed by field name
)

// String returns the kind name for error messages.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	case KindSeq:
		return "seq"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Value is a tagged variant: exactly one of the representations is active,
// selected by Kind. Using a closed variant instead of an untyped map keeps
// schema/value mismatches structural rather than panics at access time.
type Value struct {
	kind Kind
	num  uint64 // scalar storage: int (two's complement), uint, or float bits
	bs   []byte
	seq  []Value
	m    Scope
}

// Scope is the value tree threaded through encode and decode. Every struct
// token reads and writes a nested Scope keyed by its own name.
type Scope map[string]Value

// Int wraps a signed integer scalar.
func Int(i int64) Value { return Value{kind: KindInt, num: uint64(i)} }

// Uint wraps an unsigned integer scalar.
func Uint(u uint64) Value { return Value{kind: KindUint, num: u} }

// Float wraps a floating-point scalar.
func Float(f float64) Value { return Value{kind: KindFloat, num: math.Float64bits(f)} }

// Bytes wraps a raw byte string.
func Bytes(b []byte) Value { return Value{kind: KindBytes, bs: b} }

// Str wraps a string as a byte string value.
func Str(s string) Value { return Value{kind: KindBytes, bs: []byte(s)} }

// Seq wraps an ordered sequence of values.
func Seq(vs ...Value) Value { return Value{kind: KindSeq, seq: vs} }

// Map wraps a nested scope.
func Map(m Scope) Value { return Value{kind: KindMap, m: m} }

// Kind reports which variant is active.
func (v Value) Kind() Kind { return v.kind }

// Int returns the scalar as a signed integer. Unsigned values are
// reinterpreted bit-for-bit.
func (v Value) Int() int64 { return int64(v.num) }

// Uint returns the scalar as an unsigned integer. Signed values are
// reinterpreted bit-for-bit (two's complement).
func (v Value) Uint() uint64 { return v.num }

// Float returns the floating-point scalar. Integer values are converted.
func (v Value) Float() float64 {
	switch v.kind {
	case KindInt:
		return float64(int64(v.num))
	case KindUint:
		return float64(v.num)
	default:
		return math.Float64frombits(v.num)
	}
}

// Bytes returns the byte string representation.
func (v Value) Bytes() []byte { return v.bs }

// Seq returns the sequence representation.
func (v Value) Seq() []Value { return v.seq }

// Map returns the nested scope representation.
func (v Value) Map() Scope { return v.m }

// isScalarInt reports whether the value can feed an integer codec.
func (v Value) isScalarInt() bool { return v.kind == KindInt || v.kind == KindUint }

// Equal reports deep equality between two values. Int and Uint compare equal
// when they hold the same bits, so a round-trip through an unsigned field
// does not break comparisons against signed inputs.
func (v Value) Equal(o Value) bool {
	switch v.kind {
	case KindInt, KindUint:
		return o.isScalarInt() && v.num == o.num
	case KindFloat:
		return o.kind == KindFloat && v.num == o.num
	case KindBytes:
		if o.kind != KindBytes || len(v.bs) != len(o.bs) {
			return false
		}
		for i := range v.bs {
			if v.bs[i] != o.bs[i] {
				return false
			}
		}
		return true
	case KindSeq:
		if o.kind != KindSeq || len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if o.kind != KindMap || len(v.m) != len(o.m) {
			return false
		}
		for k, vv := range v.m {
			ov, ok := o.m[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return o.kind == KindInvalid
	}
}

// String renders the value for debugging and error messages.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("%d", int64(v.num))
	case KindUint:
		return fmt.Sprintf("%d", v.num)
	case KindFloat:
		return fmt.Sprintf("%g", math.Float64frombits(v.num))
	case KindBytes:
		return fmt.Sprintf("%q", v.bs)
	case KindSeq:
		parts := make([]string, len(v.seq))
		for i, e := range v.seq {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + v.m[k].String()
		}
		return "{" + strings.Join(parts, " ") + "}"
	default:
		return "<invalid>"
	}
}

// count returns the element count a dynamic length field should carry for
// this value: elements for sequences, bytes for byte strings.
func (v Value) count() (int, error) {
	switch v.kind {
	case KindSeq:
		return len(v.seq), nil
	case KindBytes:
		return len(v.bs), nil
	default:
		return 0, fmt.Errorf("cannot take length of %s value", v.kind)
	}
}
