package token

import "math"

// ConsumeRemainder is the sentinel element count a Consumer policy hands to
// its sequence: decode everything that is left, encode whatever is there.
const ConsumeRemainder = -1

// Sequence is a variable-element-count codec (an array of some element type,
// or a run of raw bytes). A sequence never knows its own length; it must be
// wrapped in exactly one length policy (NewStatic, NewDynamic, NewConsumer)
// which supplies the element count on every call. The interface is sealed.
type Sequence interface {
	// Name is the key the wrapped sequence reads and writes in the scope.
	Name() string

	encodeN(n int, scope Scope, payload []byte) ([]byte, error)
	decodeN(n int, payload []byte, scope Scope) ([]byte, error)
	encodeLenN(n int, scope Scope) (int, error)
	decodeLenN(n int, payload []byte) (int, error)
}

// Array encodes and decodes a run of elements of a single element type.
// The element token's own name is only used for internal bookkeeping; array
// values live under the array's name as a Seq value.
type Array struct {
	name    string
	elem    Token
	reverse bool
}

// NewArray creates an array sequence over the given element type. Wrap it in
// a length policy to obtain a usable token.
func NewArray(name string, elem Token) *Array {
	return &Array{name: name, elem: elem}
}

// Reversed makes the array write and read its elements back to front, for
// streams whose on-wire order is inverted relative to semantic order.
func (a *Array) Reversed() *Array {
	a.reverse = true
	return a
}

// Name returns the field name.
func (a *Array) Name() string { return a.name }

func (a *Array) encodeN(n int, scope Scope, payload []byte) ([]byte, error) {
	v, ok := scope[a.name]
	if !ok {
		return nil, &MissingFieldError{Field: a.name}
	}
	if v.Kind() != KindSeq {
		return nil, &KindError{Field: a.name, Want: KindSeq, Got: v.Kind()}
	}
	elems := v.Seq()
	if n != ConsumeRemainder && len(elems) != n {
		return nil, &LengthMismatchError{Field: a.name, Want: n, Got: len(elems)}
	}
	var err error
	if a.reverse {
		for i := len(elems) - 1; i >= 0; i-- {
			if payload, err = a.encodeElem(elems[i], payload); err != nil {
				return nil, err
			}
		}
		return payload, nil
	}
	for _, e := range elems {
		if payload, err = a.encodeElem(e, payload); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func (a *Array) decodeN(n int, payload []byte, scope Scope) ([]byte, error) {
	var elems []Value
	if n == ConsumeRemainder {
		for len(payload) > 0 {
			e, rest, err := a.decodeElem(payload)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			payload = rest
		}
	} else {
		// Preallocate from the buffer, not the claimed count: every element
		// consumes at least one byte, and the count is untrusted wire data.
		prealloc := n
		if prealloc > len(payload) {
			prealloc = len(payload)
		}
		elems = make([]Value, 0, prealloc)
		for i := 0; i < n; i++ {
			e, rest, err := a.decodeElem(payload)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			payload = rest
		}
	}
	if a.reverse {
		for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
			elems[i], elems[j] = elems[j], elems[i]
		}
	}
	scope[a.name] = Seq(elems...)
	return payload, nil
}

func (a *Array) encodeLenN(n int, scope Scope) (int, error) {
	v, ok := scope[a.name]
	if !ok {
		return 0, &MissingFieldError{Field: a.name}
	}
	if v.Kind() != KindSeq {
		return 0, &KindError{Field: a.name, Want: KindSeq, Got: v.Kind()}
	}
	// Measurement fails exactly where encoding would.
	if n != ConsumeRemainder && len(v.Seq()) != n {
		return 0, &LengthMismatchError{Field: a.name, Want: n, Got: len(v.Seq())}
	}
	total := 0
	for _, e := range v.Seq() {
		l, err := a.elem.EncodeLen(Scope{a.elem.Name(): e})
		if err != nil {
			return 0, err
		}
		total += l
	}
	return total, nil
}

func (a *Array) decodeLenN(n int, payload []byte) (int, error) {
	if n == ConsumeRemainder {
		return len(payload), nil
	}
	total := 0
	for i := 0; i < n; i++ {
		l, err := a.elem.DecodeLen(payload[total:])
		if err != nil {
			return 0, err
		}
		total += l
	}
	return total, nil
}

// encodeElem serializes one element value through the element token via a
// scratch scope; element tokens keep their normal name-based contract.
func (a *Array) encodeElem(e Value, payload []byte) ([]byte, error) {
	return a.elem.Encode(Scope{a.elem.Name(): e}, payload)
}

func (a *Array) decodeElem(payload []byte) (Value, []byte, error) {
	scratch := Scope{}
	rest, err := a.elem.Decode(payload, scratch)
	if err != nil {
		return Value{}, nil, err
	}
	return scratch[a.elem.Name()], rest, nil
}

// String encodes and decodes a run of raw bytes. In framed mode (Static or
// Dynamic policy) the value is truncated or NUL-padded to exactly the
// resolved length on encode, and trailing NUL padding is stripped on decode.
// In consume mode the bytes pass through untouched.
type String struct {
	name    string
	reverse bool
	raw     bool
}

// NewString creates a byte-string sequence with NUL-padding semantics. Wrap
// it in a length policy to obtain a usable token.
func NewString(name string) *String {
	return &String{name: name}
}

// NewBytes creates an opaque byte-string sequence: no padding is stripped on
// decode, so values with trailing zero bytes survive a round trip. Encoding
// still zero-fills up to a framed length.
func NewBytes(name string) *String {
	return &String{name: name, raw: true}
}

// Reversed makes the field reverse its bytes on the wire.
func (s *String) Reversed() *String {
	s.reverse = true
	return s
}

// Name returns the field name.
func (s *String) Name() string { return s.name }

func (s *String) encodeN(n int, scope Scope, payload []byte) ([]byte, error) {
	v, ok := scope[s.name]
	if !ok {
		return nil, &MissingFieldError{Field: s.name}
	}
	if v.Kind() != KindBytes {
		return nil, &KindError{Field: s.name, Want: KindBytes, Got: v.Kind()}
	}
	data := v.Bytes()
	if n == ConsumeRemainder {
		n = len(data)
	} else if len(data) > n {
		data = data[:n]
	}
	if s.reverse {
		rev := make([]byte, len(data))
		for i, b := range data {
			rev[len(data)-1-i] = b
		}
		data = rev
	}
	payload = append(payload, data...)
	for i := len(data); i < n; i++ {
		payload = append(payload, 0)
	}
	return payload, nil
}

func (s *String) decodeN(n int, payload []byte, scope Scope) ([]byte, error) {
	consume := n == ConsumeRemainder
	if consume {
		n = len(payload)
	} else if len(payload) < n {
		return nil, &InsufficientDataError{Field: s.name, Need: n, Have: len(payload)}
	}
	data := make([]byte, n)
	copy(data, payload[:n])
	// NUL padding only exists in framed mode; a consumed remainder passes
	// through untouched.
	if !s.raw && !consume {
		for len(data) > 0 && data[len(data)-1] == 0 {
			data = data[:len(data)-1]
		}
	}
	if s.reverse {
		for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
			data[i], data[j] = data[j], data[i]
		}
	}
	scope[s.name] = Bytes(data)
	return payload[n:], nil
}

func (s *String) encodeLenN(n int, scope Scope) (int, error) {
	if n != ConsumeRemainder {
		return n, nil
	}
	v, ok := scope[s.name]
	if !ok {
		return 0, &MissingFieldError{Field: s.name}
	}
	if v.Kind() != KindBytes {
		return 0, &KindError{Field: s.name, Want: KindBytes, Got: v.Kind()}
	}
	return len(v.Bytes()), nil
}

func (s *String) decodeLenN(n int, payload []byte) (int, error) {
	if n == ConsumeRemainder {
		return len(payload), nil
	}
	if len(payload) < n {
		return 0, &InsufficientDataError{Field: s.name, Need: n, Have: len(payload)}
	}
	return n, nil
}

// Static supplies a constant element count fixed at schema construction,
// like a C array.
type Static struct {
	n   int
	seq Sequence
}

// NewStatic wraps seq with a constant length of n elements.
func NewStatic(n int, seq Sequence) *Static {
	return &Static{n: n, seq: seq}
}

// Name returns the wrapped sequence's field name.
func (p *Static) Name() string { return p.seq.Name() }

func (p *Static) consuming() bool { return false }

func (p *Static) Encode(scope Scope, payload []byte) ([]byte, error) {
	return p.seq.encodeN(p.n, scope, payload)
}

func (p *Static) Decode(payload []byte, scope Scope) ([]byte, error) {
	return p.seq.decodeN(p.n, payload, scope)
}

func (p *Static) EncodeLen(scope Scope) (int, error) {
	return p.seq.encodeLenN(p.n, scope)
}

func (p *Static) DecodeLen(payload []byte) (int, error) {
	return p.seq.decodeLenN(p.n, payload)
}

// Dynamic reads its element count from a named sibling field of the
// enclosing struct. The length field must be an integer declared before the
// dynamic field; NewStruct resolves and validates the binding once, at
// schema construction. On encode the enclosing struct computes the true
// count and writes it into the length field before any field encodes, so a
// stale caller-supplied count can never reach the wire.
type Dynamic struct {
	lenField string
	seq      Sequence
	countFn  func(Value) (int, error)
}

// NewDynamic wraps seq with a length driven by the sibling field named
// lenField. The count defaults to the element count of the value (elements
// for arrays, bytes for strings).
func NewDynamic(lenField string, seq Sequence) *Dynamic {
	return &Dynamic{lenField: lenField, seq: seq, countFn: Value.count}
}

// WithCount overrides how the length field's value is computed from the
// sequence value during encode.
func (p *Dynamic) WithCount(fn func(Value) (int, error)) *Dynamic {
	p.countFn = fn
	return p
}

// Name returns the wrapped sequence's field name.
func (p *Dynamic) Name() string { return p.seq.Name() }

func (p *Dynamic) consuming() bool { return false }

// LengthField returns the name of the sibling field holding the count.
func (p *Dynamic) LengthField() string { return p.lenField }

func (p *Dynamic) Encode(scope Scope, payload []byte) ([]byte, error) {
	n, err := p.elemCount(scope)
	if err != nil {
		return nil, err
	}
	return p.seq.encodeN(n, scope, payload)
}

func (p *Dynamic) Decode(payload []byte, scope Scope) ([]byte, error) {
	lv, ok := scope[p.lenField]
	if !ok {
		return nil, &SchemaOrderError{Reason: "length field " + quoted(p.lenField) +
			" not decoded before " + quoted(p.Name())}
	}
	if !lv.isScalarInt() {
		return nil, &KindError{Field: p.lenField, Want: KindUint, Got: lv.Kind()}
	}
	// The count comes off the wire and is untrusted. A negative value must
	// never alias the consume-remainder sentinel, and a count beyond int32
	// range cannot describe an in-memory buffer on any platform.
	if lv.Kind() == KindInt && lv.Int() < 0 {
		return nil, &LengthMismatchError{Field: p.lenField, Want: 0, Got: int(lv.Int())}
	}
	if lv.Uint() > math.MaxInt32 {
		return nil, &InsufficientDataError{Field: p.Name(), Need: math.MaxInt32, Have: len(payload)}
	}
	return p.seq.decodeN(int(lv.Uint()), payload, scope)
}

func (p *Dynamic) EncodeLen(scope Scope) (int, error) {
	n, err := p.elemCount(scope)
	if err != nil {
		return 0, err
	}
	return p.seq.encodeLenN(n, scope)
}

// DecodeLen cannot resolve the count on its own: the length lives in a
// sibling field. Struct measurement threads the decoded length through a
// scratch scope instead of calling this.
func (p *Dynamic) DecodeLen([]byte) (int, error) {
	return 0, &SchemaOrderError{Reason: "dynamic field " + quoted(p.Name()) +
		" can only be measured inside its struct"}
}

func (p *Dynamic) elemCount(scope Scope) (int, error) {
	v, ok := scope[p.seq.Name()]
	if !ok {
		return 0, &MissingFieldError{Field: p.seq.Name()}
	}
	return p.countFn(v)
}

// Consumer supplies the consume-remainder sentinel: decode takes every byte
// left in the buffer, encode writes however many elements the value holds.
// A consumer field must be the last field of its struct; NewStruct enforces
// this.
type Consumer struct {
	seq Sequence
}

// NewConsumer wraps seq in consume-remainder mode.
func NewConsumer(seq Sequence) *Consumer {
	return &Consumer{seq: seq}
}

// Name returns the wrapped sequence's field name.
func (p *Consumer) Name() string { return p.seq.Name() }

func (p *Consumer) consuming() bool { return true }

func (p *Consumer) Encode(scope Scope, payload []byte) ([]byte, error) {
	return p.seq.encodeN(ConsumeRemainder, scope, payload)
}

func (p *Consumer) Decode(payload []byte, scope Scope) ([]byte, error) {
	return p.seq.decodeN(ConsumeRemainder, payload, scope)
}

func (p *Consumer) EncodeLen(scope Scope) (int, error) {
	return p.seq.encodeLenN(ConsumeRemainder, scope)
}

func (p *Consumer) DecodeLen(payload []byte) (int, error) {
	return p.seq.decodeLenN(ConsumeRemainder, payload)
}

func quoted(s string) string { return "\"" + s + "\"" }
