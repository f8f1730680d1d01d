package token

import "math"

// Struct is an ordered, named collection of child tokens forming a scoped
// namespace in the value tree. A struct named "" reads and writes the
// surrounding scope directly and is the usual shape for a schema root; a
// named struct nests its children under its own name, so field names only
// need to be unique among immediate siblings.
//
// NewStruct compiles the schema in a single pass: it rejects duplicate
// sibling names and misplaced consumer fields, and resolves every Dynamic
// policy's length-field reference into write-back metadata consulted during
// encode. A compiled struct is immutable and safe for concurrent use.
type Struct struct {
	name     string
	fields   []Token
	registry map[string]Token
	bindings []lengthBinding
}

// lengthBinding records that a field's value is supplied by a dynamic
// policy: before any field encodes, the count of the sequence field is
// computed and written into the length field's slot in the scope. maxCount
// is the largest count the bound integer field can represent; a larger
// count is a hard error, never a silent wrap, because a wrapped
// self-describing length produces a frame that decodes with the wrong
// count.
type lengthBinding struct {
	lenField string
	seqField string
	countFn  func(Value) (int, error)
	maxCount uint64
}

// NewStruct assembles a struct from its fields in declaration order.
// Construction fails with DuplicateFieldError or SchemaOrderError rather
// than deferring schema violations to encode/decode time.
func NewStruct(name string, fields ...Token) (*Struct, error) {
	s := &Struct{
		name:     name,
		fields:   fields,
		registry: make(map[string]Token, len(fields)),
	}
	for _, f := range fields {
		if f.Name() == "" {
			return nil, &SchemaOrderError{Reason: "child tokens must be named"}
		}
		if _, dup := s.registry[f.Name()]; dup {
			return nil, &DuplicateFieldError{Name: f.Name()}
		}
		s.registry[f.Name()] = f
	}
	for i, f := range fields {
		// Anything that swallows the rest of the buffer must come last;
		// a later sibling would have no bytes left to decode.
		if f.consuming() && i != len(fields)-1 {
			return nil, &SchemaOrderError{Reason: "consumer field " + quoted(f.Name()) +
				" must be the last field of its struct"}
		}
		dyn, ok := f.(*Dynamic)
		if !ok {
			continue
		}
		ref, declared := s.registry[dyn.lenField]
		if !declared {
			return nil, &SchemaOrderError{Reason: "dynamic field " + quoted(dyn.Name()) +
				" references undeclared length field " + quoted(dyn.lenField)}
		}
		lenRef, isInt := ref.(*Integer)
		if !isInt {
			return nil, &SchemaOrderError{Reason: "length field " + quoted(dyn.lenField) +
				" must be an integer"}
		}
		if s.indexOf(dyn.lenField) >= i {
			return nil, &SchemaOrderError{Reason: "length field " + quoted(dyn.lenField) +
				" must be declared before " + quoted(dyn.Name())}
		}
		s.bindings = append(s.bindings, lengthBinding{
			lenField: dyn.lenField,
			seqField: dyn.Name(),
			countFn:  dyn.countFn,
			maxCount: maxFieldCount(lenRef),
		})
	}
	return s, nil
}

// maxFieldCount is the largest non-negative value an integer field of the
// given width and signedness can carry.
func maxFieldCount(i *Integer) uint64 {
	bits := uint(i.width * 8)
	if i.signed {
		bits--
	}
	if bits >= 64 {
		return math.MaxUint64
	}
	return 1<<bits - 1
}

func (s *Struct) indexOf(name string) int {
	for i, f := range s.fields {
		if f.Name() == name {
			return i
		}
	}
	return -1
}

// Name returns the struct's own field name; empty for a schema root.
func (s *Struct) Name() string { return s.name }

// Field returns the child token registered under name, if any.
func (s *Struct) Field(name string) (Token, bool) {
	f, ok := s.registry[name]
	return f, ok
}

// consuming propagates the consumer property: a struct whose last field
// consumes the remainder consumes it too, which matters when the struct is
// itself nested.
func (s *Struct) consuming() bool {
	if len(s.fields) == 0 {
		return false
	}
	return s.fields[len(s.fields)-1].consuming()
}

// Encode threads the scope through every field in declaration order,
// appending each field's bytes. Dynamic length fields are overwritten with
// the true element counts first, so the caller never maintains them.
func (s *Struct) Encode(scope Scope, payload []byte) ([]byte, error) {
	inner := scope
	if s.name != "" {
		v, ok := scope[s.name]
		if !ok {
			return nil, &MissingFieldError{Field: s.name}
		}
		if v.Kind() != KindMap {
			return nil, &KindError{Field: s.name, Want: KindMap, Got: v.Kind()}
		}
		inner = v.Map()
	}
	for _, b := range s.bindings {
		v, ok := inner[b.seqField]
		if !ok {
			return nil, &MissingFieldError{Field: b.seqField}
		}
		n, err := b.countFn(v)
		if err != nil {
			return nil, err
		}
		if uint64(n) > b.maxCount {
			return nil, &LengthMismatchError{Field: b.lenField, Want: int(b.maxCount), Got: n}
		}
		inner[b.lenField] = Uint(uint64(n))
	}
	var err error
	for _, f := range s.fields {
		if payload, err = f.Encode(inner, payload); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// Decode threads the shrinking payload through every field in declaration
// order, building the struct's scope. A named struct stores its children
// under a nested map keyed by its own name.
func (s *Struct) Decode(payload []byte, scope Scope) ([]byte, error) {
	inner := scope
	if s.name != "" {
		inner = Scope{}
	}
	var err error
	for _, f := range s.fields {
		if payload, err = f.Decode(payload, inner); err != nil {
			return nil, err
		}
	}
	if s.name != "" {
		scope[s.name] = Map(inner)
	}
	return payload, nil
}

// EncodeLen sums the encoded lengths of all fields without encoding.
func (s *Struct) EncodeLen(scope Scope) (int, error) {
	inner := scope
	if s.name != "" {
		v, ok := scope[s.name]
		if !ok {
			return 0, &MissingFieldError{Field: s.name}
		}
		if v.Kind() != KindMap {
			return 0, &KindError{Field: s.name, Want: KindMap, Got: v.Kind()}
		}
		inner = v.Map()
	}
	total := 0
	for _, f := range s.fields {
		l, err := f.EncodeLen(inner)
		if err != nil {
			return 0, err
		}
		total += l
	}
	return total, nil
}

// DecodeLen measures how many bytes the struct would consume from the front
// of payload. Dynamic fields force a scan: their counts live in earlier
// fields, so measurement decodes into a scratch scope that is thrown away.
func (s *Struct) DecodeLen(payload []byte) (int, error) {
	scratch := Scope{}
	rest, err := s.Decode(payload, scratch)
	if err != nil {
		return 0, err
	}
	return len(payload) - len(rest), nil
}
