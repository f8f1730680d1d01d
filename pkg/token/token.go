package token

// Token is a single codec unit in a schema tree. The concrete variants are
// the numeric codecs (Integer, Real), the length policies wrapping a
// sequence (Static, Dynamic, Consumer), the Struct container, and the
// Checksum wrapper. The interface is sealed: the traversal logic relies on
// knowing every variant, so new token kinds cannot be added from outside
// the package.
type Token interface {
	// Name is the key under which the token reads and writes its value in
	// the enclosing scope. Unique among siblings, enforced by NewStruct.
	Name() string

	// Encode looks up the token's value in scope, serializes it, and
	// returns payload with the serialized bytes appended.
	Encode(scope Scope, payload []byte) ([]byte, error)

	// Decode consumes the token's bytes from the front of payload, stores
	// the decoded value in scope under the token's name, and returns the
	// shortened payload.
	Decode(payload []byte, scope Scope) ([]byte, error)

	// EncodeLen computes the number of bytes Encode would append, without
	// encoding.
	EncodeLen(scope Scope) (int, error)

	// DecodeLen computes the number of bytes Decode would consume from the
	// front of payload, without populating a scope.
	DecodeLen(payload []byte) (int, error)

	// consuming reports whether decoding this token swallows the entire
	// remaining buffer. Seals the interface and drives the consumer-last
	// schema checks.
	consuming() bool
}

// Encode serializes the scope against the schema rooted at t and returns
// the payload.
func Encode(t Token, scope Scope) ([]byte, error) {
	return t.Encode(scope, nil)
}

// Decode decodes payload against the schema rooted at t. It returns the
// decoded scope and whatever bytes the schema did not consume; for a
// well-framed top-level message the remainder is empty.
func Decode(t Token, payload []byte) (Scope, []byte, error) {
	scope := Scope{}
	rest, err := t.Decode(payload, scope)
	if err != nil {
		return nil, nil, err
	}
	return scope, rest, nil
}
