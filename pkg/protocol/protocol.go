// Package protocol defines the storage wire protocol built on the token
// codec: a fixed frame header carrying a message id and payload length,
// followed by a payload decoded against the schema registered for that id.
package protocol

import (
	"fmt"

	"github.com/Prakti/striptease/pkg/token"
)

// HeaderSize is the fixed byte length of the frame header.
const HeaderSize = 3

// Header is the frame header schema: a one-byte message id selecting the
// payload schema, and the exact byte length of the payload that follows.
var Header = mustStruct(token.NewStruct("",
	token.Uint8("msg_id"),
	token.Uint16("length"),
))

func mustStruct(s *token.Struct, err error) *token.Struct {
	if err != nil {
		panic(err)
	}
	return s
}

// Message is a domain object that can cross the wire: it knows its id and
// converts itself to and from the value scope of its registered schema.
type Message interface {
	// ID returns the message id the frame header carries.
	ID() uint8

	// MarshalScope converts the message into the value scope its schema
	// encodes. Length fields are filled in by the schema's dynamic
	// bindings and may be omitted.
	MarshalScope() (token.Scope, error)

	// UnmarshalScope populates the message from a decoded value scope.
	UnmarshalScope(scope token.Scope) error
}

// UnknownVariantError reports a frame whose message id has no registered
// schema.
type UnknownVariantError struct {
	ID uint8
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown message id %#02x", e.ID)
}

type kind struct {
	schema  *token.Struct
	factory func() Message
}

// Registry is an explicit message-id dispatch table, populated once at
// startup and read-only afterwards. Registering the same id twice is a loud
// construction-time error, never a silent overwrite.
type Registry struct {
	kinds map[uint8]kind
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[uint8]kind)}
}

// Register binds a message id to its payload schema and a factory producing
// empty messages of that kind.
func (r *Registry) Register(id uint8, schema *token.Struct, factory func() Message) error {
	if _, dup := r.kinds[id]; dup {
		return fmt.Errorf("message id %#02x already registered", id)
	}
	if schema == nil || factory == nil {
		return fmt.Errorf("message id %#02x: nil schema or factory", id)
	}
	r.kinds[id] = kind{schema: schema, factory: factory}
	return nil
}

// Schema returns the payload schema registered for id.
func (r *Registry) Schema(id uint8) (*token.Struct, error) {
	k, ok := r.kinds[id]
	if !ok {
		return nil, &UnknownVariantError{ID: id}
	}
	return k.schema, nil
}

// Decode performs the two-phase frame decode: the fixed header first, to
// learn the message id and payload length, then the payload against the
// id-selected schema. The frame must be complete and exactly sized; a
// length disagreement is a framing error, not a silent success.
func (r *Registry) Decode(frame []byte) (Message, error) {
	head, payload, err := token.Decode(Header, frame)
	if err != nil {
		return nil, fmt.Errorf("decoding frame header: %w", err)
	}
	id := uint8(head["msg_id"].Uint())
	length := int(head["length"].Uint())
	if len(payload) != length {
		return nil, &token.LengthMismatchError{Field: "length", Want: length, Got: len(payload)}
	}

	k, ok := r.kinds[id]
	if !ok {
		return nil, &UnknownVariantError{ID: id}
	}
	scope, rest, err := token.Decode(k.schema, payload)
	if err != nil {
		return nil, fmt.Errorf("decoding payload for id %#02x: %w", id, err)
	}
	if len(rest) != 0 {
		return nil, &token.LengthMismatchError{Field: "length", Want: length, Got: length - len(rest)}
	}

	msg := k.factory()
	if err := msg.UnmarshalScope(scope); err != nil {
		return nil, fmt.Errorf("unmarshaling message id %#02x: %w", id, err)
	}
	return msg, nil
}

// Encode mirrors Decode: the payload is encoded first, its length measured,
// and the header prepended with that length.
func (r *Registry) Encode(msg Message) ([]byte, error) {
	k, ok := r.kinds[msg.ID()]
	if !ok {
		return nil, &UnknownVariantError{ID: msg.ID()}
	}
	scope, err := msg.MarshalScope()
	if err != nil {
		return nil, fmt.Errorf("marshaling message id %#02x: %w", msg.ID(), err)
	}
	payload, err := token.Encode(k.schema, scope)
	if err != nil {
		return nil, fmt.Errorf("encoding payload for id %#02x: %w", msg.ID(), err)
	}
	if len(payload) > 0xFFFF {
		return nil, &token.LengthMismatchError{Field: "length", Want: 0xFFFF, Got: len(payload)}
	}

	frame, err := token.Encode(Header, token.Scope{
		"msg_id": token.Uint(uint64(msg.ID())),
		"length": token.Uint(uint64(len(payload))),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding frame header: %w", err)
	}
	return append(frame, payload...), nil
}
