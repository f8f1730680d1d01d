// Package token implements a declarative codec for C-like binary layouts.
//
// A binary structure is described once as a tree of tokens and then reused
// for any number of encode and decode calls. Structs act as containers and
// may be nested, so the schema reads a lot like a struct definition:
//
//	record, err := token.NewStruct("",
//		token.Uint8("nlen"),
//		token.NewDynamic("nlen", token.NewString("name")),
//		token.Uint16("dlen"),
//		token.NewDynamic("dlen", token.NewBytes("data")),
//	)
//
// # Encoding and Decoding
//
// Values travel in a Scope, a mapping from field name to Value that mirrors
// the shape of the token tree. Encoding walks the tree root to leaf,
// appending bytes to a growing payload; decoding walks the same tree,
// consuming bytes from the front of the buffer and filling a fresh Scope:
//
//	payload, err := token.Encode(record, token.Scope{
//		"name": token.Str("greeting"),
//		"data": token.Bytes([]byte("hello")),
//	})
//
//	scope, rest, err := token.Decode(record, payload)
//
// Length fields referenced by a NewDynamic policy are computed and written
// back automatically during encode; the caller never maintains them by hand.
//
// # Length Policies
//
// Sequences (NewArray, NewString, NewBytes) never know their own element
// count. They must be wrapped in exactly one length policy:
//
//   - NewStatic: the count is a constant fixed at schema construction.
//   - NewDynamic: the count lives in a named sibling field of the enclosing
//     struct, which must be declared before the sequence.
//   - NewConsumer: the sequence takes all remaining bytes. A consumer field
//     must be the last field of its struct.
//
// # Integrity
//
// NewChecksum wraps a single child token and guards its serialized bytes
// with a pluggable checksum function (XOR folding, CRC32, CRC64). The code
// is recomputed on every encode and verified on every decode.
//
// # Schema Validation
//
// Duplicate sibling names, dynamic references to undeclared or misordered
// length fields, and consumer fields that are not last are all rejected when
// the struct is assembled, before any data flows. A compiled token tree is
// immutable and safe for concurrent use from multiple goroutines.
package token
