package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/Prakti/striptease/pkg/token"
)

// The log engine's record format is itself a token schema: a CRC32 code in
// front of a little-endian header with dynamic key/value lengths.
//
//	[CRC32(4)][KeySize(4)][ValueSize(4)][Timestamp(8)][Flags(1)][Key][Value]
//
// The code covers everything after itself, so corruption anywhere in the
// header or data fails the decode.
var recordSchema = mustChecksum(token.NewChecksum("crc", 4, token.CRC32IEEE,
	mustStruct(token.NewStruct("rec",
		token.Uint32("klen").Little(),
		token.Uint32("vlen").Little(),
		token.Uint64("stamp").Little(),
		token.Uint8("flags"),
		token.NewDynamic("klen", token.NewBytes("key")),
		token.NewDynamic("vlen", token.NewBytes("value")),
	)),
)).Prefix().Little()

// peekSchema covers just enough of the front of a record to compute its
// total size before the full bytes are available.
var peekSchema = mustStruct(token.NewStruct("",
	token.Uint32("crc").Little(),
	token.Uint32("klen").Little(),
	token.Uint32("vlen").Little(),
))

func mustStruct(s *token.Struct, err error) *token.Struct {
	if err != nil {
		panic(err)
	}
	return s
}

func mustChecksum(c *token.Checksum, err error) *token.Checksum {
	if err != nil {
		panic(err)
	}
	return c
}

// recordHeaderSize is the fixed front of every record: code plus header
// fields, everything before the key bytes.
const recordHeaderSize = 4 + 4 + 4 + 8 + 1

const flagTombstone = 0x01

// Record is one decoded log entry.
type Record struct {
	Key   []byte
	Value []byte
	Stamp uint64 // unix nanoseconds
	Flags uint8
}

// Tombstone reports whether the record marks a deletion.
func (r *Record) Tombstone() bool { return r.Flags&flagTombstone != 0 }

// Size returns the encoded byte size of the record.
func (r *Record) Size() int { return recordHeaderSize + len(r.Key) + len(r.Value) }

// encodeRecord serializes a record through the record schema; the checksum
// and the length fields are computed by the schema, not by the caller.
func encodeRecord(key, value []byte, flags uint8) ([]byte, error) {
	scope := token.Scope{
		"rec": token.Map(token.Scope{
			"stamp": token.Uint(uint64(time.Now().UnixNano())),
			"flags": token.Uint(uint64(flags)),
			"key":   token.Bytes(key),
			"value": token.Bytes(value),
		}),
	}
	payload, err := token.Encode(recordSchema, scope)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return payload, nil
}

// decodeRecord decodes and verifies one record from the front of data and
// returns it with the unconsumed remainder. Checksum and framing failures
// surface as ErrCorruption so recovery can truncate at the damage.
func decodeRecord(data []byte) (*Record, []byte, error) {
	scope, rest, err := token.Decode(recordSchema, data)
	if err != nil {
		var badSum *token.ChecksumMismatchError
		var short *token.InsufficientDataError
		if errors.As(err, &badSum) || errors.As(err, &short) {
			return nil, nil, fmt.Errorf("%w: %v", ErrCorruption, err)
		}
		return nil, nil, err
	}
	rec := scope["rec"].Map()
	return &Record{
		Key:   rec["key"].Bytes(),
		Value: rec["value"].Bytes(),
		Stamp: rec["stamp"].Uint(),
		Flags: uint8(rec["flags"].Uint()),
	}, rest, nil
}

// peekRecordSize computes the total encoded size of the record starting at
// the front of data, which must hold at least recordHeaderSize bytes. Used
// by the reader to frame records without decoding them twice.
func peekRecordSize(data []byte) (int, error) {
	scope, _, err := token.Decode(peekSchema, data)
	if err != nil {
		var short *token.InsufficientDataError
		if errors.As(err, &short) {
			return 0, fmt.Errorf("%w: truncated record header", ErrCorruption)
		}
		return 0, err
	}
	return recordHeaderSize + int(scope["klen"].Uint()) + int(scope["vlen"].Uint()), nil
}
