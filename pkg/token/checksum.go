package token

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"hash/crc64"
)

// Func computes an integrity code over a byte string. Codes wider than the
// checksum field's declared width are masked down to it.
type Func func([]byte) uint64

// XOR returns a simple parity-style checksum: the payload is folded into a
// width-byte accumulator by XOR-ing consecutive big-endian chunks, the tail
// chunk zero-padded. Any single-bit corruption changes the code.
func XOR(width int) Func {
	return func(data []byte) uint64 {
		var acc uint64
		for len(data) > 0 {
			n := width
			if n > len(data) {
				n = len(data)
			}
			var chunk uint64
			for _, b := range data[:n] {
				chunk = chunk<<8 | uint64(b)
			}
			chunk <<= uint(8 * (width - n))
			acc ^= chunk
			data = data[n:]
		}
		return acc
	}
}

// CRC32IEEE is the IEEE CRC-32 (the one used by zip, ethernet, png).
func CRC32IEEE(data []byte) uint64 {
	return uint64(crc32.ChecksumIEEE(data))
}

// CRC32Castagnoli is the Castagnoli CRC-32 (iSCSI), hardware accelerated on
// most platforms.
func CRC32Castagnoli(data []byte) uint64 {
	return uint64(crc32.Checksum(data, castagnoliTable))
}

// CRC64ISO is the ISO 3309 CRC-64.
func CRC64ISO(data []byte) uint64 {
	return crc64.Checksum(data, crc64ISOTable)
}

var (
	castagnoliTable = crc32.MakeTable(crc32.Castagnoli)
	crc64ISOTable   = crc64.MakeTable(crc64.ISO)
)

// Checksum wraps exactly one child token and guards the child's serialized
// bytes with an integrity code. On encode the child is serialized into an
// isolated scratch payload, the code is computed over exactly those bytes,
// and both are emitted; on decode the code is recomputed over the child's
// bytes and compared before the child is decoded at all.
//
// By default the code trails the child bytes; Prefix flips it in front,
// symmetrically for encode and decode. The decoded (or recomputed) code is
// stored in the scope under the checksum's own name.
type Checksum struct {
	name   string
	width  int
	order  binary.ByteOrder
	fn     Func
	child  Token
	prefix bool
}

// NewChecksum creates a checksum token of the given code width (1..8 bytes)
// over the child's serialized bytes. A child that consumes the remainder of
// the buffer is rejected: without an explicit trailer length there is no way
// to tell where the child ends and the code begins.
func NewChecksum(name string, width int, fn Func, child Token) (*Checksum, error) {
	if width < 1 || width > 8 {
		return nil, fmt.Errorf("checksum width must be 1..8, got %d", width)
	}
	if fn == nil {
		return nil, fmt.Errorf("checksum %q: nil checksum function", name)
	}
	if child == nil {
		return nil, fmt.Errorf("checksum %q: nil child", name)
	}
	if child.consuming() {
		return nil, &SchemaOrderError{Reason: "checksum " + quoted(name) +
			" cannot wrap consumer-terminated child " + quoted(child.Name())}
	}
	return &Checksum{
		name:  name,
		width: width,
		order: binary.BigEndian,
		fn:    fn,
		child: child,
	}, nil
}

// Prefix places the code before the child bytes instead of after.
func (c *Checksum) Prefix() *Checksum {
	c.prefix = true
	return c
}

// Little switches the code field to little-endian byte order.
func (c *Checksum) Little() *Checksum {
	c.order = binary.LittleEndian
	return c
}

// Name returns the checksum field's name.
func (c *Checksum) Name() string { return c.name }

func (c *Checksum) consuming() bool { return false }

// mask truncates a code to the declared field width.
func (c *Checksum) mask(code uint64) uint64 {
	if c.width == 8 {
		return code
	}
	return code & (1<<uint(8*c.width) - 1)
}

// Encode serializes the child into a scratch payload, computes the code over
// exactly those bytes, records it in the scope, and appends code and child
// bytes in the configured order.
func (c *Checksum) Encode(scope Scope, payload []byte) ([]byte, error) {
	childBytes, err := c.child.Encode(scope, nil)
	if err != nil {
		return nil, err
	}
	code := c.mask(c.fn(childBytes))
	scope[c.name] = Uint(code)
	if c.prefix {
		payload = appendUint(payload, code, c.width, c.order)
		return append(payload, childBytes...), nil
	}
	payload = append(payload, childBytes...)
	return appendUint(payload, code, c.width, c.order), nil
}

// Decode splits the buffer into child bytes and code, verifies the code
// over the exact child bytes, and only then decodes the child. A wrong code
// aborts with ChecksumMismatchError before any child value reaches the
// scope.
func (c *Checksum) Decode(payload []byte, scope Scope) ([]byte, error) {
	var childBytes, codeBytes []byte
	var rest []byte
	if c.prefix {
		if len(payload) < c.width {
			return nil, &InsufficientDataError{Field: c.name, Need: c.width, Have: len(payload)}
		}
		codeBytes = payload[:c.width]
		childLen, err := c.child.DecodeLen(payload[c.width:])
		if err != nil {
			return nil, err
		}
		childBytes = payload[c.width : c.width+childLen]
		rest = payload[c.width+childLen:]
	} else {
		childLen, err := c.child.DecodeLen(payload)
		if err != nil {
			return nil, err
		}
		if len(payload) < childLen+c.width {
			return nil, &InsufficientDataError{Field: c.name, Need: childLen + c.width, Have: len(payload)}
		}
		childBytes = payload[:childLen]
		codeBytes = payload[childLen : childLen+c.width]
		rest = payload[childLen+c.width:]
	}
	stored := readUint(codeBytes, c.width, c.order)
	computed := c.mask(c.fn(childBytes))
	if stored != computed {
		return nil, &ChecksumMismatchError{Field: c.name, Want: stored, Got: computed}
	}
	scope[c.name] = Uint(stored)
	leftover, err := c.child.Decode(childBytes, scope)
	if err != nil {
		return nil, err
	}
	if len(leftover) != 0 {
		return nil, &LengthMismatchError{Field: c.child.Name(), Want: len(childBytes), Got: len(childBytes) - len(leftover)}
	}
	return rest, nil
}

// EncodeLen is the child's encoded length plus the code width.
func (c *Checksum) EncodeLen(scope Scope) (int, error) {
	childLen, err := c.child.EncodeLen(scope)
	if err != nil {
		return 0, err
	}
	return childLen + c.width, nil
}

// DecodeLen is the child's measured length plus the code width.
func (c *Checksum) DecodeLen(payload []byte) (int, error) {
	var childLen int
	var err error
	if c.prefix {
		if len(payload) < c.width {
			return 0, &InsufficientDataError{Field: c.name, Need: c.width, Have: len(payload)}
		}
		childLen, err = c.child.DecodeLen(payload[c.width:])
	} else {
		childLen, err = c.child.DecodeLen(payload)
	}
	if err != nil {
		return 0, err
	}
	return childLen + c.width, nil
}
