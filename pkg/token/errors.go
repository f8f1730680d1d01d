package token

import "fmt"

// MissingFieldError reports that encode looked up a field name absent from
// the value scope.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q in value scope", e.Field)
}

// InsufficientDataError reports that decode needed more bytes than the
// buffer holds.
type InsufficientDataError struct {
	Field string
	Need  int
	Have  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("field %q: need %d bytes, have %d", e.Field, e.Need, e.Have)
}

// LengthMismatchError reports that a declared or measured length disagrees
// with the actual number of bytes or elements.
type LengthMismatchError struct {
	Field string
	Want  int
	Got   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("field %q: declared length %d, got %d", e.Field, e.Want, e.Got)
}

// ChecksumMismatchError reports that a recomputed checksum differs from the
// code stored in the payload.
type ChecksumMismatchError struct {
	Field string
	Want  uint64 // code stored in the payload
	Got   uint64 // code recomputed over the child bytes
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum %q: stored %#x, computed %#x", e.Field, e.Want, e.Got)
}

// DuplicateFieldError reports two sibling fields sharing a name. Raised when
// the struct is assembled, never at encode/decode time.
type DuplicateFieldError struct {
	Name string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("duplicate field name %q", e.Name)
}

// SchemaOrderError reports a structural schema violation: a consumer field
// that is not last, a dynamic policy referencing an undeclared or
// later-declared length field, or an otherwise unusable arrangement of
// tokens. Raised when the schema is assembled where possible.
type SchemaOrderError struct {
	Reason string
}

func (e *SchemaOrderError) Error() string {
	return "invalid schema: " + e.Reason
}

// KindError reports a value whose kind does not match what the schema field
// expects.
type KindError struct {
	Field string
	Want  Kind
	Got   Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("field %q: want %s value, got %s", e.Field, e.Want, e.Got)
}
