package protocol

import (
	"fmt"

	"github.com/Prakti/striptease/pkg/token"
)

// Message ids of the storage protocol.
const (
	MsgStoreRequest   uint8 = 0x01
	MsgStoreResponse  uint8 = 0x02
	MsgFetchRequest   uint8 = 0x03
	MsgFetchResponse  uint8 = 0x04
	MsgDeleteRequest  uint8 = 0x05
	MsgDeleteResponse uint8 = 0x06
)

// Status is the outcome code carried by response messages.
type Status uint8

const (
	StatusOK   Status = 0x00
	StatusEIO  Status = 0x01
	StatusEKey Status = 0x02
	StatusFail Status = 0xFF
)

// String returns the status mnemonic.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEIO:
		return "io-error"
	case StatusEKey:
		return "no-such-key"
	case StatusFail:
		return "failed"
	default:
		return fmt.Sprintf("status(%#02x)", uint8(s))
	}
}

var (
	storeRequestSchema = mustStruct(token.NewStruct("",
		token.Uint8("trans"),
		token.Uint8("nlen"),
		token.NewDynamic("nlen", token.NewBytes("name")),
		token.Uint16("dlen"),
		token.NewDynamic("dlen", token.NewBytes("data")),
	))

	storeResponseSchema = mustStruct(token.NewStruct("",
		token.Uint8("trans"),
		token.Uint8("nlen"),
		token.NewDynamic("nlen", token.NewBytes("name")),
		token.Uint8("status"),
	))

	fetchRequestSchema = mustStruct(token.NewStruct("",
		token.Uint8("trans"),
		token.Uint8("nlen"),
		token.NewDynamic("nlen", token.NewBytes("name")),
	))

	fetchResponseSchema = mustStruct(token.NewStruct("",
		token.Uint8("trans"),
		token.Uint8("status"),
		token.Uint8("nlen"),
		token.NewDynamic("nlen", token.NewBytes("name")),
		token.Uint16("dlen"),
		token.NewDynamic("dlen", token.NewBytes("data")),
	))

	deleteRequestSchema = fetchRequestSchema

	deleteResponseSchema = storeResponseSchema
)

// StoreRequest asks the server to store data under a name.
type StoreRequest struct {
	Trans uint8
	Name  string
	Data  []byte
}

func (*StoreRequest) ID() uint8 { return MsgStoreRequest }

func (m *StoreRequest) MarshalScope() (token.Scope, error) {
	if err := checkName(m.Name); err != nil {
		return nil, err
	}
	if len(m.Data) > 0xFFFF {
		return nil, fmt.Errorf("data of %d bytes exceeds the 16-bit length field", len(m.Data))
	}
	return token.Scope{
		"trans": token.Uint(uint64(m.Trans)),
		"name":  token.Str(m.Name),
		"data":  token.Bytes(m.Data),
	}, nil
}

func (m *StoreRequest) UnmarshalScope(scope token.Scope) error {
	m.Trans = uint8(scope["trans"].Uint())
	m.Name = string(scope["name"].Bytes())
	m.Data = scope["data"].Bytes()
	return nil
}

// StoreResponse reports the outcome of a StoreRequest.
type StoreResponse struct {
	Trans  uint8
	Name   string
	Status Status
}

func (*StoreResponse) ID() uint8 { return MsgStoreResponse }

func (m *StoreResponse) MarshalScope() (token.Scope, error) {
	if err := checkName(m.Name); err != nil {
		return nil, err
	}
	return token.Scope{
		"trans":  token.Uint(uint64(m.Trans)),
		"name":   token.Str(m.Name),
		"status": token.Uint(uint64(m.Status)),
	}, nil
}

func (m *StoreResponse) UnmarshalScope(scope token.Scope) error {
	m.Trans = uint8(scope["trans"].Uint())
	m.Name = string(scope["name"].Bytes())
	m.Status = Status(scope["status"].Uint())
	return nil
}

// FetchRequest asks the server for the data stored under a name.
type FetchRequest struct {
	Trans uint8
	Name  string
}

func (*FetchRequest) ID() uint8 { return MsgFetchRequest }

func (m *FetchRequest) MarshalScope() (token.Scope, error) {
	if err := checkName(m.Name); err != nil {
		return nil, err
	}
	return token.Scope{
		"trans": token.Uint(uint64(m.Trans)),
		"name":  token.Str(m.Name),
	}, nil
}

func (m *FetchRequest) UnmarshalScope(scope token.Scope) error {
	m.Trans = uint8(scope["trans"].Uint())
	m.Name = string(scope["name"].Bytes())
	return nil
}

// FetchResponse carries the fetched data, or a non-OK status and empty data.
type FetchResponse struct {
	Trans  uint8
	Status Status
	Name   string
	Data   []byte
}

func (*FetchResponse) ID() uint8 { return MsgFetchResponse }

func (m *FetchResponse) MarshalScope() (token.Scope, error) {
	if err := checkName(m.Name); err != nil {
		return nil, err
	}
	if len(m.Data) > 0xFFFF {
		return nil, fmt.Errorf("data of %d bytes exceeds the 16-bit length field", len(m.Data))
	}
	return token.Scope{
		"trans":  token.Uint(uint64(m.Trans)),
		"status": token.Uint(uint64(m.Status)),
		"name":   token.Str(m.Name),
		"data":   token.Bytes(m.Data),
	}, nil
}

func (m *FetchResponse) UnmarshalScope(scope token.Scope) error {
	m.Trans = uint8(scope["trans"].Uint())
	m.Status = Status(scope["status"].Uint())
	m.Name = string(scope["name"].Bytes())
	m.Data = scope["data"].Bytes()
	return nil
}

// DeleteRequest asks the server to remove the data stored under a name.
type DeleteRequest struct {
	Trans uint8
	Name  string
}

func (*DeleteRequest) ID() uint8 { return MsgDeleteRequest }

func (m *DeleteRequest) MarshalScope() (token.Scope, error) {
	if err := checkName(m.Name); err != nil {
		return nil, err
	}
	return token.Scope{
		"trans": token.Uint(uint64(m.Trans)),
		"name":  token.Str(m.Name),
	}, nil
}

func (m *DeleteRequest) UnmarshalScope(scope token.Scope) error {
	m.Trans = uint8(scope["trans"].Uint())
	m.Name = string(scope["name"].Bytes())
	return nil
}

// DeleteResponse reports the outcome of a DeleteRequest.
type DeleteResponse struct {
	Trans  uint8
	Name   string
	Status Status
}

func (*DeleteResponse) ID() uint8 { return MsgDeleteResponse }

func (m *DeleteResponse) MarshalScope() (token.Scope, error) {
	if err := checkName(m.Name); err != nil {
		return nil, err
	}
	return token.Scope{
		"trans":  token.Uint(uint64(m.Trans)),
		"name":   token.Str(m.Name),
		"status": token.Uint(uint64(m.Status)),
	}, nil
}

func (m *DeleteResponse) UnmarshalScope(scope token.Scope) error {
	m.Trans = uint8(scope["trans"].Uint())
	m.Name = string(scope["name"].Bytes())
	m.Status = Status(scope["status"].Uint())
	return nil
}

func checkName(name string) error {
	if len(name) > 0xFF {
		return fmt.Errorf("name of %d bytes exceeds the 8-bit length field", len(name))
	}
	return nil
}

// NewStorageRegistry builds the dispatch table for the storage protocol.
func NewStorageRegistry() (*Registry, error) {
	r := NewRegistry()
	entries := []struct {
		id      uint8
		schema  *token.Struct
		factory func() Message
	}{
		{MsgStoreRequest, storeRequestSchema, func() Message { return &StoreRequest{} }},
		{MsgStoreResponse, storeResponseSchema, func() Message { return &StoreResponse{} }},
		{MsgFetchRequest, fetchRequestSchema, func() Message { return &FetchRequest{} }},
		{MsgFetchResponse, fetchResponseSchema, func() Message { return &FetchResponse{} }},
		{MsgDeleteRequest, deleteRequestSchema, func() Message { return &DeleteRequest{} }},
		{MsgDeleteResponse, deleteResponseSchema, func() Message { return &DeleteResponse{} }},
	}
	for _, e := range entries {
		if err := r.Register(e.id, e.schema, e.factory); err != nil {
			return nil, err
		}
	}
	return r, nil
}
