package server

import (
	"errors"
	"fmt"

	"github.com/Prakti/striptease/pkg/protocol"
	"github.com/Prakti/striptease/pkg/store"
)

// Handler turns decoded request messages into response messages backed by a
// Store. Responses always echo the request's transaction id and name so the
// client can correlate them.
type Handler struct {
	store store.Store
}

// NewHandler creates a handler over the given store.
func NewHandler(st store.Store) *Handler {
	return &Handler{store: st}
}

// Handle dispatches one request. A message that is not a request kind is a
// protocol violation and yields an error instead of a response.
func (h *Handler) Handle(msg protocol.Message) (protocol.Message, error) {
	switch req := msg.(type) {
	case *protocol.StoreRequest:
		return h.handleStore(req), nil
	case *protocol.FetchRequest:
		return h.handleFetch(req), nil
	case *protocol.DeleteRequest:
		return h.handleDelete(req), nil
	default:
		return nil, fmt.Errorf("message id %#02x is not a request", msg.ID())
	}
}

func (h *Handler) handleStore(req *protocol.StoreRequest) *protocol.StoreResponse {
	resp := &protocol.StoreResponse{Trans: req.Trans, Name: req.Name, Status: protocol.StatusOK}
	if err := h.store.Put([]byte(req.Name), req.Data); err != nil {
		resp.Status = statusFor(err)
	}
	return resp
}

func (h *Handler) handleFetch(req *protocol.FetchRequest) *protocol.FetchResponse {
	resp := &protocol.FetchResponse{Trans: req.Trans, Name: req.Name, Status: protocol.StatusOK}
	data, err := h.store.Get([]byte(req.Name))
	if err != nil {
		resp.Status = statusFor(err)
		return resp
	}
	resp.Data = data
	return resp
}

func (h *Handler) handleDelete(req *protocol.DeleteRequest) *protocol.DeleteResponse {
	resp := &protocol.DeleteResponse{Trans: req.Trans, Name: req.Name, Status: protocol.StatusOK}
	if err := h.store.Delete([]byte(req.Name)); err != nil {
		resp.Status = statusFor(err)
	}
	return resp
}

func statusFor(err error) protocol.Status {
	switch {
	case errors.Is(err, store.ErrKeyNotFound):
		return protocol.StatusEKey
	case errors.Is(err, store.ErrCorruption), errors.Is(err, store.ErrClosed):
		return protocol.StatusEIO
	default:
		return protocol.StatusFail
	}
}
