// Package server runs the storage protocol over TCP: an accept loop, one
// goroutine per connection, and length-prefixed frames dispatched through
// the protocol registry to a Store-backed handler.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/Prakti/striptease/pkg/protocol"
	"github.com/Prakti/striptease/pkg/store"
)

// Config configures a Server.
type Config struct {
	Addr   string
	Store  store.Store
	Logger zerolog.Logger
}

// Server accepts connections and answers storage protocol requests.
type Server struct {
	config   Config
	registry *protocol.Registry
	handler  *Handler
	log      zerolog.Logger

	mutex    sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// New creates a server; Listen or Serve binds the address.
func New(config Config) (*Server, error) {
	if config.Store == nil {
		return nil, errors.New("server requires a store")
	}
	registry, err := protocol.NewStorageRegistry()
	if err != nil {
		return nil, fmt.Errorf("building protocol registry: %w", err)
	}
	return &Server{
		config:   config,
		registry: registry,
		handler:  NewHandler(config.Store),
		log:      config.Logger,
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

// Listen binds the configured address. Calling it before Serve lets callers
// learn the bound address when the config port is 0.
func (s *Server) Listen() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Addr, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, then closes the listener
// and all open connections and waits for their goroutines to drain.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mutex.Lock()
	listener := s.listener
	s.mutex.Unlock()

	s.log.Info().Str("addr", listener.Addr().String()).Msg("server listening")

	go func() {
		<-ctx.Done()
		listener.Close()
		s.closeConns()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("accepting connection: %w", err)
		}
		s.trackConn(conn)
		connectionsTotal.Inc()
		connectionsActive.Inc()
		s.wg.Add(1)
		go s.serveConn(conn)
	}

	s.wg.Wait()
	s.log.Info().Msg("server stopped")
	return nil
}

func (s *Server) trackConn(conn net.Conn) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) forgetConn(conn net.Conn) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeConns() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

// serveConn answers frames on one connection until the peer hangs up, the
// server shuts down, or the peer violates the protocol.
func (s *Server) serveConn(conn net.Conn) {
	defer func() {
		conn.Close()
		s.forgetConn(conn)
		connectionsActive.Dec()
		s.wg.Done()
	}()

	log := s.log.With().
		Str("conn", ksuid.New().String()).
		Str("remote", conn.RemoteAddr().String()).
		Logger()
	log.Debug().Msg("connection opened")

	for {
		frame, err := readFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug().Msg("connection closed by peer")
			} else if !errors.Is(err, net.ErrClosed) {
				log.Warn().Err(err).Msg("reading frame")
			}
			return
		}

		msg, err := s.registry.Decode(frame)
		if err != nil {
			decodeErrorsTotal.Inc()
			log.Warn().Err(err).Msg("dropping connection on undecodable frame")
			return
		}

		start := time.Now()
		resp, err := s.handler.Handle(msg)
		if err != nil {
			log.Warn().Err(err).Msg("dropping connection on protocol violation")
			return
		}
		kind := kindName(msg.ID())
		requestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		messagesTotal.WithLabelValues(kind, responseStatus(resp).String()).Inc()

		out, err := s.registry.Encode(resp)
		if err != nil {
			log.Error().Err(err).Msg("encoding response")
			return
		}
		if err := writeFrame(conn, out); err != nil {
			log.Warn().Err(err).Msg("writing response")
			return
		}
	}
}

func kindName(id uint8) string {
	switch id {
	case protocol.MsgStoreRequest, protocol.MsgStoreResponse:
		return "store"
	case protocol.MsgFetchRequest, protocol.MsgFetchResponse:
		return "fetch"
	case protocol.MsgDeleteRequest, protocol.MsgDeleteResponse:
		return "delete"
	default:
		return "unknown"
	}
}

func responseStatus(resp protocol.Message) protocol.Status {
	switch m := resp.(type) {
	case *protocol.StoreResponse:
		return m.Status
	case *protocol.FetchResponse:
		return m.Status
	case *protocol.DeleteResponse:
		return m.Status
	default:
		return protocol.StatusFail
	}
}
