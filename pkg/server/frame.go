package server

import (
	"fmt"
	"io"

	"github.com/Prakti/striptease/pkg/protocol"
	"github.com/Prakti/striptease/pkg/token"
)

// readFrame reads one complete frame from r: the fixed header first, then
// exactly the payload length the header announces.
func readFrame(r io.Reader) ([]byte, error) {
	head := make([]byte, protocol.HeaderSize)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, err
	}
	scope, _, err := token.Decode(protocol.Header, head)
	if err != nil {
		return nil, fmt.Errorf("decoding frame header: %w", err)
	}
	length := int(scope["length"].Uint())
	frame := make([]byte, protocol.HeaderSize+length)
	copy(frame, head)
	if _, err := io.ReadFull(r, frame[protocol.HeaderSize:]); err != nil {
		return nil, fmt.Errorf("reading %d-byte payload: %w", length, err)
	}
	return frame, nil
}

// writeFrame writes a complete frame to w.
func writeFrame(w io.Writer, frame []byte) error {
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("writing %d-byte frame: %w", len(frame), err)
	}
	return nil
}
