package server

import (
	"fmt"
	"net"
	"sync"

	"github.com/Prakti/striptease/pkg/protocol"
)

// RemoteError reports a non-OK status returned by the server.
type RemoteError struct {
	Op     string
	Name   string
	Status protocol.Status
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %q: server returned %s", e.Op, e.Name, e.Status)
}

// Client speaks the storage protocol over a single connection. Requests are
// synchronous; a transaction id correlates each response with its request.
// Safe for concurrent use, one request in flight at a time.
type Client struct {
	registry *protocol.Registry
	mutex    sync.Mutex
	conn     net.Conn
	trans    uint8
}

// Dial connects to a storage server.
func Dial(addr string) (*Client, error) {
	registry, err := protocol.NewStorageRegistry()
	if err != nil {
		return nil, fmt.Errorf("building protocol registry: %w", err)
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	return &Client{registry: registry, conn: conn}, nil
}

// Put stores data under name.
func (c *Client) Put(name string, data []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	trans := c.nextTrans()
	resp, err := c.roundTrip(&protocol.StoreRequest{Trans: trans, Name: name, Data: data})
	if err != nil {
		return err
	}
	m, ok := resp.(*protocol.StoreResponse)
	if !ok {
		return fmt.Errorf("put %q: unexpected response id %#02x", name, resp.ID())
	}
	if m.Trans != trans {
		return fmt.Errorf("put %q: response for transaction %d, want %d", name, m.Trans, trans)
	}
	if m.Status != protocol.StatusOK {
		return &RemoteError{Op: "put", Name: name, Status: m.Status}
	}
	return nil
}

// Get fetches the data stored under name.
func (c *Client) Get(name string) ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	trans := c.nextTrans()
	resp, err := c.roundTrip(&protocol.FetchRequest{Trans: trans, Name: name})
	if err != nil {
		return nil, err
	}
	m, ok := resp.(*protocol.FetchResponse)
	if !ok {
		return nil, fmt.Errorf("get %q: unexpected response id %#02x", name, resp.ID())
	}
	if m.Trans != trans {
		return nil, fmt.Errorf("get %q: response for transaction %d, want %d", name, m.Trans, trans)
	}
	if m.Status != protocol.StatusOK {
		return nil, &RemoteError{Op: "get", Name: name, Status: m.Status}
	}
	return m.Data, nil
}

// Del removes the data stored under name.
func (c *Client) Del(name string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	trans := c.nextTrans()
	resp, err := c.roundTrip(&protocol.DeleteRequest{Trans: trans, Name: name})
	if err != nil {
		return err
	}
	m, ok := resp.(*protocol.DeleteResponse)
	if !ok {
		return fmt.Errorf("del %q: unexpected response id %#02x", name, resp.ID())
	}
	if m.Trans != trans {
		return fmt.Errorf("del %q: response for transaction %d, want %d", name, m.Trans, trans)
	}
	if m.Status != protocol.StatusOK {
		return &RemoteError{Op: "del", Name: name, Status: m.Status}
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.conn.Close()
}

func (c *Client) nextTrans() uint8 {
	c.trans++
	return c.trans
}

func (c *Client) roundTrip(req protocol.Message) (protocol.Message, error) {
	frame, err := c.registry.Encode(req)
	if err != nil {
		return nil, err
	}
	if err := writeFrame(c.conn, frame); err != nil {
		return nil, err
	}
	reply, err := readFrame(c.conn)
	if err != nil {
		return nil, err
	}
	return c.registry.Decode(reply)
}
