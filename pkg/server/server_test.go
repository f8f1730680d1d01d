package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prakti/striptease/pkg/protocol"
	"github.com/Prakti/striptease/pkg/store"
)

func startServer(t *testing.T) string {
	t.Helper()

	st, err := store.NewLogStore(store.LogStoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	_, err = st.Open()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv, err := New(Config{Addr: "127.0.0.1:0", Store: st, Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	return srv.Addr().String()
}

func TestServerRoundTrip(t *testing.T) {
	addr := startServer(t)

	client, err := Dial(addr)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Put("greeting", []byte("hello")))

	data, err := client.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	require.NoError(t, client.Del("greeting"))

	_, err = client.Get("greeting")
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, protocol.StatusEKey, remote.Status)
}

func TestServerMissingKey(t *testing.T) {
	addr := startServer(t)

	client, err := Dial(addr)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Get("never-stored")
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, protocol.StatusEKey, remote.Status)
	assert.Equal(t, "get", remote.Op)
}

func TestServerConcurrentClients(t *testing.T) {
	addr := startServer(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client, err := Dial(addr)
			if !assert.NoError(t, err) {
				return
			}
			defer client.Close()

			name := fmt.Sprintf("key-%d", i)
			value := []byte(fmt.Sprintf("value-%d", i))
			if !assert.NoError(t, client.Put(name, value)) {
				return
			}
			got, err := client.Get(name)
			if assert.NoError(t, err) {
				assert.Equal(t, value, got)
			}
		}(i)
	}
	wg.Wait()
}

func TestServerDropsConnectionOnBadFrame(t *testing.T) {
	addr := startServer(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	// Valid header shape but an unregistered message id.
	_, err = conn.Write([]byte{0xEE, 0x00, 0x00})
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestServerRejectsResponseAsRequest(t *testing.T) {
	addr := startServer(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	registry, err := protocol.NewStorageRegistry()
	require.NoError(t, err)
	frame, err := registry.Encode(&protocol.StoreResponse{Trans: 1, Name: "x", Status: protocol.StatusOK})
	require.NoError(t, err)
	_, err = conn.Write(frame)
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}
