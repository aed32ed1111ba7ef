package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-ctt/pkg/protocol"
)

type frame struct {
	kind int
	data []byte
}

type fakeConn struct {
	in     chan []byte
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex
	written []frame
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 8), closed: make(chan struct{})}
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-f.in:
		return websocket.TextMessage, data, nil
	case <-f.closed:
		return 0, nil, errors.New("closed")
	}
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	select {
	case <-f.closed:
		return errors.New("closed")
	default:
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, frame{kind: kind, data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) frames() []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]frame(nil), f.written...)
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	require.Eventually(t, h.IsRunning, time.Second, time.Millisecond)
	t.Cleanup(cancel)
	return h, cancel
}

func connect(t *testing.T, h *Hub, handler Handler) (*Client, *fakeConn) {
	t.Helper()
	fc := newFakeConn()
	c := NewClient(h, fc, handler)
	require.NotNil(t, c)
	go c.Run()
	t.Cleanup(func() { fc.Close() })
	return c, fc
}

func TestHub_Broadcast(t *testing.T) {
	h, _ := startHub(t)
	_, a := connect(t, h, nil)
	_, b := connect(t, h, nil)
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)

	msg, err := protocol.NewRemoteMessage(true, "peer")
	require.NoError(t, err)
	require.NoError(t, h.BroadcastProtocol(msg))

	for _, fc := range []*fakeConn{a, b} {
		require.Eventually(t, func() bool { return len(fc.frames()) == 1 }, time.Second, time.Millisecond)
		f := fc.frames()[0]
		assert.Equal(t, websocket.TextMessage, f.kind)

		parsed, err := protocol.ParseMessage(f.data)
		require.NoError(t, err)
		assert.Equal(t, protocol.TypeRemote, parsed.Type)
	}
}

func TestHub_BinaryMessage(t *testing.T) {
	h, _ := startHub(t)
	_, fc := connect(t, h, nil)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	h.Broadcast(NewBinaryMessage([]byte{1, 2, 3}))
	require.Eventually(t, func() bool { return len(fc.frames()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, websocket.BinaryMessage, fc.frames()[0].kind)
}

func TestHub_ClientMessagesReachHandler(t *testing.T) {
	h, _ := startHub(t)

	got := make(chan string, 1)
	_, fc := connect(t, h, func(_ *Client, data []byte) { got <- string(data) })

	fc.in <- []byte(`{"type":"command","data":{"command":"start"}}`)
	select {
	case s := <-got:
		assert.Contains(t, s, "start")
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}
}

func TestHub_DirectSend(t *testing.T) {
	h, _ := startHub(t)
	c, fc := connect(t, h, nil)
	_, other := connect(t, h, nil)
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)

	require.True(t, c.Send(NewJSONMessage([]byte(`{"type":"status"}`))))
	require.Eventually(t, func() bool { return len(fc.frames()) == 1 }, time.Second, time.Millisecond)

	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, other.frames())
}

func TestHub_Disconnect(t *testing.T) {
	h, _ := startHub(t)
	_, fc := connect(t, h, nil)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	fc.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	h, cancel := startHub(t)
	c, fc := connect(t, h, nil)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return !h.IsRunning() }, time.Second, time.Millisecond)

	select {
	case <-fc.closed:
	case <-time.After(time.Second):
		t.Fatal("client connection not closed")
	}
	assert.False(t, c.Send(NewJSONMessage([]byte(`{}`))))
	assert.Nil(t, NewClient(h, newFakeConn(), nil))
}

// gatedConn blocks writes until the gate is opened.
type gatedConn struct {
	*fakeConn
	gate    chan struct{}
	writing chan struct{}
	once    sync.Once
}

func (g *gatedConn) WriteMessage(kind int, data []byte) error {
	g.once.Do(func() { close(g.writing) })
	<-g.gate
	return g.fakeConn.WriteMessage(kind, data)
}

func TestClient_RunWaitsForWriter(t *testing.T) {
	h, _ := startHub(t)
	gc := &gatedConn{fakeConn: newFakeConn(), gate: make(chan struct{}), writing: make(chan struct{})}
	c := NewClient(h, gc, nil)
	require.NotNil(t, c)

	returned := make(chan struct{})
	go func() {
		c.Run()
		close(returned)
	}()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	h.Broadcast(NewJSONMessage([]byte(`{"type":"event"}`)))
	select {
	case <-gc.writing:
	case <-time.After(time.Second):
		t.Fatal("writer never started")
	}

	// Reader stops while the writer is still inside WriteMessage.
	gc.Close()
	select {
	case <-returned:
		t.Fatal("Run returned while a write was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(gc.gate)
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the writer stopped")
	}
}
