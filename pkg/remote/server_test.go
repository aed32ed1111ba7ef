package remote

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-ctt/pkg/tracking"
)

type eventLog struct {
	mu     sync.Mutex
	events []ConnectionEvent
}

func (l *eventLog) add(ev ConnectionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) connected() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]bool, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Connected
	}
	return out
}

func startServer(t *testing.T, policy Policy) (*Server, *eventLog) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.Policy = policy

	srv, err := NewServer(cfg, nil)
	require.NoError(t, err)

	log := &eventLog{}
	srv.OnConnectionChange(log.add)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, ErrServerClosed)
	})
	return srv, log
}

func dial(t *testing.T, srv *Server) *Client {
	t.Helper()
	c, err := Dial(srv.Addr().String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func receive(t *testing.T, srv *Server) Command {
	t.Helper()
	select {
	case cmd := <-srv.Commands():
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("no command received")
		return Command{}
	}
}

func TestServer_DecodesCommands(t *testing.T) {
	srv, log := startServer(t, PolicyReject)
	c := dial(t, srv)

	require.NoError(t, c.SendRaw("LAMBDA3"))
	assert.Equal(t, Command{Kind: CmdLambda, Index: 3}, receive(t, srv))

	// Malformed input is dropped and the session stays usable.
	require.NoError(t, c.SendRaw("bogus\nlambdaX\n"))
	require.NoError(t, c.Send("start"))
	assert.Equal(t, Command{Kind: CmdStart}, receive(t, srv))
	assert.False(t, c.Closed(50*time.Millisecond))

	require.Eventually(t, srv.Connected, time.Second, 5*time.Millisecond)
	assert.Equal(t, []bool{true}, log.connected())

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return !srv.Connected() }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(log.connected()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []bool{true, false}, log.connected())
}

func TestServer_RejectsSecondClient(t *testing.T) {
	srv, _ := startServer(t, PolicyReject)
	first := dial(t, srv)
	require.Eventually(t, srv.Connected, time.Second, 5*time.Millisecond)

	second := dial(t, srv)
	assert.True(t, second.Closed(2*time.Second), "second client is dropped")

	require.NoError(t, first.Send("stop"))
	assert.Equal(t, Command{Kind: CmdStop}, receive(t, srv))
}

func TestServer_ReplacesClient(t *testing.T) {
	srv, log := startServer(t, PolicyReplace)
	first := dial(t, srv)
	require.Eventually(t, srv.Connected, time.Second, 5*time.Millisecond)

	second := dial(t, srv)
	assert.True(t, first.Closed(2*time.Second), "first client is replaced")

	require.NoError(t, second.Send("exit"))
	assert.Equal(t, Command{Kind: CmdExit}, receive(t, srv))
	assert.Equal(t, []bool{true, false, true}, log.connected())
}

func TestServer_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = "queue"
	_, err := NewServer(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// The simulation goroutine drains commands and applies them to the engine.
func TestScenario_LambdaOnlyWhileStopped(t *testing.T) {
	srv, _ := startServer(t, PolicyReject)
	c := dial(t, srv)

	engine, err := tracking.New(tracking.DefaultConfig())
	require.NoError(t, err)

	send := func(s string) Result {
		require.NoError(t, c.Send(s))
		return Apply(receive(t, srv), engine)
	}

	assert.True(t, send("lambda3").Applied)
	assert.Equal(t, 3, engine.DifficultyIndex())
	assert.Equal(t, 2.0, engine.Difficulty())

	assert.True(t, send("start").Applied)
	assert.True(t, engine.Running())

	assert.False(t, send("lambda5").Applied)
	assert.Equal(t, 3, engine.DifficultyIndex())

	assert.False(t, send("start").Applied)

	res := send("exit")
	assert.True(t, res.Exit)
	assert.False(t, engine.Running())
}
