package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

var (
	// ErrInvalidConfig is returned when the remote configuration is unusable.
	ErrInvalidConfig = errors.New("remote: invalid config")

	// ErrServerClosed is returned by Serve after Close.
	ErrServerClosed = errors.New("remote: server closed")
)

// ConnectionEvent reports a session change.
type ConnectionEvent struct {
	Connected bool      `json:"connected"`
	Peer      string    `json:"peer"`
	Time      time.Time `json:"time"`
}

// session is the single active peer.
type session struct {
	conn net.Conn
	done chan struct{}
}

// Server accepts one control session at a time and publishes decoded
// commands on a channel. It never touches simulation state itself.
type Server struct {
	cfg    Config
	logger *slog.Logger

	commands chan Command
	quit     chan struct{}

	mu        sync.Mutex
	listener  net.Listener
	active    *session
	closed    bool
	onConnect func(ConnectionEvent)

	wg sync.WaitGroup
}

// NewServer creates a server. Call Listen, then Serve.
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Policy = Policy(strings.ToLower(string(cfg.Policy)))
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		logger:   logger.With("component", "remote"),
		commands: make(chan Command, 16),
		quit:     make(chan struct{}),
	}, nil
}

// OnConnectionChange registers fn for connect and disconnect events.
// Call it before Serve.
func (s *Server) OnConnectionChange(fn func(ConnectionEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = fn
}

// Commands returns the channel of decoded commands. The simulation goroutine
// drains it and applies each command with Apply.
func (s *Server) Commands() <-chan Command {
	return s.commands
}

// Listen binds the TCP listener.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("remote listen %s: %w", s.cfg.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("remote control listening", "addr", ln.Addr().String(), "policy", s.cfg.Policy)
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Connected reports whether a peer is attached.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// Serve accepts connections until ctx is cancelled or Close is called.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("remote: Serve called before Listen")
	}

	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || ctx.Err() != nil {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("remote accept: %w", err)
		}
		s.admit(ctx, conn)
	}
}

// admit applies the connection policy to a new peer.
func (s *Server) admit(ctx context.Context, conn net.Conn) {
	peer := conn.RemoteAddr().String()

	s.mu.Lock()
	prev := s.active
	if prev != nil && s.cfg.Policy != PolicyReplace {
		s.mu.Unlock()
		s.logger.Warn("rejecting second remote client", "peer", peer)
		conn.Close()
		return
	}
	s.mu.Unlock()

	if prev != nil {
		s.logger.Info("replacing remote client", "peer", peer)
		prev.conn.Close()
		<-prev.done
	}

	sess := &session{conn: conn, done: make(chan struct{})}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.active = sess
	s.mu.Unlock()

	s.logger.Info("remote client connected", "peer", peer)
	s.notify(ConnectionEvent{Connected: true, Peer: peer, Time: time.Now()})

	s.wg.Add(1)
	go s.handle(ctx, sess, peer)
}

func (s *Server) handle(ctx context.Context, sess *session, peer string) {
	defer s.wg.Done()
	defer close(sess.done)
	defer func() {
		sess.conn.Close()
		s.mu.Lock()
		if s.active == sess {
			s.active = nil
		}
		s.mu.Unlock()
		s.logger.Info("remote client disconnected", "peer", peer)
		s.notify(ConnectionEvent{Connected: false, Peer: peer, Time: time.Now()})
	}()

	buf := make([]byte, s.cfg.ReadBufferSize)
	for {
		n, err := sess.conn.Read(buf)
		if n > 0 {
			for _, line := range SplitCommands(string(buf[:n])) {
				cmd, ok := ParseCommand(line)
				if !ok {
					s.logger.Debug("ignoring remote command", "peer", peer, "raw", line)
					continue
				}
				select {
				case s.commands <- cmd:
				case <-ctx.Done():
					return
				case <-s.quit:
					return
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *Server) notify(ev ConnectionEvent) {
	s.mu.Lock()
	fn := s.onConnect
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// Close stops the listener, drops the active session and waits for its
// reader to exit. It is safe to call Close multiple times.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.quit)
	ln := s.listener
	active := s.active
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	if active != nil {
		active.conn.Close()
	}
	s.wg.Wait()
	return err
}
