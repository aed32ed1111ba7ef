// Package web serves the status API and the live event feed of a running
// tracking task.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-ctt/pkg/hub"
	"github.com/teslashibe/go-ctt/pkg/protocol"
	"github.com/teslashibe/go-ctt/pkg/remote"
	"github.com/teslashibe/go-ctt/pkg/session"
	"github.com/teslashibe/go-ctt/pkg/tracking"
)

// ErrNoHistory is returned by Backend.History when no store is configured.
var ErrNoHistory = errors.New("web: trial history not available")

// Backend is the application surface behind the API. Status, Summaries and
// History are called from request goroutines; SetTuning must hand the change
// to the simulation goroutine and wait for the result.
type Backend interface {
	Status() protocol.StatusData
	Summaries() []session.Summary
	History(ctx context.Context, limit int) ([]session.Summary, error)
	Tuning() tracking.TuningParams
	SetTuning(ctx context.Context, p tracking.TuningParams) error
}

// Server is the status server
type Server struct {
	cfg     Config
	app     *fiber.App
	backend Backend
	logger  *slog.Logger

	// Commands from HTTP and websocket clients, drained by the simulation
	// goroutine like the TCP remote channel.
	commands chan remote.Command

	// Hub for the live event feed
	events *hub.Hub
}

// NewServer creates a new status server
func NewServer(cfg Config, backend Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		backend:  backend,
		logger:   logger.With("component", "web"),
		commands: make(chan remote.Command, 16),
		events:   hub.New("events", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "CTT Status",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(s.checkOrigin)
	// CORS for dashboards served elsewhere
	if len(cfg.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
		}))
	}

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/session", s.handleSession)
	api.Get("/history", s.handleHistory)
	api.Get("/tuning", s.handleGetTuning)
	api.Put("/tuning", s.handleSetTuning)
	api.Post("/start", s.handleCommand(remote.Command{Kind: remote.CmdStart}))
	api.Post("/stop", s.handleCommand(remote.Command{Kind: remote.CmdStop}))
	api.Post("/exit", s.handleCommand(remote.Command{Kind: remote.CmdExit}))
	api.Post("/lambda/:index", s.handleLambda)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Commands returns the channel of control commands submitted over HTTP or
// the event feed.
func (s *Server) Commands() <-chan remote.Command {
	return s.commands
}

// Hub returns the event feed hub.
func (s *Server) Hub() *hub.Hub {
	return s.events
}

// Run serves on the configured port until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, s.cfg.Port))
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// checkOrigin refuses browser requests from foreign origins so that an
// arbitrary page cannot start, stop or exit the task.
func (s *Server) checkOrigin(c *fiber.Ctx) error {
	origin := c.Get(fiber.HeaderOrigin)
	if origin == "" || slices.Contains(s.cfg.AllowedOrigins, origin) {
		return c.Next()
	}
	if u, err := url.Parse(origin); err == nil && u.Host == string(c.Request().Host()) {
		return c.Next()
	}
	s.logger.Warn("request from foreign origin refused", "origin", origin, "path", c.Path())
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "origin not allowed"})
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("status server listening", "addr", ln.Addr().String())

	go s.events.Run(ctx)
	go s.statusLoop(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Listener(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(2 * time.Second); err != nil {
			s.logger.Warn("status server shutdown", "error", err)
		}
		<-errCh
		return nil
	}
}

func (s *Server) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.StatusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.events.ClientCount() == 0 {
				continue
			}
			s.PublishStatus()
		}
	}
}

// PublishEvent forwards an engine event to the feed. Position events are
// skipped unless ForwardPositions is set.
func (s *Server) PublishEvent(ev tracking.Event) {
	if ev.Kind == tracking.EventPositionChanged && !s.cfg.ForwardPositions {
		return
	}
	s.publish(protocol.NewEventMessage(ev))
}

// PublishRemote forwards a remote session change to the feed.
func (s *Server) PublishRemote(ev remote.ConnectionEvent) {
	s.publish(protocol.NewRemoteMessage(ev.Connected, ev.Peer))
}

// PublishTrial forwards a finished trial summary to the feed.
func (s *Server) PublishTrial(sum session.Summary) {
	s.publish(protocol.NewTrialMessage(sum))
}

// PublishStatus pushes the current status to the feed.
func (s *Server) PublishStatus() {
	s.publish(protocol.NewStatusMessage(s.backend.Status()))
}

func (s *Server) publish(msg *protocol.Message, err error) {
	if err == nil {
		err = s.events.BroadcastProtocol(msg)
	}
	if err != nil {
		s.logger.Warn("event feed encode failed", "error", err)
	}
}

// submit queues cmd for the simulation goroutine. It reports false when the
// queue is full.
func (s *Server) submit(cmd remote.Command) bool {
	select {
	case s.commands <- cmd:
		return true
	default:
		s.logger.Warn("command queue full", "command", cmd.String())
		return false
	}
}
