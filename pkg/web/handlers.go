package web

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-ctt/pkg/hub"
	"github.com/teslashibe/go-ctt/pkg/protocol"
	"github.com/teslashibe/go-ctt/pkg/remote"
	"github.com/teslashibe/go-ctt/pkg/tracking"
)

// handleStatus returns the current engine snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.backend.Status())
}

// handleSession returns the summaries of trials since startup
func (s *Server) handleSession(c *fiber.Ctx) error {
	status := s.backend.Status()
	return c.JSON(fiber.Map{
		"records": status.Records,
		"trials":  s.backend.Summaries(),
	})
}

// handleHistory returns stored trial summaries, newest first
func (s *Server) handleHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	sums, err := s.backend.History(c.UserContext(), limit)
	if errors.Is(err, ErrNoHistory) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(sums)
}

// handleGetTuning returns the current dynamics
func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	return c.JSON(s.backend.Tuning())
}

// handleSetTuning applies new dynamics between trials
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	var params tracking.TuningParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid tuning body"})
	}

	err := s.backend.SetTuning(c.UserContext(), params)
	switch {
	case errors.Is(err, tracking.ErrRunning):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, tracking.ErrInvalidConfig):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.backend.Tuning())
}

// handleCommand queues a fixed protocol command
func (s *Server) handleCommand(cmd remote.Command) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return s.queue(c, cmd)
	}
}

// handleLambda queues a difficulty change
func (s *Server) handleLambda(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "index must be an integer"})
	}
	return s.queue(c, remote.Command{Kind: remote.CmdLambda, Index: index})
}

func (s *Server) queue(c *fiber.Ctx, cmd remote.Command) error {
	if !s.submit(cmd) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "command queue full"})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": cmd.String()})
}

// handleEventsWS streams the event feed and accepts commands
func (s *Server) handleEventsWS(conn *websocket.Conn) {
	client := hub.NewClient(s.events, conn, s.handleClientMessage)
	if client == nil {
		conn.Close()
		return
	}

	// Send current status so the client does not wait for the next tick
	if msg, err := protocol.NewStatusMessage(s.backend.Status()); err == nil {
		if m, err := hub.FromProtocol(msg); err == nil {
			client.Send(m)
		}
	}

	client.Run()
}

// handleClientMessage decodes a message received on the event feed
func (s *Server) handleClientMessage(client *hub.Client, data []byte) {
	reply := s.replyTo(client)

	msg, err := protocol.ParseMessage(data)
	if err != nil {
		reply(protocol.NewErrorMessage(err.Error()))
		return
	}

	switch msg.Type {
	case protocol.TypeCommand:
		cd, err := msg.GetCommandData()
		if err != nil {
			reply(protocol.NewErrorMessage("invalid command data"))
			return
		}
		cmd, ok := remote.ParseCommand(cd.Command)
		if !ok {
			reply(protocol.NewErrorMessage("unknown command: "+cd.Command))
			return
		}
		if !s.submit(cmd) {
			reply(protocol.NewErrorMessage("command queue full"))
		}

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			return
		}
		reply(protocol.NewPongMessage(ping.ID, ping.Timestamp, time.Now().UnixMilli()))

	default:
		reply(protocol.NewErrorMessage("unsupported message type: "+string(msg.Type)))
	}
}

// replyTo returns a sender that accepts a message constructor's results
// directly, dropping messages that failed to build.
func (s *Server) replyTo(client *hub.Client) func(*protocol.Message, error) {
	return func(msg *protocol.Message, err error) {
		if err != nil {
			return
		}
		m, err := hub.FromProtocol(msg)
		if err != nil {
			return
		}
		client.Send(m)
	}
}
