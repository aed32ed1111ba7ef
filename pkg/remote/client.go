package remote

import (
	"fmt"
	"net"
	"time"
)

// Client is a minimal protocol client for scripts and tests.
type Client struct {
	conn net.Conn
}

// Dial connects to a remote-control server.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Send writes one command line. The command is validated locally so typos
// are reported instead of being silently ignored by the server.
func (c *Client) Send(command string) error {
	cmd, ok := ParseCommand(command)
	if !ok {
		return fmt.Errorf("unknown command %q", command)
	}
	if _, err := c.conn.Write([]byte(cmd.String() + "\n")); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	return nil
}

// SendRaw writes bytes as-is.
func (c *Client) SendRaw(data string) error {
	_, err := c.conn.Write([]byte(data))
	return err
}

// Closed reports whether the server closed the connection within wait.
func (c *Client) Closed(wait time.Duration) bool {
	c.conn.SetReadDeadline(time.Now().Add(wait))
	defer c.conn.SetReadDeadline(time.Time{})

	var b [1]byte
	_, err := c.conn.Read(b[:])
	if err == nil {
		return false
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return false
	}
	return true
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
