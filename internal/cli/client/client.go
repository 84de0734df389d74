// Package client implements a minimal RESP client for keva-cli.
package client

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/kevadb/keva-go/internal/server/resp"
)

// DefaultTimeout bounds dialing and each request/reply exchange.
const DefaultTimeout = 5 * time.Second

// Client is a RESP client over a single TCP connection. It is not
// safe for concurrent use.
type Client struct {
	conn    net.Conn
	timeout time.Duration

	// buf holds reply bytes read from the connection but not yet
	// decoded.
	buf []byte
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-exchange timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Dial connects to a KevaDB server.
func Dial(addr string, opts ...Option) (*Client, error) {
	c := &Client{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := net.DialTimeout("tcp", addr, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	c.conn = conn

	return c, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends one command and waits for its reply. A RESP Error reply is
// returned as a *ServerError so callers can distinguish server-side
// refusals from transport failures.
func (c *Client) Do(args ...string) (resp.Value, error) {
	if len(args) == 0 {
		return resp.Value{}, errors.New("empty command")
	}

	elems := make([]resp.Value, 0, len(args))
	for _, a := range args {
		elems = append(elems, resp.NewBulkString(a))
	}
	request := resp.Encode(resp.NewArray(elems...))

	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return resp.Value{}, err
	}
	if _, err := c.conn.Write(request); err != nil {
		return resp.Value{}, fmt.Errorf("send command: %w", err)
	}

	reply, err := c.readReply()
	if err != nil {
		return resp.Value{}, err
	}
	if reply.Type == resp.Error {
		return reply, &ServerError{Message: reply.Str}
	}
	return reply, nil
}

// readReply reads from the connection until one complete RESP value
// can be decoded.
func (c *Client) readReply() (resp.Value, error) {
	tmp := make([]byte, 4096)
	for {
		v, n, err := resp.Decode(c.buf)
		if err == nil {
			c.buf = c.buf[n:]
			return v, nil
		}
		if !errors.Is(err, resp.ErrIncomplete) {
			return resp.Value{}, fmt.Errorf("malformed reply: %w", err)
		}

		nr, err := c.conn.Read(tmp)
		if nr > 0 {
			c.buf = append(c.buf, tmp[:nr]...)
		}
		if err != nil {
			return resp.Value{}, fmt.Errorf("read reply: %w", err)
		}
	}
}

// ServerError is an error reply from the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}
