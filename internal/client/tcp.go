package client

import (
	"context"
	"net"
	"strings"
	"time"
)

// TCPClient opens a new connection for every Send. Connections are not
// pooled; each payload is written once and the connection closed.
type TCPClient struct {
	addr    string
	timeout time.Duration
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

func newTCPClient(addr string, o options) *TCPClient {
	c := &TCPClient{addr: addr, timeout: o.timeout, dial: o.dialer}
	if c.dial == nil {
		d := &net.Dialer{}
		c.dial = d.DialContext
	}
	return c
}

func (c *TCPClient) Protocol() Protocol { return ProtocolTCP }
func (c *TCPClient) Address() string    { return c.addr }

// Timeout returns the per-send dial and write bound.
func (c *TCPClient) Timeout() time.Duration { return c.timeout }

// Send writes payload, newline-terminated, to the target address.
func (c *TCPClient) Send(ctx context.Context, payload string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(ctx, "tcp", c.addr)
	if err != nil {
		return deliveryError{addr: c.addr, op: "dial", err: err}
	}
	defer conn.Close()

	// A context canceled mid-write unblocks the write through the deadline.
	deadline, _ := ctx.Deadline()
	_ = conn.SetWriteDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = conn.SetWriteDeadline(time.Unix(1, 0)) })
	defer stop()

	if !strings.HasSuffix(payload, "\n") {
		payload += "\n"
	}
	if _, err := conn.Write([]byte(payload)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return deliveryError{addr: c.addr, op: "write", err: err}
	}
	return nil
}
