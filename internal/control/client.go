package control

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

// Client is a line client for the registration protocol.
type Client struct {
	conn   net.Conn
	r      *bufio.Reader
	banner []string
}

// Dial connects to addr and consumes the banner.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c := &Client{conn: conn, r: bufio.NewReader(conn)}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	for range Banner {
		line, err := c.readLine()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("read banner: %w", err)
		}
		c.banner = append(c.banner, line)
	}
	if !strings.HasPrefix(c.banner[0], "REGISTRATION_SERVER:") {
		conn.Close()
		return nil, fmt.Errorf("unexpected banner %q", c.banner[0])
	}
	_ = conn.SetDeadline(time.Time{})
	return c, nil
}

// Banner returns the lines announced by the server.
func (c *Client) Banner() []string { return c.banner }

// Do sends cmd and returns the full response, OK:/ERROR: prefix included.
// A LIST response is read through its closing Events: line.
func (c *Client) Do(ctx context.Context, cmd string) (string, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(dl)
		defer c.conn.SetDeadline(time.Time{})
	}
	if _, err := c.conn.Write([]byte(strings.TrimRight(cmd, "\r\n") + "\n")); err != nil {
		return "", err
	}
	first, err := c.readLine()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(first, "OK:Producers:") {
		return first, nil
	}
	lines := []string{first}
	for {
		l, err := c.readLine()
		if err != nil {
			return strings.Join(lines, "\n"), err
		}
		lines = append(lines, l)
		if strings.HasPrefix(l, "Events:") {
			return strings.Join(lines, "\n"), nil
		}
	}
}

// Close ends the session without sending QUIT.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) readLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
