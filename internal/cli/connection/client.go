package connection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/yndnr/kvmesh-go/internal/protocol"
)

const (
	defaultTimeout  = 5 * time.Second
	readBufferSize  = 4096
	maxGreetingSize = 4096
)

// ErrGreetingTooLong is returned when no line break arrives within the
// greeting size limit.
var ErrGreetingTooLong = errors.New("connection: greeting too long")

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds dialing and each Exec call that has no context
// deadline. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithoutGreeting is for servers configured with an empty greeting.
func WithoutGreeting() Option {
	return func(c *Client) {
		c.expectGreeting = false
	}
}

// WithMaxDepth sets the nesting limit for decoding responses.
func WithMaxDepth(depth int) Option {
	return func(c *Client) {
		c.lexOpts = append(c.lexOpts, protocol.WithMaxDepth(depth))
	}
}

// Client is a single protocol connection.
type Client struct {
	conn           net.Conn
	timeout        time.Duration
	expectGreeting bool
	greeting       string
	lexOpts        []protocol.LexerOption

	buf     []byte
	pending []byte
}

// Dial connects to addr and reads the greeting.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	c := newClient(opts)

	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return c.attach(ctx, conn)
}

// NewClient wraps an established connection and reads the greeting.
func NewClient(ctx context.Context, conn net.Conn, opts ...Option) (*Client, error) {
	return newClient(opts).attach(ctx, conn)
}

func newClient(opts []Option) *Client {
	c := &Client{
		timeout:        defaultTimeout,
		expectGreeting: true,
		buf:            make([]byte, readBufferSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) attach(ctx context.Context, conn net.Conn) (*Client, error) {
	c.conn = conn
	if !c.expectGreeting {
		return c, nil
	}

	ctx, cancel := c.bounded(ctx)
	defer cancel()
	done := c.watch(ctx)
	err := c.readGreeting()
	if err = done(err); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read greeting: %w", err)
	}
	return c, nil
}

// Greeting returns the greeting line the server sent, without its CRLF.
func (c *Client) Greeting() string {
	return c.greeting
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Exec sends cmds followed by DISCONNECT in one frame and returns every
// response the server wrote before closing. Commands that produce no
// response contribute nothing, so a single READ of an absent key returns
// an empty slice. The connection is finished afterwards.
func (c *Client) Exec(ctx context.Context, cmds ...protocol.Command) ([]protocol.Value, error) {
	defer c.conn.Close()

	ctx, cancel := c.bounded(ctx)
	defer cancel()
	done := c.watch(ctx)

	batch := append(append([]protocol.Command(nil), cmds...), protocol.Command{Kind: protocol.CmdDisconnect})
	if _, err := c.conn.Write(protocol.EncodeBatch(batch...)); err != nil {
		return nil, done(fmt.Errorf("send: %w", err))
	}

	var values []protocol.Value
	for {
		v, err := c.readValue()
		if errors.Is(err, io.EOF) {
			return values, done(nil)
		}
		if err != nil {
			return values, done(err)
		}
		values = append(values, v)
	}
}

// Subscribe registers for key and calls fn for the snapshot and every
// later update until ctx is cancelled, the server closes the connection,
// or fn returns an error. An absent key produces no notifications.
func (c *Client) Subscribe(ctx context.Context, key string, fn func(protocol.Notification) error) error {
	done := c.watch(ctx)

	cmd := protocol.Command{Kind: protocol.CmdSubscribe, Key: key}
	if _, err := c.conn.Write(protocol.EncodeCommand(cmd)); err != nil {
		return done(fmt.Errorf("send: %w", err))
	}

	for {
		v, err := c.readValue()
		if err != nil {
			return done(err)
		}
		n, err := protocol.AsNotification(v)
		if err != nil {
			return done(err)
		}
		if err := fn(n); err != nil {
			return done(err)
		}
	}
}

// bounded applies the client timeout when ctx has no deadline.
func (c *Client) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// watch makes blocking I/O honour ctx. The returned function must be
// called with the operation's error; it maps deadline failures caused by
// ctx back to ctx.Err().
func (c *Client) watch(ctx context.Context) func(error) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	return func(err error) error {
		stop()
		_ = c.conn.SetDeadline(time.Time{})
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
}

func (c *Client) fill() error {
	n, err := c.conn.Read(c.buf)
	c.pending = append(c.pending, c.buf[:n]...)
	if n > 0 && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (c *Client) readGreeting() error {
	for {
		if i := bytes.Index(c.pending, []byte("\r\n")); i >= 0 {
			c.greeting = string(c.pending[:i])
			c.pending = append(c.pending[:0], c.pending[i+2:]...)
			return nil
		}
		if len(c.pending) > maxGreetingSize {
			return ErrGreetingTooLong
		}
		if err := c.fill(); err != nil {
			return err
		}
	}
}

// readValue returns the next complete frame, reading more input as
// needed. It returns io.EOF on a clean close between frames.
func (c *Client) readValue() (protocol.Value, error) {
	for {
		if len(c.pending) > 0 {
			v, n, err := protocol.DecodeValue(c.pending, c.lexOpts...)
			if err == nil {
				c.pending = append(c.pending[:0], c.pending[n:]...)
				return v, nil
			}
			if !errors.Is(err, protocol.ErrUnexpectedEOF) {
				return protocol.Value{}, fmt.Errorf("decode response: %w", err)
			}
		}

		if err := c.fill(); err != nil {
			if errors.Is(err, io.EOF) && len(c.pending) > 0 {
				return protocol.Value{}, io.ErrUnexpectedEOF
			}
			return protocol.Value{}, err
		}
	}
}
