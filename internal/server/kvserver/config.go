package kvserver

import (
	"time"

	"github.com/yndnr/kvmesh-go/internal/protocol"
)

// DefaultGreeting is sent to every client on connect.
const DefaultGreeting = "connect to kv\r\n"

// Config holds the protocol server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// Greeting is written verbatim on connect. Empty disables it.
	Greeting string
	// ReadBufferSize is the size of each socket read (default: 1024).
	ReadBufferSize int
	// OutboxSize bounds frames queued for one connection (default: 256).
	OutboxSize int
	// WriteTimeout bounds a single frame write (default: 10s).
	// Notifications are queued with the database lock held, so this also
	// bounds how long a stalled client can hold up other connections.
	WriteTimeout time.Duration
	// MaxFrameSize bounds bytes buffered while waiting for a frame to
	// complete (default: 1MiB).
	MaxFrameSize int
	// MaxDepth bounds array nesting (default: 32).
	MaxDepth int
	// CommandRate is the sustained batches per second per connection.
	// Zero disables rate limiting.
	CommandRate float64
	// CommandBurst is the rate limiter burst size.
	CommandBurst int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:           "127.0.0.1:1122",
		Greeting:       DefaultGreeting,
		ReadBufferSize: 1024,
		OutboxSize:     256,
		WriteTimeout:   10 * time.Second,
		MaxFrameSize:   1 << 20,
		MaxDepth:       protocol.DefaultMaxDepth,
		CommandRate:    0,
		CommandBurst:   100,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.ReadBufferSize <= 0 {
		out.ReadBufferSize = def.ReadBufferSize
	}
	if out.OutboxSize <= 0 {
		out.OutboxSize = def.OutboxSize
	}
	if out.MaxFrameSize <= 0 {
		out.MaxFrameSize = def.MaxFrameSize
	}
	if out.MaxDepth <= 0 {
		out.MaxDepth = def.MaxDepth
	}
	if out.CommandBurst <= 0 {
		out.CommandBurst = def.CommandBurst
	}
	return &out
}
