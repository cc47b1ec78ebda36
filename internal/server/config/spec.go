package config

import "time"

// ServerConfig is the root configuration for kvmesh-server.
type ServerConfig struct {
	Server ServerSection `koanf:"server"`
	Log    LogSection    `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	KV   KVConfig   `koanf:"kv"`
	HTTP HTTPConfig `koanf:"http"`
}

// KVConfig configures the key/value protocol server.
type KVConfig struct {
	Addr     string `koanf:"addr"`
	Greeting string `koanf:"greeting"`

	// ReadBufferSize is the size of a single socket read.
	ReadBufferSize int `koanf:"read_buffer_size"`

	// OutboxSize bounds the frames queued for one connection.
	OutboxSize int `koanf:"outbox_size"`

	// WriteTimeout bounds one frame write to a client.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// MaxFrameSize bounds bytes buffered for an incomplete frame.
	MaxFrameSize int `koanf:"max_frame_size"`

	// MaxDepth bounds array nesting in a frame.
	MaxDepth int `koanf:"max_depth"`

	// CommandRate is batches per second per connection; 0 disables.
	CommandRate  float64 `koanf:"command_rate"`
	CommandBurst int     `koanf:"command_burst"`
}

// HTTPConfig configures the HTTP side server.
type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
