package config

import "time"

// Default configuration values.
const (
	DefaultKVAddr         = "127.0.0.1:1122"
	DefaultGreeting       = "connect to kv\r\n"
	DefaultReadBufferSize = 1024
	DefaultOutboxSize     = 256
	DefaultWriteTimeout   = 10 * time.Second
	DefaultMaxFrameSize   = 1 << 20
	DefaultMaxDepth       = 32
	DefaultCommandBurst   = 100

	DefaultHTTPAddr = "127.0.0.1:5080"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			KV: KVConfig{
				Addr:           DefaultKVAddr,
				Greeting:       DefaultGreeting,
				ReadBufferSize: DefaultReadBufferSize,
				OutboxSize:     DefaultOutboxSize,
				WriteTimeout:   DefaultWriteTimeout,
				MaxFrameSize:   DefaultMaxFrameSize,
				MaxDepth:       DefaultMaxDepth,
				CommandRate:    0,
				CommandBurst:   DefaultCommandBurst,
			},
			HTTP: HTTPConfig{
				Enabled: false,
				Addr:    DefaultHTTPAddr,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
