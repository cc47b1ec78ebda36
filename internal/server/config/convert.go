package config

import (
	"github.com/yndnr/kvmesh-go/internal/server/kvserver"
	"github.com/yndnr/kvmesh-go/internal/telemetry/logger"
)

// ToKVServerConfig maps the kv section onto the protocol server config.
func ToKVServerConfig(cfg *ServerConfig) *kvserver.Config {
	kv := cfg.Server.KV
	return &kvserver.Config{
		Addr:           kv.Addr,
		Greeting:       kv.Greeting,
		ReadBufferSize: kv.ReadBufferSize,
		OutboxSize:     kv.OutboxSize,
		WriteTimeout:   kv.WriteTimeout,
		MaxFrameSize:   kv.MaxFrameSize,
		MaxDepth:       kv.MaxDepth,
		CommandRate:    kv.CommandRate,
		CommandBurst:   kv.CommandBurst,
	}
}

// ToLoggerConfig maps the log section onto the logger config.
func ToLoggerConfig(cfg *ServerConfig) logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.Format = cfg.Log.Format
	return lc
}
