package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/kvmesh-go/internal/protocol"
	"github.com/yndnr/kvmesh-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := verifyKV(&cfg.Server.KV); err != nil {
		return err
	}
	if err := verifyHTTP(&cfg.Server); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyKV(cfg *KVConfig) error {
	if err := verifyAddr("server.kv.addr", cfg.Addr); err != nil {
		return err
	}
	if cfg.ReadBufferSize < 1 {
		return errors.New("server.kv.read_buffer_size must be at least 1")
	}
	if cfg.OutboxSize < 1 {
		return errors.New("server.kv.outbox_size must be at least 1")
	}
	if cfg.WriteTimeout <= 0 {
		return errors.New("server.kv.write_timeout must be positive")
	}
	if cfg.MaxFrameSize < cfg.ReadBufferSize {
		return fmt.Errorf("server.kv.max_frame_size (%d) must be at least read_buffer_size (%d)",
			cfg.MaxFrameSize, cfg.ReadBufferSize)
	}
	if cfg.MaxDepth < 1 || cfg.MaxDepth > protocol.MaxArrayLen {
		return fmt.Errorf("server.kv.max_depth must be between 1 and %d", protocol.MaxArrayLen)
	}
	if cfg.CommandRate < 0 {
		return errors.New("server.kv.command_rate must not be negative")
	}
	if cfg.CommandRate > 0 && cfg.CommandBurst < 1 {
		return errors.New("server.kv.command_burst must be at least 1 when command_rate is set")
	}
	return nil
}

func verifyHTTP(cfg *ServerSection) error {
	if !cfg.HTTP.Enabled {
		return nil
	}
	if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
		return err
	}
	if cfg.HTTP.Addr == cfg.KV.Addr {
		return fmt.Errorf("server.http.addr and server.kv.addr are both %s", cfg.HTTP.Addr)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
}

func verifyAddr(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}
