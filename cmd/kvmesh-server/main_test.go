package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvmesh-go/internal/telemetry/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestFlagOverrides(t *testing.T) {
	var got map[string]any
	app := newApp()
	app.Action = func(c *cli.Context) error {
		got = flagOverrides(c)
		return nil
	}

	args := []string{"kvmesh-server", "--addr", "0.0.0.0:7000", "--http-addr", "127.0.0.1:7001", "--log-level", "debug"}
	if err := app.Run(args); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := map[string]any{
		"server.kv.addr":      "0.0.0.0:7000",
		"server.http.addr":    "127.0.0.1:7001",
		"server.http.enabled": true,
		"log.level":           "debug",
	}
	if len(got) != len(want) {
		t.Fatalf("flagOverrides() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("flagOverrides()[%q] = %v, want %v", k, got[k], v)
		}
	}
}

func TestFlagOverrides_Unset(t *testing.T) {
	var got map[string]any
	app := newApp()
	app.Action = func(c *cli.Context) error {
		got = flagOverrides(c)
		return nil
	}
	if err := app.Run([]string{"kvmesh-server"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("flagOverrides() = %v, want empty", got)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("", nil)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Server.KV.Addr != "127.0.0.1:1122" {
		t.Errorf("Server.KV.Addr = %q", cfg.Server.KV.Addr)
	}
	if cfg.Server.HTTP.Enabled {
		t.Error("HTTP should be disabled by default")
	}
}

func TestLoadConfig_FileThenFlags(t *testing.T) {
	path := writeConfig(t, `
server:
  kv:
    addr: "127.0.0.1:4000"
    outbox_size: 16
log:
  level: warn
`)

	cfg, err := loadConfig(path, map[string]any{"log.level": "error"})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Server.KV.Addr != "127.0.0.1:4000" {
		t.Errorf("Server.KV.Addr = %q, want 127.0.0.1:4000", cfg.Server.KV.Addr)
	}
	if cfg.Server.KV.OutboxSize != 16 {
		t.Errorf("Server.KV.OutboxSize = %d, want 16", cfg.Server.KV.OutboxSize)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
	}
	if cfg.Server.KV.Greeting != "connect to kv\r\n" {
		t.Errorf("default greeting lost: %q", cfg.Server.KV.Greeting)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "log:\n  level: loud\n")
	if _, err := loadConfig(path, nil); err == nil {
		t.Fatal("loadConfig() should reject an unknown log level")
	}
}

func TestReloadLogLevel(t *testing.T) {
	t.Cleanup(func() { logger.SetLevel("info") })
	logger.SetLevel("info")

	path := writeConfig(t, "log:\n  level: debug\n")

	reloadLogLevel(path, nil)
	if got := logger.GetLevel(); got != "debug" {
		t.Errorf("GetLevel() = %q, want debug", got)
	}

	// A broken file leaves the level alone.
	if err := os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	reloadLogLevel(path, nil)
	if got := logger.GetLevel(); got != "debug" {
		t.Errorf("GetLevel() = %q, want debug after invalid reload", got)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Cleanup(func() { logger.SetLevel("info") })

	ctx, cancel := context.WithCancel(context.Background())
	flags := map[string]any{
		"server.kv.addr":      "127.0.0.1:0",
		"server.http.addr":    "127.0.0.1:0",
		"server.http.enabled": true,
		"log.level":           "error",
	}

	done := make(chan error, 1)
	go func() {
		done <- run(ctx, "", flags, 5*time.Second)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

func TestRun_BindFailure(t *testing.T) {
	t.Cleanup(func() { logger.SetLevel("info") })

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()

	flags := map[string]any{
		"server.kv.addr": busy.Addr().String(),
		"log.level":      "error",
	}
	if err := run(context.Background(), "", flags, time.Second); err == nil {
		t.Fatal("run() should fail when the listener cannot bind")
	}
}
