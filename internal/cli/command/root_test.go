package command

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvmesh-go/internal/cli/config"
	"github.com/yndnr/kvmesh-go/internal/cli/output"
)

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "kvmesh-cli" {
		t.Errorf("Name = %q, want kvmesh-cli", app.Name)
	}

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, name := range []string{"create", "read", "update", "delete", "sub", "ping", "config"} {
		if !names[name] {
			t.Errorf("missing command: %s", name)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	names := make(map[string]bool)
	for _, f := range globalFlags() {
		names[f.Names()[0]] = true
	}
	for _, name := range []string{"config", "server", "profile", "output", "timeout", "no-greeting"} {
		if !names[name] {
			t.Errorf("missing flag: %s", name)
		}
	}
}

// captureSettings runs the Before hook through a no-op command.
func captureSettings(t *testing.T, args ...string) (*Settings, error) {
	t.Helper()
	var got *Settings
	app := App()
	app.Commands = []*cli.Command{{
		Name: "noop",
		Action: func(c *cli.Context) error {
			got = GetSettings(c)
			return nil
		},
	}}
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append(append([]string{"kvmesh-cli"}, args...), "noop"))
	return got, err
}

func TestSettings_Defaults(t *testing.T) {
	t.Setenv("KVMESH_SERVER", "")
	s, err := captureSettings(t, withConfig(t)...)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.Server != config.DefaultServer {
		t.Errorf("Server = %q, want %q", s.Server, config.DefaultServer)
	}
	if s.Format != output.FormatTable || s.Timeout != config.DefaultTimeout || !s.Greeting {
		t.Errorf("settings = %+v", s)
	}
}

func TestSettings_FilePrecedence(t *testing.T) {
	t.Setenv("KVMESH_SERVER", "")
	path := filepath.Join(t.TempDir(), "cli.yaml")
	content := "server: file:1\noutput: yaml\ntimeout: 3s\nprofiles:\n  other:\n    server: other:2\ncurrent: other\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := captureSettings(t, "--config", path)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.Server != "other:2" {
		t.Errorf("Server = %q, want current profile", s.Server)
	}
	if s.Format != output.FormatYAML || s.Timeout != 3*time.Second {
		t.Errorf("settings = %+v", s)
	}

	s, err = captureSettings(t, "--config", path, "--server", "flag:3", "-o", "json", "--timeout", "1s", "--no-greeting")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.Server != "flag:3" || s.Format != output.FormatJSON || s.Timeout != time.Second || s.Greeting {
		t.Errorf("flags should win: %+v", s)
	}
}

func TestSettings_UnknownProfile(t *testing.T) {
	_, err := captureSettings(t, withConfig(t, "--profile", "nope")...)
	if err == nil || !strings.Contains(err.Error(), "unknown profile") {
		t.Errorf("Run() = %v, want unknown profile error", err)
	}
}

func TestSettings_BadOutput(t *testing.T) {
	_, err := captureSettings(t, withConfig(t, "-o", "xml")...)
	if err == nil {
		t.Error("Run() should reject an unknown output format")
	}
}

func TestGetSettings_WithoutBefore(t *testing.T) {
	app := &cli.App{Metadata: map[string]any{}}
	s := GetSettings(cli.NewContext(app, nil, nil))
	if s.Server != config.DefaultServer {
		t.Errorf("Server = %q", s.Server)
	}
}

func TestPing(t *testing.T) {
	addr, _ := startServer(t)

	out, err := runApp(t, context.Background(), withConfig(t, "--server", addr, "-o", "json", "ping")...)
	if err != nil {
		t.Fatalf("ping error = %v", err)
	}
	if !strings.Contains(out, `"greeting": "connect to kv"`) {
		t.Errorf("output = %s", out)
	}
}

func TestPing_Unreachable(t *testing.T) {
	_, err := runApp(t, context.Background(), withConfig(t, "--server", "127.0.0.1:1", "--timeout", "200ms", "ping")...)
	if err == nil {
		t.Error("ping to a closed port should fail")
	}
}
