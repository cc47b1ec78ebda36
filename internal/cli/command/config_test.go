package command

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/kvmesh-go/internal/cli/config"
)

func TestConfig_InitShowProfiles(t *testing.T) {
	t.Setenv("KVMESH_SERVER", "")
	path := filepath.Join(t.TempDir(), "nested", "cli.yaml")
	ctx := context.Background()

	out, err := runApp(t, ctx, "--config", path, "config", "init")
	if err != nil {
		t.Fatalf("init error = %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("init output = %q", out)
	}

	if _, err := runApp(t, ctx, "--config", path, "config", "init"); err == nil {
		t.Error("init should refuse to overwrite without --force")
	}
	if _, err := runApp(t, ctx, "--config", path, "config", "init", "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}

	if _, err := runApp(t, ctx, "--config", path, "config", "set-profile", "lab", "10.1.1.1:1122"); err != nil {
		t.Fatalf("set-profile error = %v", err)
	}
	if _, err := runApp(t, ctx, "--config", path, "config", "use", "lab"); err != nil {
		t.Fatalf("use error = %v", err)
	}
	if _, err := runApp(t, ctx, "--config", path, "config", "use", "missing"); err == nil {
		t.Error("use of an unknown profile should fail")
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Current != "lab" || cfg.Profiles["lab"].Server != "10.1.1.1:1122" {
		t.Errorf("saved config = %+v", cfg)
	}

	out, err = runApp(t, ctx, "--config", path, "-o", "yaml", "config", "show")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	for _, want := range []string{"server: 10.1.1.1:1122", "output: yaml", "current: lab"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestConfig_SetProfileArgs(t *testing.T) {
	_, err := runApp(t, context.Background(), withConfig(t, "config", "set-profile", "only-name")...)
	if err == nil || !strings.Contains(err.Error(), "NAME and ADDRESS") {
		t.Errorf("error = %v", err)
	}
}
