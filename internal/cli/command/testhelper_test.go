package command

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvmesh-go/internal/server/kvserver"
	"github.com/yndnr/kvmesh-go/internal/storage/memory"
)

// startServer runs a kvserver on a loopback port for the test.
func startServer(t *testing.T) (string, *memory.Database) {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := memory.New(memory.WithLogger(quiet))

	cfg := kvserver.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := kvserver.New(cfg, db, kvserver.WithLogger(quiet))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv.Addr().String(), db
}

// syncBuffer is written by the app and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// runApp runs the CLI with a private config file and returns its output.
func runApp(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	out := &syncBuffer{}
	app := App()
	app.Writer = out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{"kvmesh-cli"}, args...)
	err := app.RunContext(ctx, full)
	return out.String(), err
}

// withConfig prepends a temp config path so tests never read ~/.kvmesh.
func withConfig(t *testing.T, args ...string) []string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.yaml")
	return append([]string{"--config", path}, args...)
}
