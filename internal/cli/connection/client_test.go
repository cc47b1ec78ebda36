package connection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/kvmesh-go/internal/protocol"
	"github.com/yndnr/kvmesh-go/internal/server/kvserver"
	"github.com/yndnr/kvmesh-go/internal/storage/memory"
)

// pipeServer runs a real kvserver over in-memory pipes.
type pipeServer struct {
	t   *testing.T
	srv *kvserver.Server
	db  *memory.Database
}

func newPipeServer(t *testing.T) *pipeServer {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := memory.New(memory.WithLogger(quiet))
	srv := kvserver.New(kvserver.DefaultConfig(), db, kvserver.WithLogger(quiet))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return &pipeServer{t: t, srv: srv, db: db}
}

func (p *pipeServer) client(opts ...Option) *Client {
	p.t.Helper()
	clientSide, serverSide := net.Pipe()
	go p.srv.ServeConn(serverSide)

	c, err := NewClient(context.Background(), clientSide, opts...)
	if err != nil {
		p.t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func (p *pipeServer) exec(cmds ...protocol.Command) []protocol.Value {
	p.t.Helper()
	values, err := p.client().Exec(context.Background(), cmds...)
	if err != nil {
		p.t.Fatalf("Exec(%v) error = %v", cmds, err)
	}
	return values
}

func create(key string, v protocol.Value) protocol.Command {
	return protocol.Command{Kind: protocol.CmdCreate, Key: key, Value: v}
}

func read(key string) protocol.Command {
	return protocol.Command{Kind: protocol.CmdRead, Key: key}
}

func expectValues(t *testing.T, got []protocol.Value, want ...protocol.Value) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d values %v, want %v", len(got), got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("value %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestClient_Greeting(t *testing.T) {
	p := newPipeServer(t)
	c := p.client()
	defer c.Close()

	if got := c.Greeting(); got != "connect to kv" {
		t.Errorf("Greeting() = %q, want %q", got, "connect to kv")
	}
}

func TestClient_ExecCRUD(t *testing.T) {
	p := newPipeServer(t)

	expectValues(t, p.exec(create("k", protocol.Text("v1"))))
	expectValues(t, p.exec(read("k")), protocol.Text("v1"))
	expectValues(t,
		p.exec(protocol.Command{Kind: protocol.CmdUpdate, Key: "k", Value: protocol.Integer(2)}),
		protocol.Text("v1"))
	expectValues(t, p.exec(protocol.Command{Kind: protocol.CmdDelete, Key: "k"}), protocol.Integer(2))
	expectValues(t, p.exec(read("k")))
}

func TestClient_ExecBatch(t *testing.T) {
	p := newPipeServer(t)

	got := p.exec(
		create("a", protocol.Array(protocol.Text("x"), protocol.Integer(1))),
		read("a"),
		read("missing"),
		create("a", protocol.Text("y")),
	)
	arr := protocol.Array(protocol.Text("x"), protocol.Integer(1))
	expectValues(t, got, arr, arr)
}

func TestClient_ExecNoCommands(t *testing.T) {
	p := newPipeServer(t)
	expectValues(t, p.exec())
}

func TestClient_Subscribe(t *testing.T) {
	p := newPipeServer(t)
	p.exec(create("k", protocol.Text("v1")))

	sub := p.client()
	defer sub.Close()

	errStop := errors.New("stop")
	got := make(chan protocol.Notification, 4)
	errCh := make(chan error, 1)
	go func() {
		seen := 0
		errCh <- sub.Subscribe(context.Background(), "k", func(n protocol.Notification) error {
			got <- n
			seen++
			if seen == 2 {
				return errStop
			}
			return nil
		})
	}()

	select {
	case n := <-got:
		if n.Key != "k" || !n.Value.Equal(protocol.Text("v1")) {
			t.Errorf("snapshot = %+v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot")
	}

	p.exec(protocol.Command{Kind: protocol.CmdUpdate, Key: "k", Value: protocol.Text("v2")})

	select {
	case err := <-errCh:
		if !errors.Is(err, errStop) {
			t.Fatalf("Subscribe() = %v, want errStop", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update notification")
	}
	n := <-got
	if !n.Value.Equal(protocol.Text("v2")) {
		t.Errorf("update = %+v, want v2", n)
	}
}

func TestClient_SubscribeAbsentKeyHonoursContext(t *testing.T) {
	p := newPipeServer(t)
	sub := p.client()
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := sub.Subscribe(ctx, "nothing", func(protocol.Notification) error {
		t.Error("unexpected notification")
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Subscribe() = %v, want deadline exceeded", err)
	}
}

// fakeServer answers one request with the given chunks, then closes.
func fakeServer(t *testing.T, chunks ...string) net.Conn {
	t.Helper()
	clientSide, serverSide := net.Pipe()
	go func() {
		defer serverSide.Close()
		buf := make([]byte, 1024)
		if _, err := serverSide.Read(buf); err != nil {
			return
		}
		for _, c := range chunks {
			if _, err := serverSide.Write([]byte(c)); err != nil {
				return
			}
		}
	}()
	return clientSide
}

func TestClient_PartialFrames(t *testing.T) {
	conn := fakeServer(t, "$5\r\nhel", "lo\r\n:4", "2\r\n")
	c, err := NewClient(context.Background(), conn, WithoutGreeting())
	if err != nil {
		t.Fatal(err)
	}

	values, err := c.Exec(context.Background(), read("k"))
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	expectValues(t, values, protocol.Text("hello"), protocol.Integer(42))
}

func TestClient_TruncatedFrame(t *testing.T) {
	conn := fakeServer(t, "$5\r\nhel")
	c, err := NewClient(context.Background(), conn, WithoutGreeting())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Exec(context.Background(), read("k")); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Exec() = %v, want unexpected EOF", err)
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	conn := fakeServer(t, "!oops\r\n")
	c, err := NewClient(context.Background(), conn, WithoutGreeting())
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Exec(context.Background(), read("k"))
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Errorf("Exec() = %v, want decode error", err)
	}
}

func TestClient_GreetingTooLong(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	go func() {
		defer serverSide.Close()
		_, _ = serverSide.Write([]byte(strings.Repeat("x", 2*maxGreetingSize)))
	}()

	_, err := NewClient(context.Background(), clientSide)
	if !errors.Is(err, ErrGreetingTooLong) {
		t.Errorf("NewClient() = %v, want ErrGreetingTooLong", err)
	}
}

func TestClient_GreetingTimeout(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer serverSide.Close()

	_, err := NewClient(context.Background(), clientSide, WithTimeout(30*time.Millisecond))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("NewClient() = %v, want deadline exceeded", err)
	}
}

func TestDial_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := Dial(context.Background(), addr, WithTimeout(time.Second)); err == nil {
		t.Error("Dial() to a closed port should fail")
	}
}

func TestDial_Loopback(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := kvserver.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := kvserver.New(cfg, memory.New(memory.WithLogger(quiet)), kvserver.WithLogger(quiet))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Shutdown(context.Background())

	c, err := Dial(context.Background(), srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	values, err := c.Exec(context.Background(), create("k", protocol.Text("v")), read("k"))
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	expectValues(t, values, protocol.Text("v"))
}
