package kvserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/kvmesh-go/internal/storage/memory"
	"github.com/yndnr/kvmesh-go/pkg/cmap"
)

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("kvserver: server closed")

// Metrics receives connection and command events.
type Metrics interface {
	ConnOpened()
	ConnClosed()
	ObserveCommand(command string, d time.Duration)
	DecodeFailed(kind string)
	RateLimited()
}

type noopMetrics struct{}

func (noopMetrics) ConnOpened()                          {}
func (noopMetrics) ConnClosed()                          {}
func (noopMetrics) ObserveCommand(string, time.Duration) {}
func (noopMetrics) DecodeFailed(string)                  {}
func (noopMetrics) RateLimited()                         {}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// Server accepts connections and runs a session for each.
type Server struct {
	cfg     *Config
	db      *memory.Database
	logger  *slog.Logger
	metrics Metrics

	mu      sync.Mutex
	ln      net.Listener
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	sessions *cmap.Map[*session]
}

// New creates a protocol server over db.
func New(cfg *Config, db *memory.Database, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg.withDefaults(),
		db:       db,
		logger:   slog.Default(),
		metrics:  noopMetrics{},
		sessions: cmap.New[*session](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Start binds the configured address and serves in the background. A bind
// failure is returned to the caller.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.logger.Info("kv server listening", "address", ln.Addr().String())

	// Addr is valid as soon as Start returns.
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Serve(ctx, ln); err != nil && !errors.Is(err, ErrServerClosed) {
			s.logger.Error("kv server error", "error", err)
		}
	}()
	return nil
}

// Serve accepts connections on ln until Shutdown is called or ctx is
// cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.ln = ln
	s.running.Store(true)
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		_ = s.Shutdown(context.Background())
	})
	defer stop()

	return s.acceptLoop(ln)
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	return s.sessions.Count()
}

func (s *Server) acceptLoop(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return ErrServerClosed
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.logger.Warn("accept timeout", "error", err)
				continue
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(c)
		}()
	}
}

// ServeConn runs a session on conn and blocks until it ends.
func (s *Server) ServeConn(conn net.Conn) {
	id := ulid.Make().String()
	sess := newSession(id, conn, s.cfg, s.db, s.logger, s.metrics)

	s.sessions.Set(id, sess)
	s.metrics.ConnOpened()
	defer func() {
		s.sessions.Delete(id)
		s.metrics.ConnClosed()
	}()

	// Shutdown may have swept the registry before this session joined it.
	if s.ctx.Err() != nil {
		sess.close()
		return
	}
	sess.run(s.ctx)
}

// Shutdown stops accepting, closes every live session and waits for their
// goroutines to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	s.mu.Lock()
	s.cancel()
	ln := s.ln
	s.mu.Unlock()

	var firstErr error
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}

	for _, sess := range s.sessions.Values() {
		sess.close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return firstErr
}
