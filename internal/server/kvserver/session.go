package kvserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/kvmesh-go/internal/protocol"
	"github.com/yndnr/kvmesh-go/internal/storage/memory"
)

// session is one client connection.
type session struct {
	id      string
	conn    net.Conn
	cfg     *Config
	db      *memory.Database
	logger  *slog.Logger
	metrics Metrics
	out     *Outbox
	limiter *rate.Limiter

	// pending holds bytes of a frame that has not fully arrived.
	pending []byte
}

func newSession(id string, conn net.Conn, cfg *Config, db *memory.Database, l *slog.Logger, m Metrics) *session {
	s := &session{
		id:      id,
		conn:    conn,
		cfg:     cfg,
		db:      db,
		logger:  l.With("conn_id", id, "remote", conn.RemoteAddr().String()),
		metrics: m,
		out:     NewOutbox(id, cfg.OutboxSize),
	}
	if cfg.CommandRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.CommandRate), cfg.CommandBurst)
	}
	return s
}

// close tears the connection down from outside the session.
func (s *session) close() {
	s.out.Close()
	_ = s.conn.Close()
}

// run serves the connection until the client disconnects, the connection
// fails, or ctx is cancelled.
func (s *session) run(ctx context.Context) {
	defer s.conn.Close()

	s.logger.Debug("session opened")
	if s.cfg.Greeting != "" {
		if err := s.write([]byte(s.cfg.Greeting)); err != nil {
			s.logger.Debug("greeting failed", "error", err)
			return
		}
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop()
	}()

	s.readLoop(ctx)

	// Let the writer flush responses queued before the session ended.
	s.out.Close()
	<-writerDone
	s.logger.Debug("session closed")
}

func (s *session) write(frame []byte) error {
	if s.cfg.WriteTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	_, err := s.conn.Write(frame)
	return err
}

func (s *session) writeLoop() {
	if err := s.out.drain(s.write); err != nil {
		if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
			s.logger.Debug("connection closed with frames pending", "error", err)
		} else {
			s.logger.Warn("write failed, closing connection", "error", err)
		}
		// Producers, including other sessions' updates, now see
		// ErrOutboxClosed and prune this subscriber.
		s.out.Close()
		_ = s.conn.Close()
	}
}

func (s *session) readLoop(ctx context.Context) {
	buf := make([]byte, s.cfg.ReadBufferSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			if stop := s.consume(ctx, buf[:n]); stop {
				return
			}
		}
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				s.logger.Debug("client closed connection")
			case errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
				s.logger.Debug("connection closed")
			default:
				s.logger.Warn("read failed", "error", err)
			}
			return
		}
	}
}

// consume appends data to the pending buffer and executes every complete
// frame in it. It reports whether the session should stop.
func (s *session) consume(ctx context.Context, data []byte) bool {
	s.pending = append(s.pending, data...)

	for len(s.pending) > 0 {
		tok, n, err := protocol.Lex(s.pending, protocol.WithMaxDepth(s.cfg.MaxDepth))
		if errors.Is(err, protocol.ErrUnexpectedEOF) {
			if len(s.pending) > s.cfg.MaxFrameSize {
				s.logger.Warn("incomplete frame exceeds size limit, discarding",
					"size", len(s.pending),
					"limit", s.cfg.MaxFrameSize,
				)
				s.metrics.DecodeFailed("limit")
				s.pending = s.pending[:0]
			}
			return false
		}
		if err != nil {
			// The frame boundary is lost; drop everything buffered.
			s.logger.Warn("discarding malformed frame",
				"error", err,
				"kind", protocol.ErrorKind(err),
				"payload", string(s.pending),
			)
			s.metrics.DecodeFailed(protocol.ErrorKind(err))
			s.pending = s.pending[:0]
			return false
		}

		cmds, err := parseToken(tok)
		if err != nil {
			s.logger.Warn("discarding invalid command frame",
				"error", err,
				"kind", protocol.ErrorKind(err),
				"payload", string(s.pending[:n]),
			)
			s.metrics.DecodeFailed(protocol.ErrorKind(err))
		}
		s.pending = append(s.pending[:0], s.pending[n:]...)
		if err != nil {
			continue
		}
		if stop := s.execute(ctx, cmds); stop {
			return true
		}
	}
	return false
}

func parseToken(tok protocol.Token) ([]protocol.Command, error) {
	p, err := protocol.NewParserFromToken(tok)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

// execute runs one batch atomically. It reports whether the session should
// stop.
func (s *session) execute(ctx context.Context, cmds []protocol.Command) bool {
	if len(cmds) == 0 {
		return false
	}
	if s.limiter != nil {
		if !s.limiter.Allow() {
			s.metrics.RateLimited()
			if err := s.limiter.Wait(ctx); err != nil {
				return true
			}
		}
	}

	stop := false
	_ = s.db.Exec(func(tx *memory.Txn) error {
		for _, cmd := range cmds {
			if cmd.Kind == protocol.CmdDisconnect {
				s.logger.Debug("client requested disconnect")
				s.metrics.ObserveCommand(cmd.Kind.String(), 0)
				stop = true
				return nil
			}

			start := time.Now()
			resp, ok := s.apply(tx, cmd)
			s.metrics.ObserveCommand(cmd.Kind.String(), time.Since(start))

			if !ok {
				continue
			}
			if err := s.out.Push(protocol.EncodeValue(resp)); err != nil {
				s.logger.Warn("response dropped, ending batch",
					"command", cmd.Kind.String(),
					"error", err,
				)
				stop = true
				return nil
			}
		}
		return nil
	})
	return stop
}

// apply executes a single command. It returns the response value and
// whether there is one to send.
func (s *session) apply(tx *memory.Txn, cmd protocol.Command) (protocol.Value, bool) {
	switch cmd.Kind {
	case protocol.CmdCreate:
		return tx.Create(cmd.Key, cmd.Value)
	case protocol.CmdRead:
		return tx.Read(cmd.Key)
	case protocol.CmdUpdate:
		prior, ok, err := tx.Update(cmd.Key, cmd.Value)
		if err != nil {
			s.logger.Warn("update delivered partially", "key", cmd.Key, "error", err)
		}
		return prior, ok
	case protocol.CmdDelete:
		return tx.Delete(cmd.Key)
	case protocol.CmdSubscribe:
		count := tx.Subscribe(cmd.Key, s.out)
		s.logger.Debug("subscribe", "key", cmd.Key, "subscribers", count)
		return protocol.Value{}, false
	default:
		return protocol.Value{}, false
	}
}
