package kvserver

import (
	"errors"
	"sync"
)

// ErrOutboxClosed is returned when pushing to a closed outbox.
var ErrOutboxClosed = errors.New("kvserver: outbox closed")

// Outbox is a connection's outbound frame queue. Any number of producers
// may push; the connection's writer is the only consumer.
//
// Outbox implements memory.Subscriber.
type Outbox struct {
	id     string
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

// NewOutbox creates an outbox holding up to size queued frames.
func NewOutbox(id string, size int) *Outbox {
	if size < 1 {
		size = 1
	}
	return &Outbox{
		id:     id,
		frames: make(chan []byte, size),
		done:   make(chan struct{}),
	}
}

// ID returns the owning connection ID.
func (o *Outbox) ID() string {
	return o.id
}

// Push queues frame, blocking while the queue is full.
func (o *Outbox) Push(frame []byte) error {
	select {
	case <-o.done:
		return ErrOutboxClosed
	default:
	}
	select {
	case o.frames <- frame:
		return nil
	case <-o.done:
		return ErrOutboxClosed
	}
}

// Deliver implements memory.Subscriber.
func (o *Outbox) Deliver(frame []byte) error {
	return o.Push(frame)
}

// Close stops accepting frames. Frames already queued can still be
// drained. Close is idempotent.
func (o *Outbox) Close() {
	o.once.Do(func() { close(o.done) })
}

// Closed reports whether Close has been called.
func (o *Outbox) Closed() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// drain calls write for each frame until the outbox is closed and empty,
// or write fails.
func (o *Outbox) drain(write func([]byte) error) error {
	for {
		select {
		case frame := <-o.frames:
			if err := write(frame); err != nil {
				return err
			}
		case <-o.done:
			for {
				select {
				case frame := <-o.frames:
					if err := write(frame); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		}
	}
}
