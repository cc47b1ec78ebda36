// Package memory provides the in-memory key/value database for kvmesh.
//
// Every operation runs under one process-wide mutex, so all creates,
// reads, updates, deletes and subscribes form a single total order.
// Subscriber fan-out happens while that mutex is held.
package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/kvmesh-go/internal/protocol"
)

// Subscriber is an output handle registered by Subscribe.
//
// Deliver must not block indefinitely: it runs with the database mutex
// held. An error marks the handle dead and it is pruned.
type Subscriber interface {
	ID() string
	Deliver(frame []byte) error
}

// Metrics receives fan-out events. A nil Metrics is allowed.
type Metrics interface {
	NotificationSent()
	DeliveryFailed()
}

// DeliveryError reports subscribers that could not be reached during an
// update. The update itself has been applied.
type DeliveryError struct {
	Key         string
	Subscribers []string
	Err         error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("memory: delivery to %d subscriber(s) of %q failed: %s",
		len(e.Subscribers), e.Key, strings.Join(e.Subscribers, ","))
}

// Unwrap returns the joined delivery errors.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// entry is the stored record for one key.
type entry struct {
	value protocol.Value
	// expiresAt is recorded but never enforced.
	expiresAt time.Time
	// subscribers is nil or non-empty.
	subscribers []Subscriber
}

// EntryInfo is a read-only view of an entry.
type EntryInfo struct {
	Value       protocol.Value
	ExpiresAt   time.Time
	Subscribers int
}

// Stats summarises database contents.
type Stats struct {
	Keys        int
	Subscribers int
}

// Database owns the key -> entry map.
type Database struct {
	mu      sync.Mutex
	data    map[string]*entry
	logger  *slog.Logger
	metrics Metrics
}

// Option configures the Database.
type Option func(*Database)

// WithLogger sets the logger used for fan-out failures.
func WithLogger(logger *slog.Logger) Option {
	return func(db *Database) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// WithMetrics sets the fan-out metrics sink.
func WithMetrics(m Metrics) Option {
	return func(db *Database) {
		db.metrics = m
	}
}

// New creates an empty database.
func New(opts ...Option) *Database {
	db := &Database{
		data:   make(map[string]*entry),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Exec runs fn with the database mutex held. All Txn calls made inside fn
// are atomic with respect to every other database operation. The Txn must
// not be retained after fn returns.
func (db *Database) Exec(fn func(tx *Txn) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(&Txn{db: db})
}

// Create stores value under key, replacing any existing entry.
func (db *Database) Create(key string, value protocol.Value) (prior protocol.Value, existed bool) {
	_ = db.Exec(func(tx *Txn) error {
		prior, existed = tx.Create(key, value)
		return nil
	})
	return prior, existed
}

// Read returns the value stored under key.
func (db *Database) Read(key string) (value protocol.Value, ok bool) {
	_ = db.Exec(func(tx *Txn) error {
		value, ok = tx.Read(key)
		return nil
	})
	return value, ok
}

// Update replaces the value of an existing key after notifying its
// subscribers. A *DeliveryError is returned alongside the prior value when
// some subscribers were unreachable.
func (db *Database) Update(key string, value protocol.Value) (prior protocol.Value, existed bool, err error) {
	_ = db.Exec(func(tx *Txn) error {
		prior, existed, err = tx.Update(key, value)
		return nil
	})
	return prior, existed, err
}

// Delete removes key and returns its value.
func (db *Database) Delete(key string) (removed protocol.Value, existed bool) {
	_ = db.Exec(func(tx *Txn) error {
		removed, existed = tx.Delete(key)
		return nil
	})
	return removed, existed
}

// Subscribe registers sub on key. See Txn.Subscribe.
func (db *Database) Subscribe(key string, sub Subscriber) (count int) {
	_ = db.Exec(func(tx *Txn) error {
		count = tx.Subscribe(key, sub)
		return nil
	})
	return count
}

// Info returns a view of the entry stored under key.
func (db *Database) Info(key string) (EntryInfo, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.data[key]
	if !ok {
		return EntryInfo{}, false
	}
	return EntryInfo{
		Value:       e.value.Clone(),
		ExpiresAt:   e.expiresAt,
		Subscribers: len(e.subscribers),
	}, true
}

// SetExpiry records an expiry time on key. The time is reported by Info
// but never enforced. It returns false when key is absent.
func (db *Database) SetExpiry(key string, at time.Time) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.data[key]
	if !ok {
		return false
	}
	e.expiresAt = at
	return true
}

// Stats returns key and subscriber totals.
func (db *Database) Stats() Stats {
	db.mu.Lock()
	defer db.mu.Unlock()

	st := Stats{Keys: len(db.data)}
	for _, e := range db.data {
		st.Subscribers += len(e.subscribers)
	}
	return st
}

// broadcast sends frame to every subscriber of e, pruning the ones that
// fail. Must be called with db.mu held.
func (db *Database) broadcast(key string, e *entry, frame []byte) error {
	var (
		failed []string
		errs   []error
	)
	live := e.subscribers[:0]
	for _, sub := range e.subscribers {
		if err := sub.Deliver(frame); err != nil {
			db.logger.Warn("subscriber unreachable, pruning",
				"key", key,
				"subscriber", sub.ID(),
				"error", err,
			)
			if db.metrics != nil {
				db.metrics.DeliveryFailed()
			}
			failed = append(failed, sub.ID())
			errs = append(errs, err)
			continue
		}
		if db.metrics != nil {
			db.metrics.NotificationSent()
		}
		live = append(live, sub)
	}

	for i := len(live); i < len(e.subscribers); i++ {
		e.subscribers[i] = nil
	}
	if len(live) == 0 {
		e.subscribers = nil
	} else {
		e.subscribers = live
	}

	if len(failed) > 0 {
		return &DeliveryError{Key: key, Subscribers: failed, Err: errors.Join(errs...)}
	}
	return nil
}
