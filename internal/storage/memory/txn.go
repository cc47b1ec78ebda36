package memory

import (
	"github.com/yndnr/kvmesh-go/internal/protocol"
)

// Txn is the set of operations available while the database mutex is
// held. It is only valid inside the Exec callback that produced it.
type Txn struct {
	db *Database
}

// Create stores value under key. An existing entry is replaced wholesale:
// its subscribers are dropped without notification.
func (tx *Txn) Create(key string, value protocol.Value) (protocol.Value, bool) {
	prev, existed := tx.db.data[key]
	tx.db.data[key] = &entry{value: value}
	if !existed {
		return protocol.Value{}, false
	}
	return prev.value, true
}

// Read returns a copy of the value stored under key.
func (tx *Txn) Read(key string) (protocol.Value, bool) {
	e, ok := tx.db.data[key]
	if !ok {
		return protocol.Value{}, false
	}
	return e.value.Clone(), true
}

// Update notifies every subscriber of key with the new value, then swaps
// it in. Absent keys are left absent.
func (tx *Txn) Update(key string, value protocol.Value) (protocol.Value, bool, error) {
	e, ok := tx.db.data[key]
	if !ok {
		return protocol.Value{}, false, nil
	}

	var err error
	if len(e.subscribers) > 0 {
		err = tx.db.broadcast(key, e, protocol.EncodeNotification(key, value))
	}

	prior := e.value
	e.value = value
	return prior, true, err
}

// Delete removes key without notifying its subscribers.
func (tx *Txn) Delete(key string) (protocol.Value, bool) {
	e, ok := tx.db.data[key]
	if !ok {
		return protocol.Value{}, false
	}
	delete(tx.db.data, key)
	return e.value, true
}

// Subscribe delivers a snapshot of key's current value to sub and then
// registers it. It returns the number of subscribers afterwards, or 0 when
// key is absent, in which case nothing is registered.
func (tx *Txn) Subscribe(key string, sub Subscriber) int {
	e, ok := tx.db.data[key]
	if !ok {
		return 0
	}

	if err := sub.Deliver(protocol.EncodeNotification(key, e.value)); err != nil {
		tx.db.logger.Warn("snapshot delivery failed, not subscribing",
			"key", key,
			"subscriber", sub.ID(),
			"error", err,
		)
		if tx.db.metrics != nil {
			tx.db.metrics.DeliveryFailed()
		}
		return len(e.subscribers)
	}
	if tx.db.metrics != nil {
		tx.db.metrics.NotificationSent()
	}

	e.subscribers = append(e.subscribers, sub)
	return len(e.subscribers)
}
