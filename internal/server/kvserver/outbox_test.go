package kvserver

import (
	"errors"
	"testing"
	"time"
)

func TestOutbox_PushAndDrain(t *testing.T) {
	o := NewOutbox("c1", 4)
	for _, f := range []string{"a", "b", "c"} {
		if err := o.Push([]byte(f)); err != nil {
			t.Fatalf("Push(%s) error = %v", f, err)
		}
	}
	o.Close()

	var got []string
	err := o.drain(func(b []byte) error {
		got = append(got, string(b))
		return nil
	})
	if err != nil {
		t.Fatalf("drain() error = %v", err)
	}
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("drained %v, want [a b c]", got)
	}
}

func TestOutbox_PushAfterClose(t *testing.T) {
	o := NewOutbox("c1", 1)
	o.Close()
	o.Close()

	if !o.Closed() {
		t.Error("Closed() = false after Close")
	}
	if err := o.Push([]byte("x")); !errors.Is(err, ErrOutboxClosed) {
		t.Errorf("Push() error = %v, want ErrOutboxClosed", err)
	}
	if err := o.Deliver([]byte("x")); !errors.Is(err, ErrOutboxClosed) {
		t.Errorf("Deliver() error = %v, want ErrOutboxClosed", err)
	}
}

func TestOutbox_CloseUnblocksFullPush(t *testing.T) {
	o := NewOutbox("c1", 1)
	if err := o.Push([]byte("fill")); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- o.Push([]byte("blocked")) }()

	select {
	case err := <-errCh:
		t.Fatalf("Push on full outbox returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	o.Close()
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrOutboxClosed) {
			t.Errorf("Push() error = %v, want ErrOutboxClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Push still blocked after Close")
	}
}

func TestOutbox_DrainStopsOnWriteError(t *testing.T) {
	o := NewOutbox("c1", 2)
	_ = o.Push([]byte("a"))
	_ = o.Push([]byte("b"))

	boom := errors.New("broken pipe")
	calls := 0
	err := o.drain(func([]byte) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Errorf("drain() = %v after %d writes, want boom after 1", err, calls)
	}
}

func TestOutbox_ID(t *testing.T) {
	if id := NewOutbox("01ABC", 0).ID(); id != "01ABC" {
		t.Errorf("ID() = %q", id)
	}
}
