package cmap

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	m := New[int]()
	if m == nil {
		t.Fatal("New() returned nil")
	}
	if m.ShardCount() != DefaultShardCount {
		t.Errorf("shard count = %d, want %d", m.ShardCount(), DefaultShardCount)
	}
}

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},  // invalid -> default
		{-1, DefaultShardCount}, // invalid -> default
		{3, DefaultShardCount},  // not power of 2 -> default
		{1, 1},
		{2, 2},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[int](tt.input)
			if m.ShardCount() != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, m.ShardCount(), tt.expected)
			}
		})
	}
}

func TestSetAndGet(t *testing.T) {
	m := New[int]()

	m.Set("key1", 100)
	m.Set("key2", 200)

	val, ok := m.Get("key1")
	if !ok || val != 100 {
		t.Errorf("Get(key1) = (%d, %v), want (100, true)", val, ok)
	}
	val, ok = m.Get("key2")
	if !ok || val != 200 {
		t.Errorf("Get(key2) = (%d, %v), want (200, true)", val, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get(missing) reported ok")
	}
}

func TestDeleteAndPop(t *testing.T) {
	m := New[string]()
	m.Set("a", "1")
	m.Set("b", "2")

	m.Delete("a")
	if m.Has("a") {
		t.Error("Has(a) after Delete = true")
	}

	v, ok := m.Pop("b")
	if !ok || v != "2" {
		t.Errorf("Pop(b) = (%q, %v), want (\"2\", true)", v, ok)
	}
	if _, ok := m.Pop("b"); ok {
		t.Error("second Pop(b) reported ok")
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
}

func TestSetIfAbsent(t *testing.T) {
	m := New[int]()
	if !m.SetIfAbsent("k", 1) {
		t.Fatal("SetIfAbsent on empty map = false")
	}
	if m.SetIfAbsent("k", 2) {
		t.Error("SetIfAbsent on existing key = true")
	}
	if v, _ := m.Get("k"); v != 1 {
		t.Errorf("Get(k) = %d, want 1", v)
	}
}

func TestClear(t *testing.T) {
	m := New[int]()
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprint(i), i)
	}
	m.Clear()
	if m.Count() != 0 {
		t.Errorf("Count() after Clear = %d", m.Count())
	}
}

func TestRangeAndValues(t *testing.T) {
	m := NewWithShards[int](4)
	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	seen := 0
	m.Range(func(_ string, _ int) bool {
		seen++
		return true
	})
	if seen != 100 {
		t.Errorf("Range visited %d, want 100", seen)
	}

	stopped := 0
	m.Range(func(_ string, _ int) bool {
		stopped++
		return stopped < 5
	})
	if stopped != 5 {
		t.Errorf("Range early stop visited %d, want 5", stopped)
	}

	values := m.Values()
	sort.Ints(values)
	for i, v := range values {
		if v != i {
			t.Fatalf("Values()[%d] = %d", i, v)
		}
	}
}

func TestShardDistribution(t *testing.T) {
	m := NewWithShards[int](8)
	for i := 0; i < 1000; i++ {
		m.Set(fmt.Sprintf("conn-%d", i), i)
	}
	for i, s := range m.shards {
		if len(s.items) == 0 {
			t.Errorf("shard %d is empty after 1000 inserts", i)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup
	numGoroutines := 50
	numOps := 200

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				key := fmt.Sprintf("%d-%d", base, j)
				m.Set(key, j)
				m.Get(key)
				m.Has(key)
			}
		}(i)
	}
	wg.Wait()

	if m.Count() != numGoroutines*numOps {
		t.Errorf("Count() = %d, want %d", m.Count(), numGoroutines*numOps)
	}
}
