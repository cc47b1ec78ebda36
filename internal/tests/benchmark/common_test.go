package benchmark

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"testing"

	"github.com/yndnr/kvmesh-go/internal/protocol"
	"github.com/yndnr/kvmesh-go/internal/storage/memory"
)

// KeyCounts defines the database sizes for full runs.
var KeyCounts = []int{10000, 100000, 500000}

// SmallKeyCounts for quick benchmarks.
var SmallKeyCounts = []int{1000, 10000}

// SubscriberCounts defines fan-out widths.
var SubscriberCounts = []int{0, 1, 10, 100}

func keyName(i int) string {
	return fmt.Sprintf("key-%08d", i)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDatabase() *memory.Database {
	return memory.New(memory.WithLogger(discardLogger()))
}

// prefillDatabase creates count text entries and returns their keys.
func prefillDatabase(db *memory.Database, count int) []string {
	keys := make([]string, count)
	for i := 0; i < count; i++ {
		keys[i] = keyName(i)
		db.Create(keys[i], protocol.Text("value"))
	}
	return keys
}

// discardSubscriber accepts every frame.
type discardSubscriber struct {
	id string
}

func (s discardSubscriber) ID() string             { return s.id }
func (s discardSubscriber) Deliver(_ []byte) error { return nil }

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithKeyCounts runs a benchmark function with various database sizes.
func runWithKeyCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
