package benchmark

import (
	"fmt"
	"testing"

	"github.com/yndnr/kvmesh-go/internal/protocol"
)

func nestedValue(depth int) protocol.Value {
	v := protocol.Text("leaf")
	for i := 0; i < depth; i++ {
		v = protocol.Array(protocol.Integer(int64(i)), v)
	}
	return v
}

// BenchmarkLex benchmarks tokenizing a single CREATE frame.
func BenchmarkLex(b *testing.B) {
	frame := protocol.EncodeCommand(protocol.Command{
		Kind:  protocol.CmdCreate,
		Key:   "greeting",
		Value: protocol.Text("hello world"),
	})

	b.ReportAllocs()
	b.SetBytes(int64(len(frame)))

	for i := 0; i < b.N; i++ {
		if _, _, err := protocol.Lex(frame); err != nil {
			b.Fatalf("Lex failed: %v", err)
		}
	}
}

// BenchmarkParse_Batch benchmarks parsing batches of growing size.
func BenchmarkParse_Batch(b *testing.B) {
	for _, size := range []int{1, 10, 100} {
		b.Run(fmt.Sprintf("commands_%d", size), func(b *testing.B) {
			cmds := make([]protocol.Command, size)
			for i := range cmds {
				cmds[i] = protocol.Command{Kind: protocol.CmdUpdate, Key: keyName(i), Value: protocol.Integer(int64(i))}
			}
			frame := protocol.EncodeBatch(cmds...)

			b.ReportAllocs()
			b.SetBytes(int64(len(frame)))

			for i := 0; i < b.N; i++ {
				got, err := protocol.Parse(frame)
				if err != nil {
					b.Fatalf("Parse failed: %v", err)
				}
				if len(got) != size {
					b.Fatalf("Parse returned %d commands, want %d", len(got), size)
				}
			}
		})
	}
}

// BenchmarkEncodeNotification benchmarks building update frames.
func BenchmarkEncodeNotification(b *testing.B) {
	for _, depth := range []int{0, 4, 16} {
		b.Run(fmt.Sprintf("depth_%d", depth), func(b *testing.B) {
			v := nestedValue(depth)

			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = protocol.EncodeNotification("hot", v)
			}
		})
	}
}

// BenchmarkDecodeNotification benchmarks the client side of a subscription.
func BenchmarkDecodeNotification(b *testing.B) {
	frame := protocol.EncodeNotification("hot", nestedValue(4))

	b.ReportAllocs()
	b.SetBytes(int64(len(frame)))

	for i := 0; i < b.N; i++ {
		v, _, err := protocol.DecodeValue(frame)
		if err != nil {
			b.Fatalf("DecodeValue failed: %v", err)
		}
		if _, err := protocol.AsNotification(v); err != nil {
			b.Fatalf("AsNotification failed: %v", err)
		}
	}
}
