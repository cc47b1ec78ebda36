package logger

import (
	"fmt"
	"log/slog"
)

// MaxAttrLen is the longest string logged for a clipped attribute.
const MaxAttrLen = 256

// clippedKeys names attributes that carry client-supplied bytes.
var clippedKeys = map[string]bool{
	"payload": true,
	"value":   true,
	"frame":   true,
}

// ClipAttr shortens client-controlled string attributes to MaxAttrLen
// bytes, noting how much was dropped. Groups are clipped recursively.
func ClipAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if clippedKeys[a.Key] {
			return slog.String(a.Key, Clip(a.Value.String(), MaxAttrLen))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = ClipAttr(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// Clip returns s cut to max bytes with a suffix recording the cut length.
func Clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return fmt.Sprintf("%s...(+%d bytes)", s[:max], len(s)-max)
}
