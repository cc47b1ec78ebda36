package protocol

import (
	"strconv"
	"strings"
)

// ValueKind discriminates Value variants. The zero value is ValueNull.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueText
	ValueInteger
	ValueArray
)

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueText:
		return "text"
	case ValueInteger:
		return "integer"
	case ValueArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is a stored or returned datum. The zero Value is Null.
type Value struct {
	Kind  ValueKind
	Text  string
	Int   int64
	Items []Value
}

// Text returns a text value.
func Text(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

// Integer returns an integer value.
func Integer(n int64) Value {
	return Value{Kind: ValueInteger, Int: n}
}

// Array returns an array value owning items.
func Array(items ...Value) Value {
	return Value{Kind: ValueArray, Items: items}
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// IsNull reports whether v is Null.
func (v Value) IsNull() bool {
	return v.Kind == ValueNull
}

// Equal reports deep equality.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueText:
		return v.Text == o.Text
	case ValueInteger:
		return v.Int == o.Int
	case ValueArray:
		if len(v.Items) != len(o.Items) {
			return false
		}
		for i := range v.Items {
			if !v.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	if v.Kind != ValueArray {
		return v
	}
	items := make([]Value, len(v.Items))
	for i, item := range v.Items {
		items[i] = item.Clone()
	}
	return Value{Kind: ValueArray, Items: items}
}

// String renders v for humans: text quoted, arrays bracketed.
func (v Value) String() string {
	switch v.Kind {
	case ValueText:
		return strconv.Quote(v.Text)
	case ValueInteger:
		return strconv.FormatInt(v.Int, 10)
	case ValueArray:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(item.String())
		}
		sb.WriteByte(']')
		return sb.String()
	default:
		return "(null)"
	}
}

// Native converts v to plain Go values (string, int64, []any, nil) for
// JSON/YAML rendering.
func (v Value) Native() any {
	switch v.Kind {
	case ValueText:
		return v.Text
	case ValueInteger:
		return v.Int
	case ValueArray:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = item.Native()
		}
		return out
	default:
		return nil
	}
}

// CommandKind discriminates Command variants.
type CommandKind uint8

const (
	CmdDisconnect CommandKind = iota
	CmdCreate
	CmdRead
	CmdUpdate
	CmdDelete
	CmdSubscribe
)

// String returns the wire keyword for k.
func (k CommandKind) String() string {
	switch k {
	case CmdDisconnect:
		return KeywordDisconnect
	case CmdCreate:
		return KeywordCreate
	case CmdRead:
		return KeywordRead
	case CmdUpdate:
		return KeywordUpdate
	case CmdDelete:
		return KeywordDelete
	case CmdSubscribe:
		return KeywordSubscribe
	default:
		return "UNKNOWN"
	}
}

// Command is one parsed request. Key is empty for Disconnect; Value is only
// meaningful for Create and Update.
type Command struct {
	Kind  CommandKind
	Key   string
	Value Value
}

// Equal reports whether two commands are identical.
func (c Command) Equal(o Command) bool {
	return c.Kind == o.Kind && c.Key == o.Key && c.Value.Equal(o.Value)
}

// String renders the command for logs.
func (c Command) String() string {
	switch c.Kind {
	case CmdDisconnect:
		return c.Kind.String()
	case CmdCreate, CmdUpdate:
		return c.Kind.String() + " " + strconv.Quote(c.Key) + " " + c.Value.String()
	default:
		return c.Kind.String() + " " + strconv.Quote(c.Key)
	}
}
