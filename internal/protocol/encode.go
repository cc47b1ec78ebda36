package protocol

import (
	"fmt"
	"strconv"
)

// NotificationTag is the first element of every subscriber notification.
const NotificationTag = "update"

// AppendValue appends the wire encoding of v to dst.
func AppendValue(dst []byte, v Value) []byte {
	switch v.Kind {
	case ValueText:
		return appendBulk(dst, v.Text)
	case ValueInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, v.Int, 10)
		return append(dst, '\r', '\n')
	case ValueArray:
		dst = appendArrayHeader(dst, len(v.Items))
		for _, item := range v.Items {
			dst = AppendValue(dst, item)
		}
		return dst
	default:
		return appendArrayHeader(dst, 0)
	}
}

// EncodeValue returns the wire encoding of v.
func EncodeValue(v Value) []byte {
	return AppendValue(nil, v)
}

// EncodeCommand returns the request frame for c.
func EncodeCommand(c Command) []byte {
	var buf []byte
	switch c.Kind {
	case CmdDisconnect:
		buf = appendArrayHeader(buf, 1)
		return appendBulk(buf, c.Kind.String())
	case CmdCreate, CmdUpdate:
		buf = appendArrayHeader(buf, 3)
		buf = appendBulk(buf, c.Kind.String())
		buf = appendBulk(buf, c.Key)
		return AppendValue(buf, c.Value)
	default:
		buf = appendArrayHeader(buf, 2)
		buf = appendBulk(buf, c.Kind.String())
		return appendBulk(buf, c.Key)
	}
}

// EncodeBatch returns one frame carrying several commands.
func EncodeBatch(cmds ...Command) []byte {
	buf := appendArrayHeader(nil, len(cmds))
	for _, c := range cmds {
		buf = append(buf, EncodeCommand(c)...)
	}
	return buf
}

// EncodeNotification returns the frame pushed to subscribers of key:
// a three element array of "update", the key and the value.
func EncodeNotification(key string, v Value) []byte {
	buf := appendArrayHeader(nil, 3)
	buf = appendBulk(buf, NotificationTag)
	buf = appendBulk(buf, key)
	return AppendValue(buf, v)
}

func appendBulk(dst []byte, s string) []byte {
	dst = append(dst, '$')
	dst = strconv.AppendInt(dst, int64(len(s)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, s...)
	return append(dst, '\r', '\n')
}

func appendArrayHeader(dst []byte, n int) []byte {
	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, '\r', '\n')
}

// TokenValue converts a response token to a Value. Unlike the request
// parser, keyword tokens decode back to their text, so any Value that
// contains no Null survives an encode/decode round trip.
func TokenValue(tok Token) Value {
	switch tok.Kind {
	case TokenIdentifier:
		return Text(tok.Text)
	case TokenInteger:
		return Integer(tok.Int)
	case TokenArray:
		items := make([]Value, len(tok.Items))
		for i, item := range tok.Items {
			items[i] = TokenValue(item)
		}
		return Array(items...)
	default:
		return Text(tok.Kind.String())
	}
}

// DecodeValue decodes the first frame of data as a Value and returns the
// number of bytes consumed.
func DecodeValue(data []byte, opts ...LexerOption) (Value, int, error) {
	tok, n, err := Lex(data, opts...)
	if err != nil {
		return Value{}, 0, err
	}
	return TokenValue(tok), n, nil
}

// Notification is a decoded subscriber push.
type Notification struct {
	Key   string
	Value Value
}

// AsNotification interprets v as a notification frame.
func AsNotification(v Value) (Notification, error) {
	if v.Kind != ValueArray || len(v.Items) != 3 ||
		v.Items[0].Kind != ValueText || v.Items[0].Text != NotificationTag ||
		v.Items[1].Kind != ValueText {
		return Notification{}, fmt.Errorf("protocol: not a notification: %s", v)
	}
	return Notification{Key: v.Items[1].Text, Value: v.Items[2]}, nil
}
