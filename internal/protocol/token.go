package protocol

import (
	"strconv"
	"strings"
)

// TokenKind discriminates Token variants.
type TokenKind uint8

const (
	TokenDisconnect TokenKind = iota
	TokenCreate
	TokenRead
	TokenUpdate
	TokenDelete
	TokenSubscribe
	TokenArray
	TokenIdentifier
	TokenInteger
)

// Reserved keywords as they appear on the wire.
const (
	KeywordDisconnect = "DISCONNECT"
	KeywordCreate     = "CREATE"
	KeywordRead       = "READ"
	KeywordUpdate     = "UPDATE"
	KeywordDelete     = "DELETE"
	KeywordSubscribe  = "SUB"
)

var keywords = map[string]TokenKind{
	KeywordDisconnect: TokenDisconnect,
	KeywordCreate:     TokenCreate,
	KeywordRead:       TokenRead,
	KeywordUpdate:     TokenUpdate,
	KeywordDelete:     TokenDelete,
	KeywordSubscribe:  TokenSubscribe,
}

// String returns the variant name.
func (k TokenKind) String() string {
	switch k {
	case TokenDisconnect:
		return KeywordDisconnect
	case TokenCreate:
		return KeywordCreate
	case TokenRead:
		return KeywordRead
	case TokenUpdate:
		return KeywordUpdate
	case TokenDelete:
		return KeywordDelete
	case TokenSubscribe:
		return KeywordSubscribe
	case TokenArray:
		return "array"
	case TokenIdentifier:
		return "identifier"
	case TokenInteger:
		return "integer"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// IsKeyword reports whether k is one of the reserved command keywords.
func (k TokenKind) IsKeyword() bool {
	return k <= TokenSubscribe
}

// Token is one node of the lexed tree.
//
// Only the field matching Kind is meaningful: Text for identifiers,
// Int for integers, Items for arrays. An array exclusively owns its Items.
type Token struct {
	Kind  TokenKind
	Text  string
	Int   int64
	Items []Token
}

// Identifier returns an identifier token.
func Identifier(s string) Token {
	return Token{Kind: TokenIdentifier, Text: s}
}

// IntegerToken returns an integer token.
func IntegerToken(n int64) Token {
	return Token{Kind: TokenInteger, Int: n}
}

// ArrayToken returns an array token owning items.
func ArrayToken(items ...Token) Token {
	return Token{Kind: TokenArray, Items: items}
}

// KeywordToken returns the keyword token for k.
func KeywordToken(k TokenKind) Token {
	return Token{Kind: k}
}

// IsKeyword reports whether s is reserved as a command keyword and so
// cannot be used as a key.
func IsKeyword(s string) bool {
	_, ok := keywords[s]
	return ok
}

// classify turns a bulk string payload into a keyword or identifier token.
func classify(s string) Token {
	if k, ok := keywords[s]; ok {
		return Token{Kind: k}
	}
	return Identifier(s)
}

// String renders the token for logs and error messages.
func (t Token) String() string {
	switch t.Kind {
	case TokenIdentifier:
		return strconv.Quote(t.Text)
	case TokenInteger:
		return strconv.FormatInt(t.Int, 10)
	case TokenArray:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, item := range t.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(item.String())
		}
		sb.WriteByte(']')
		return sb.String()
	default:
		return t.Kind.String()
	}
}

// Equal reports whether two token trees are identical.
func (t Token) Equal(o Token) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TokenIdentifier:
		return t.Text == o.Text
	case TokenInteger:
		return t.Int == o.Int
	case TokenArray:
		if len(t.Items) != len(o.Items) {
			return false
		}
		for i := range t.Items {
			if !t.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
