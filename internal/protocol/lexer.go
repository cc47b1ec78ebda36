package protocol

import (
	"fmt"
	"strconv"
)

// Protocol limits to keep adversarial frames bounded.
const (
	// MaxArrayLen limits the number of elements in one array frame.
	MaxArrayLen = 1024

	// MaxBulkLen limits the payload of a single bulk string (512KB).
	MaxBulkLen = 512 * 1024

	// DefaultMaxDepth limits array nesting. Lexing recurses once per level.
	DefaultMaxDepth = 32
)

// LexerOption configures a Lexer.
type LexerOption func(*Lexer)

// WithMaxDepth overrides the array nesting bound. Non-positive values keep
// the default.
func WithMaxDepth(depth int) LexerOption {
	return func(l *Lexer) {
		if depth > 0 {
			l.maxDepth = depth
		}
	}
}

// Lexer turns bytes into a Token tree.
//
// A Lexer is a cursor over one buffer; successive Lex calls decode
// successive frames. It is not safe for concurrent use.
type Lexer struct {
	buf      []byte
	pos      int
	depth    int
	maxDepth int
}

// NewLexer creates a lexer over buf. The buffer is not copied.
func NewLexer(buf []byte, opts ...LexerOption) *Lexer {
	l := &Lexer{
		buf:      buf,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Pos returns the number of bytes consumed so far.
func (l *Lexer) Pos() int {
	return l.pos
}

// Remaining reports whether unconsumed bytes are left.
func (l *Lexer) Remaining() bool {
	return l.pos < len(l.buf)
}

// Lex decodes one complete frame starting at the cursor.
//
// On error the cursor position is unspecified; callers that retry with
// more input must start a new Lexer from the frame start.
func (l *Lexer) Lex() (Token, error) {
	c, err := l.peek()
	if err != nil {
		return Token{}, err
	}

	switch c {
	case '$':
		l.pos++
		n, err := l.length("bulk length")
		if err != nil {
			return Token{}, err
		}
		if n > MaxBulkLen {
			return Token{}, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
		}
		if err := l.crlf(); err != nil {
			return Token{}, err
		}
		if len(l.buf)-l.pos < n {
			return Token{}, &SyntaxError{Kind: SyntaxUnexpectedEOF, Pos: len(l.buf)}
		}
		payload := string(l.buf[l.pos : l.pos+n])
		l.pos += n
		if err := l.crlf(); err != nil {
			return Token{}, err
		}
		return classify(payload), nil

	case '*':
		l.pos++
		n, err := l.length("array length")
		if err != nil {
			return Token{}, err
		}
		if n > MaxArrayLen {
			return Token{}, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
		}
		if err := l.crlf(); err != nil {
			return Token{}, err
		}
		if l.depth >= l.maxDepth {
			return Token{}, fmt.Errorf("%w: array nesting exceeds depth %d", ErrLimitExceeded, l.maxDepth)
		}
		l.depth++
		defer func() { l.depth-- }()

		items := make([]Token, 0, n)
		for i := 0; i < n; i++ {
			item, err := l.Lex()
			if err != nil {
				return Token{}, err
			}
			items = append(items, item)
		}
		return Token{Kind: TokenArray, Items: items}, nil

	case ':':
		l.pos++
		start := l.pos
		for l.pos < len(l.buf) && l.buf[l.pos] != '\r' {
			l.pos++
		}
		field := string(l.buf[start:l.pos])
		if err := l.crlf(); err != nil {
			return Token{}, err
		}
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return Token{}, &SyntaxError{Kind: SyntaxParse, Pos: start, Field: "integer", Err: err}
		}
		return IntegerToken(n), nil

	default:
		return Token{}, &SyntaxError{Kind: SyntaxDelimiter, Pos: l.pos}
	}
}

func (l *Lexer) peek() (byte, error) {
	if l.pos >= len(l.buf) {
		return 0, &SyntaxError{Kind: SyntaxUnexpectedEOF, Pos: l.pos}
	}
	return l.buf[l.pos], nil
}

// length reads the unsigned decimal that follows a '$' or '*'.
func (l *Lexer) length(field string) (int, error) {
	start := l.pos
	for l.pos < len(l.buf) && l.buf[l.pos] >= '0' && l.buf[l.pos] <= '9' {
		l.pos++
	}
	if l.pos == start {
		if l.pos >= len(l.buf) {
			return 0, &SyntaxError{Kind: SyntaxUnexpectedEOF, Pos: l.pos}
		}
		return 0, &SyntaxError{Kind: SyntaxParse, Pos: start, Field: field}
	}
	n, err := strconv.Atoi(string(l.buf[start:l.pos]))
	if err != nil {
		return 0, &SyntaxError{Kind: SyntaxParse, Pos: start, Field: field, Err: err}
	}
	return n, nil
}

// crlf consumes "\r\n" or reports which byte was wrong.
func (l *Lexer) crlf() error {
	for _, want := range [2]byte{'\r', '\n'} {
		c, err := l.peek()
		if err != nil {
			return err
		}
		if c != want {
			return &SyntaxError{Kind: SyntaxExpected, Pos: l.pos, Expected: want, Actual: c}
		}
		l.pos++
	}
	return nil
}

// Lex decodes the first frame of buf and returns it with the number of
// bytes it occupied.
func Lex(buf []byte, opts ...LexerOption) (Token, int, error) {
	l := NewLexer(buf, opts...)
	tok, err := l.Lex()
	if err != nil {
		return Token{}, 0, err
	}
	return tok, l.Pos(), nil
}
