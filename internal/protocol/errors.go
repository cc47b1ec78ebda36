package protocol

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUnexpectedEOF matches any SyntaxError raised because the input
	// ended before a frame was complete. Callers accumulating socket reads
	// treat it as "need more bytes".
	ErrUnexpectedEOF = errors.New("protocol: unexpected end of input")

	// ErrLimitExceeded is wrapped when a frame exceeds a configured bound.
	ErrLimitExceeded = errors.New("protocol: limit exceeded")
)

// SyntaxKind classifies lexer failures.
type SyntaxKind uint8

const (
	// SyntaxUnexpectedEOF: input ended mid-frame.
	SyntaxUnexpectedEOF SyntaxKind = iota
	// SyntaxExpected: a CRLF byte was required but another byte was found.
	SyntaxExpected
	// SyntaxParse: a length or integer field is not numeric.
	SyntaxParse
	// SyntaxDelimiter: the frame starts with an unknown type byte.
	SyntaxDelimiter
)

func (k SyntaxKind) String() string {
	switch k {
	case SyntaxUnexpectedEOF:
		return "unexpected_eof"
	case SyntaxExpected:
		return "expected"
	case SyntaxParse:
		return "parse"
	case SyntaxDelimiter:
		return "delimiter"
	default:
		return "unknown"
	}
}

// SyntaxError is returned by the Lexer.
type SyntaxError struct {
	Kind SyntaxKind
	// Pos is the byte offset the failure was detected at.
	Pos int
	// Expected and Actual are set for SyntaxExpected.
	Expected byte
	Actual   byte
	// Field names the numeric field for SyntaxParse.
	Field string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	switch e.Kind {
	case SyntaxUnexpectedEOF:
		return fmt.Sprintf("protocol: unexpected end of input at %d", e.Pos)
	case SyntaxExpected:
		return fmt.Sprintf("protocol: expected %s, found %s at %d",
			strconv.QuoteRune(rune(e.Expected)), strconv.QuoteRune(rune(e.Actual)), e.Pos)
	case SyntaxParse:
		if e.Err != nil {
			return fmt.Sprintf("protocol: invalid %s at %d: %v", e.Field, e.Pos, e.Err)
		}
		return fmt.Sprintf("protocol: invalid %s at %d", e.Field, e.Pos)
	case SyntaxDelimiter:
		return fmt.Sprintf("protocol: unknown frame delimiter at %d", e.Pos)
	default:
		return "protocol: syntax error"
	}
}

// Unwrap returns the underlying cause.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUnexpectedEOF) true for truncated input.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrUnexpectedEOF && e.Kind == SyntaxUnexpectedEOF
}

// ParseErrorKind classifies parser failures.
type ParseErrorKind uint8

const (
	// ParseExpected: a token of the wrong shape was found.
	ParseExpected ParseErrorKind = iota
	// ParseTerminated: the token queue ran out mid-command.
	ParseTerminated
	// ParseInvalidUTF8: a bulk payload is not valid UTF-8 text.
	ParseInvalidUTF8
	// ParseSyntax: lexing failed; Err holds the *SyntaxError.
	ParseSyntax
)

func (k ParseErrorKind) String() string {
	switch k {
	case ParseExpected:
		return "expected"
	case ParseTerminated:
		return "terminated"
	case ParseInvalidUTF8:
		return "invalid_utf8"
	case ParseSyntax:
		return "syntax"
	default:
		return "unknown"
	}
}

// ParseError is returned by the Parser.
type ParseError struct {
	Kind     ParseErrorKind
	Expected string
	Actual   Token
	Err      error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch e.Kind {
	case ParseExpected:
		return fmt.Sprintf("protocol: expected %s, found %s", e.Expected, e.Actual)
	case ParseTerminated:
		if e.Expected != "" {
			return "protocol: input terminated, expected " + e.Expected
		}
		return "protocol: input terminated"
	case ParseInvalidUTF8:
		return "protocol: bulk string is not valid UTF-8"
	case ParseSyntax:
		return e.Err.Error()
	default:
		return "protocol: parse error"
	}
}

// Unwrap returns the wrapped lexer error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

func errExpected(what string, actual Token) *ParseError {
	return &ParseError{Kind: ParseExpected, Expected: what, Actual: actual}
}

func errTerminated(what string) *ParseError {
	return &ParseError{Kind: ParseTerminated, Expected: what}
}

// ErrorKind returns a short label for err suitable for metrics.
func ErrorKind(err error) string {
	var se *SyntaxError
	var pe *ParseError
	switch {
	case errors.Is(err, ErrLimitExceeded):
		return "limit"
	case errors.As(err, &se):
		return se.Kind.String()
	case errors.As(err, &pe):
		return pe.Kind.String()
	default:
		return "other"
	}
}
