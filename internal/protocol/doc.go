// Package protocol implements the kvmesh wire protocol.
//
// The protocol is a RESP-like framing of three primitives:
//
//   - bulk string: $<len>\r\n<bytes>\r\n
//   - array:       *<len>\r\n followed by <len> frames
//   - integer:     :<signed decimal>\r\n
//
// Bulk strings spelling DISCONNECT, CREATE, READ, UPDATE, DELETE or SUB
// (exact, case-sensitive) are reclassified as command keywords.
//
// The package is split by stage:
//
//   - token.go:  Token tree produced by the lexer
//   - lexer.go:  bytes -> Token
//   - parser.go: Token -> ordered []Command
//   - value.go:  Value and Command models
//   - encode.go: Value/Command -> bytes, plus client-side value decoding
//   - errors.go: SyntaxError (lexer) and ParseError (parser)
package protocol
