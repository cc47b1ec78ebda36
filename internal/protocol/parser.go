package protocol

import "unicode/utf8"

// Parser turns a lexed top-level array into commands.
type Parser struct {
	tokens []Token
}

// NewParser lexes data and prepares a parser over the resulting array.
func NewParser(data []byte, opts ...LexerOption) (*Parser, error) {
	tok, err := NewLexer(data, opts...).Lex()
	if err != nil {
		return nil, &ParseError{Kind: ParseSyntax, Err: err}
	}
	return NewParserFromToken(tok)
}

// NewParserFromToken prepares a parser over an already lexed frame. The
// frame must be an array.
func NewParserFromToken(tok Token) (*Parser, error) {
	if tok.Kind != TokenArray {
		return nil, errExpected("token array", tok)
	}
	tokens := make([]Token, len(tok.Items))
	copy(tokens, tok.Items)
	return &Parser{tokens: tokens}, nil
}

// Parse consumes the queue and returns the commands in order.
//
// A nested array found where a command keyword is expected is spliced back
// at the front of the queue, so one frame may carry either a batch of
// commands or a single command.
func (p *Parser) Parse() ([]Command, error) {
	var cmds []Command
	for len(p.tokens) > 0 {
		tok := p.pop()
		switch tok.Kind {
		case TokenDisconnect:
			cmds = append(cmds, Command{Kind: CmdDisconnect})

		case TokenCreate, TokenUpdate:
			key, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			if len(p.tokens) == 0 {
				return nil, errTerminated("value")
			}
			val, err := tokenToValue(p.pop())
			if err != nil {
				return nil, err
			}
			kind := CmdCreate
			if tok.Kind == TokenUpdate {
				kind = CmdUpdate
			}
			cmds = append(cmds, Command{Kind: kind, Key: key, Value: val})

		case TokenRead, TokenDelete, TokenSubscribe:
			key, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			cmds = append(cmds, Command{Kind: keyCommands[tok.Kind], Key: key})

		case TokenArray:
			spliced := make([]Token, 0, len(tok.Items)+len(p.tokens))
			spliced = append(spliced, tok.Items...)
			p.tokens = append(spliced, p.tokens...)

		default:
			return nil, errExpected("command or array", tok)
		}
	}
	return cmds, nil
}

var keyCommands = map[TokenKind]CommandKind{
	TokenRead:      CmdRead,
	TokenDelete:    CmdDelete,
	TokenSubscribe: CmdSubscribe,
}

func (p *Parser) pop() Token {
	tok := p.tokens[0]
	p.tokens[0] = Token{}
	p.tokens = p.tokens[1:]
	return tok
}

func (p *Parser) expectIdentifier() (string, error) {
	if len(p.tokens) == 0 {
		return "", errTerminated("identifier")
	}
	tok := p.pop()
	if tok.Kind != TokenIdentifier {
		return "", errExpected("identifier", tok)
	}
	if !utf8.ValidString(tok.Text) {
		return "", &ParseError{Kind: ParseInvalidUTF8, Actual: tok}
	}
	return tok.Text, nil
}

// tokenToValue converts a value-position token. Keyword tokens have no
// value representation and become Null.
func tokenToValue(tok Token) (Value, error) {
	switch tok.Kind {
	case TokenIdentifier:
		if !utf8.ValidString(tok.Text) {
			return Value{}, &ParseError{Kind: ParseInvalidUTF8, Actual: tok}
		}
		return Text(tok.Text), nil
	case TokenInteger:
		return Integer(tok.Int), nil
	case TokenArray:
		items := make([]Value, 0, len(tok.Items))
		for _, item := range tok.Items {
			v, err := tokenToValue(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Array(items...), nil
	default:
		return Null(), nil
	}
}

// Parse lexes and parses one frame in a single call.
func Parse(data []byte, opts ...LexerOption) ([]Command, error) {
	p, err := NewParser(data, opts...)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}
