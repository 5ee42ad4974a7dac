// Package jsmn implements a minimal JSON tokenizer. It does not build a
// document tree. Instead it reports the position of each JSON element in the
// source buffer. The number of tokens is bounded by the token slice supplied
// by the caller, so the tokenizer never allocates.
package jsmn

import (
	"errors"
	"fmt"
)

// Kind is the syntactic kind of a token.
type Kind uint8

// Token kinds. Numbers, true, false and null are all primitives.
const (
	Undefined Kind = iota
	Object
	Array
	String
	Primitive
)

func (k Kind) String() string {
	switch k {
	case Object:
		return "object"
	case Array:
		return "array"
	case String:
		return "string"
	case Primitive:
		return "primitive"
	default:
		return "undefined"
	}
}

var (
	// ErrTooManyTokens is returned, if the JSON value needs more tokens than
	// provided.
	ErrTooManyTokens = errors.New("Not enough tokens")

	// ErrMalformed is returned for invalid or incomplete JSON.
	ErrMalformed = errors.New("Malformed JSON")
)

// TokenizeError reports the byte position where tokenizing stopped.
type TokenizeError struct {
	Pos int
	Err error
}

func (e *TokenizeError) Error() string {
	return fmt.Sprintf("%v at position %d", e.Err, e.Pos)
}

// Unwrap returns ErrTooManyTokens or ErrMalformed.
func (e *TokenizeError) Unwrap() error {
	return e.Err
}

// Token is a back reference into the source buffer. For strings the span
// excludes the quotes.
type Token struct {
	Kind  Kind
	Start int
	End   int
	// number of direct children: members of an object, elements of an array,
	// 1 for an object key with a value
	Size int
	// index of the enclosing token, -1 for the top level
	Parent int
}

// Len returns the length of the token span.
func (t *Token) Len() int {
	return t.End - t.Start
}

// Parser holds the scan state. A Parser may be reused, because Parse resets
// the state on every call.
type Parser struct {
	pos      int // offset in the JSON buffer
	toknext  int // next token to allocate
	toksuper int // superior token node, e.g. parent object or array
}

// Tokenize parses js into a newly allocated token slice of the specified
// capacity.
func Tokenize(js []byte, capacity int) ([]Token, error) {
	tokens := make([]Token, capacity)
	var p Parser
	n, err := p.Parse(js, tokens)
	if err != nil {
		return nil, err
	}
	return tokens[:n], nil
}

// Parse tokenizes the JSON value in js and stores the tokens in the supplied
// slice. It returns the number of tokens produced. A NUL byte terminates the
// input. After an error the content of tokens is unspecified.
func (p *Parser) Parse(js []byte, tokens []Token) (int, error) {
	p.pos = 0
	p.toknext = 0
	p.toksuper = -1

	for ; p.pos < len(js) && js[p.pos] != 0; p.pos++ {
		c := js[p.pos]
		switch c {
		case '{', '[':
			tok := p.alloc(tokens)
			if tok == nil {
				return 0, p.fail(ErrTooManyTokens)
			}
			if p.toksuper != -1 {
				sup := &tokens[p.toksuper]
				// an object or array can not be a key
				if sup.Kind == Object {
					return 0, p.fail(ErrMalformed)
				}
				sup.Size++
				tok.Parent = p.toksuper
			}
			if c == '{' {
				tok.Kind = Object
			} else {
				tok.Kind = Array
			}
			tok.Start = p.pos
			p.toksuper = p.toknext - 1

		case '}', ']':
			kind := Object
			if c == ']' {
				kind = Array
			}
			if p.toknext < 1 {
				return 0, p.fail(ErrMalformed)
			}
			tok := &tokens[p.toknext-1]
			for {
				if tok.Start != -1 && tok.End == -1 {
					if tok.Kind != kind {
						return 0, p.fail(ErrMalformed)
					}
					tok.End = p.pos + 1
					p.toksuper = tok.Parent
					break
				}
				if tok.Parent == -1 {
					if tok.Kind != kind || p.toksuper == -1 {
						return 0, p.fail(ErrMalformed)
					}
					break
				}
				tok = &tokens[tok.Parent]
			}

		case '"':
			if err := p.parseString(js, tokens); err != nil {
				return 0, err
			}
			if p.toksuper != -1 {
				tokens[p.toksuper].Size++
			}

		case '\t', '\r', '\n', ' ':

		case ':':
			p.toksuper = p.toknext - 1

		case ',':
			if p.toksuper != -1 {
				if k := tokens[p.toksuper].Kind; k != Array && k != Object {
					p.toksuper = tokens[p.toksuper].Parent
				}
			}

		case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 't', 'f', 'n':
			// primitives are not allowed as keys and need a key in an object
			if p.toksuper != -1 {
				sup := &tokens[p.toksuper]
				if sup.Kind == Object || (sup.Kind == String && sup.Size != 0) {
					return 0, p.fail(ErrMalformed)
				}
			}
			if err := p.parsePrimitive(js, tokens); err != nil {
				return 0, err
			}
			if p.toksuper != -1 {
				tokens[p.toksuper].Size++
			}

		default:
			return 0, p.fail(ErrMalformed)
		}
	}

	// unclosed object or array?
	for i := p.toknext - 1; i >= 0; i-- {
		if tokens[i].Start != -1 && tokens[i].End == -1 {
			return 0, p.fail(ErrMalformed)
		}
	}
	if p.toknext == 0 {
		// empty input
		return 0, p.fail(ErrMalformed)
	}
	return p.toknext, nil
}

func (p *Parser) fail(err error) error {
	return &TokenizeError{Pos: p.pos, Err: err}
}

// alloc returns the next free token or nil, if all tokens are used.
func (p *Parser) alloc(tokens []Token) *Token {
	if p.toknext >= len(tokens) {
		return nil
	}
	tok := &tokens[p.toknext]
	p.toknext++
	*tok = Token{Start: -1, End: -1, Parent: -1}
	return tok
}

func (p *Parser) parsePrimitive(js []byte, tokens []Token) error {
	start := p.pos
loop:
	for ; p.pos < len(js) && js[p.pos] != 0; p.pos++ {
		switch js[p.pos] {
		case '\t', '\r', '\n', ' ', ',', ']', '}':
			break loop
		}
		if js[p.pos] < 32 || js[p.pos] >= 127 {
			err := p.fail(ErrMalformed)
			p.pos = start
			return err
		}
	}
	tok := p.alloc(tokens)
	if tok == nil {
		p.pos = start
		return p.fail(ErrTooManyTokens)
	}
	tok.Kind = Primitive
	tok.Start = start
	tok.End = p.pos
	tok.Parent = p.toksuper
	// the main loop advances past the last primitive byte
	p.pos--
	return nil
}

func (p *Parser) parseString(js []byte, tokens []Token) error {
	start := p.pos
	// skip starting quote
	p.pos++
	for ; p.pos < len(js) && js[p.pos] != 0; p.pos++ {
		c := js[p.pos]
		if c == '"' {
			tok := p.alloc(tokens)
			if tok == nil {
				p.pos = start
				return p.fail(ErrTooManyTokens)
			}
			tok.Kind = String
			tok.Start = start + 1
			tok.End = p.pos
			tok.Parent = p.toksuper
			return nil
		}
		if c == '\\' && p.pos+1 < len(js) {
			p.pos++
			switch js[p.pos] {
			case '"', '/', '\\', 'b', 'f', 'r', 'n', 't':
			case 'u':
				p.pos++
				for i := 0; i < 4 && p.pos < len(js) && js[p.pos] != 0; i++ {
					if !isHex(js[p.pos]) {
						err := p.fail(ErrMalformed)
						p.pos = start
						return err
					}
					p.pos++
				}
				p.pos--
			default:
				err := p.fail(ErrMalformed)
				p.pos = start
				return err
			}
		}
	}
	// unterminated string
	err := p.fail(ErrMalformed)
	p.pos = start
	return err
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
