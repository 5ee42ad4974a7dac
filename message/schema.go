// Package message defines the messages exchanged with the remote peer and
// their JSON RPC encoding:
//
//	{"fn": "<name>", "args": {"<field1>": <value1>, "<field2>": <value2>, ...}}
//
// The layout of a message is described by a Schema. Because the envelope and
// the order of the fields are fixed, the token index of each field follows
// from its position in the schema.
package message

import (
	"github.com/mdzio/go-jrpc/jems"
	"github.com/mdzio/go-jrpc/jrpc"
	"github.com/mdzio/go-jrpc/jsmn"
)

// MaxMessageLen is the max. length of an encoded message including the line
// terminator. It covers the largest possible values of all messages.
const MaxMessageLen = 128

// Field describes an argument of a message.
type Field struct {
	Name string
	Kind jsmn.Kind
}

// Schema describes the wire layout of a message.
type Schema struct {
	Name   string
	Fields []Field
}

// TokenCount returns the number of tokens of a well formed message: 5 for
// the envelope and 2 for each field (key and value).
func (s *Schema) TokenCount() int {
	return jrpc.EnvelopeTokens + 2*len(s.Fields)
}

// KeyIndex returns the token index of the key of field i.
func (s *Schema) KeyIndex(i int) int {
	return jrpc.EnvelopeTokens + 2*i
}

// ValueIndex returns the token index of the value of field i.
func (s *Schema) ValueIndex(i int) int {
	return jrpc.EnvelopeTokens + 2*i + 1
}

// Match returns true, if the parsed message has exactly the layout of the
// schema. The values are not parsed. Names are compared by prefix (see
// jrpc.Runtime.StringMatches).
func (s *Schema) Match(r *jrpc.Runtime) bool {
	if r.TokenCount() != s.TokenCount() || !r.IsRPC() {
		return false
	}
	if !r.StringMatches(jrpc.FnNameIndex, s.Name) {
		return false
	}
	args, _ := r.Token(jrpc.ArgsIndex)
	if args.Size != len(s.Fields) {
		return false
	}
	for i, f := range s.Fields {
		if !r.StringMatches(s.KeyIndex(i), f.Name) || !r.TypeMatches(s.ValueIndex(i), f.Kind) {
			return false
		}
	}
	return true
}

// Encode writes a complete message. The output of e is reset first. value is
// called for each field and must write exactly one JSON value. The error of
// the encoder is returned (e.g. jems.ErrOverflow).
func (s *Schema) Encode(e *jems.Encoder, value func(e *jems.Encoder, field int)) error {
	e.Reset()
	e.ObjectOpen()
	e.String("fn")
	e.String(s.Name)
	e.String("args")
	e.ObjectOpen()
	for i, f := range s.Fields {
		e.String(f.Name)
		value(e, i)
	}
	e.ObjectClose()
	e.ObjectClose()
	return e.Err()
}
