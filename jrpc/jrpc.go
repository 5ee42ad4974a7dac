// Package jrpc provides runtime support for decoding JSON RPC messages of the
// form {"fn": <name>, "args": {...}}.
//
// The layout of each message type is fixed, so the token index of every
// field is known in advance. All queries take a token index and never fail on
// an invalid index: they return false or a zero value instead. This allows a
// decoder to probe a token layout, that has not been validated yet.
package jrpc

import (
	"math"
	"strconv"

	"github.com/mdzio/go-jrpc/jsmn"
)

// TokenCount is the max. number of JSON tokens expected in a message.
const TokenCount = 20

// Token positions of the RPC envelope.
const (
	EnvelopeIndex = 0
	FnKeyIndex    = 1
	FnNameIndex   = 2
	ArgsKeyIndex  = 3
	ArgsIndex     = 4

	// number of tokens of an envelope without arguments
	EnvelopeTokens = 5
)

// Runtime holds the tokens of the last parsed message. A Runtime must not be
// used concurrently.
type Runtime struct {
	parser jsmn.Parser
	tokens [TokenCount]jsmn.Token
	json   []byte
	count  int
}

// NewRuntime creates a Runtime.
func NewRuntime() *Runtime {
	return &Runtime{}
}

// Parse tokenizes the JSON message. The Runtime references json until the
// next call of Parse. On error the token count is 0, so all following queries
// fail.
func (r *Runtime) Parse(json []byte) error {
	r.json = json
	n, err := r.parser.Parse(json, r.tokens[:])
	if err != nil {
		r.count = 0
		return err
	}
	r.count = n
	return nil
}

// IsRPC returns true, if the parsed message has the RPC envelope shape.
func (r *Runtime) IsRPC() bool {
	return r.count >= EnvelopeTokens &&
		r.TypeMatches(EnvelopeIndex, jsmn.Object) &&
		r.StringMatches(FnKeyIndex, "fn") &&
		r.TypeMatches(FnNameIndex, jsmn.String) &&
		r.StringMatches(ArgsKeyIndex, "args") &&
		r.TypeMatches(ArgsIndex, jsmn.Object)
}

// TokenCount returns the number of parsed tokens.
func (r *Runtime) TokenCount() int {
	return r.count
}

// Token returns the token at the specified position.
func (r *Runtime) Token(pos int) (jsmn.Token, bool) {
	tok := r.tokenRef(pos)
	if tok == nil {
		return jsmn.Token{}, false
	}
	return *tok, true
}

// TokenString returns the text of the token at the specified position, e.g.
// for logging.
func (r *Runtime) TokenString(pos int) string {
	tok := r.tokenRef(pos)
	if tok == nil {
		return ""
	}
	return string(r.json[tok.Start:tok.End])
}

// TypeMatches returns true, if the token at the specified position has the
// expected kind.
func (r *Runtime) TypeMatches(pos int, expected jsmn.Kind) bool {
	return r.tokenRefKind(pos, expected) != nil
}

// StringMatches returns true, if the token at the specified position is a
// string that starts with expected. Attention: Only the length of expected is
// compared, so "fn" also matches a token "fnord".
func (r *Runtime) StringMatches(pos int, expected string) bool {
	return r.prefixMatches(r.tokenRefKind(pos, jsmn.String), expected)
}

// ParseInteger parses the primitive token at the specified position as a
// decimal integer. Parsing stops at the first invalid character. At least one
// digit must be consumed. Values out of range are saturated.
func (r *Runtime) ParseInteger(pos int) (int64, bool) {
	str, ok := r.primitive(pos)
	if !ok {
		return 0, false
	}
	neg := false
	if len(str) > 0 && (str[0] == '-' || str[0] == '+') {
		neg = str[0] == '-'
		str = str[1:]
	}
	mag, n := scanDigits(str)
	if n == 0 {
		return 0, false
	}
	if neg {
		if mag > 1<<63 {
			return math.MinInt64, true
		}
		return -int64(mag), true
	}
	if mag > math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(mag), true
}

// ParseUnsigned parses the primitive token at the specified position as an
// unsigned decimal integer. Parsing stops at the first invalid character.
// Values out of range are saturated.
func (r *Runtime) ParseUnsigned(pos int) (uint64, bool) {
	str, ok := r.primitive(pos)
	if !ok {
		return 0, false
	}
	if len(str) > 0 && str[0] == '+' {
		str = str[1:]
	}
	mag, n := scanDigits(str)
	if n == 0 {
		return 0, false
	}
	return mag, true
}

// ParseDouble parses the primitive token at the specified position as a
// floating point number. The longest valid prefix is used.
func (r *Runtime) ParseDouble(pos int) (float64, bool) {
	str, ok := r.primitive(pos)
	if !ok {
		return 0, false
	}
	n := scanFloat(str)
	if n == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(str[:n]), 64)
	if err != nil {
		// out of range: ParseFloat returns ±Inf or 0 like strtod
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return 0, false
		}
	}
	return v, true
}

// ParseBool parses the primitive token at the specified position as a
// boolean. The token must start with true or false. Attention: As with
// StringMatches only a prefix is compared, so "truex" is parsed as true.
func (r *Runtime) ParseBool(pos int) (bool, bool) {
	tok := r.tokenRefKind(pos, jsmn.Primitive)
	switch {
	case r.prefixMatches(tok, "true"):
		return true, true
	case r.prefixMatches(tok, "false"):
		return false, true
	default:
		return false, false
	}
}

func (r *Runtime) tokenRef(pos int) *jsmn.Token {
	if pos < 0 || pos >= r.count {
		return nil
	}
	return &r.tokens[pos]
}

func (r *Runtime) tokenRefKind(pos int, expected jsmn.Kind) *jsmn.Token {
	tok := r.tokenRef(pos)
	if tok == nil || tok.Kind != expected {
		return nil
	}
	return tok
}

// prefixMatches compares the source buffer starting at the token with
// expected. The comparison may extend beyond the token span, but never beyond
// the source buffer.
func (r *Runtime) prefixMatches(tok *jsmn.Token, expected string) bool {
	if tok == nil {
		return false
	}
	rest := r.json[tok.Start:]
	if len(rest) < len(expected) {
		return false
	}
	return string(rest[:len(expected)]) == expected
}

func (r *Runtime) primitive(pos int) ([]byte, bool) {
	tok := r.tokenRefKind(pos, jsmn.Primitive)
	if tok == nil {
		return nil, false
	}
	return r.json[tok.Start:tok.End], true
}

// scanDigits accumulates leading decimal digits. It saturates at MaxUint64
// and returns the number of consumed digits.
func scanDigits(str []byte) (uint64, int) {
	var v uint64
	n := 0
	for ; n < len(str) && str[n] >= '0' && str[n] <= '9'; n++ {
		d := uint64(str[n] - '0')
		if v > (math.MaxUint64-d)/10 {
			v = math.MaxUint64
			continue
		}
		v = v*10 + d
	}
	return v, n
}

// scanFloat returns the length of the longest prefix of str, that is a
// decimal floating point number: [sign] digits [. digits] [e [sign] digits].
// At least one mantissa digit is required.
func scanFloat(str []byte) int {
	i := 0
	if i < len(str) && (str[i] == '-' || str[i] == '+') {
		i++
	}
	digits := 0
	for ; i < len(str) && isDigit(str[i]); i++ {
		digits++
	}
	if i < len(str) && str[i] == '.' {
		j := i + 1
		frac := 0
		for ; j < len(str) && isDigit(str[j]); j++ {
			frac++
		}
		if digits+frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}
	// exponent is only consumed, if it is complete
	if i < len(str) && (str[i] == 'e' || str[i] == 'E') {
		j := i + 1
		if j < len(str) && (str[j] == '-' || str[j] == '+') {
			j++
		}
		k := j
		for ; k < len(str) && isDigit(str[k]); k++ {
		}
		if k > j {
			i = k
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
