// Package jems implements a forward-only JSON encoder, that writes into a
// fixed size buffer. Separators (comma and colon) are inserted automatically.
// Inside an object items alternate between key and value.
//
// The encoder does not check that objects and arrays are balanced or that a
// key is a string. If a write does not fit into the remaining buffer, nothing
// is written and Err reports ErrOverflow. Writes after an overflow are
// skipped, so the output always ends with a complete value.
package jems

import (
	"errors"
	"math"
	"strconv"
	"unicode/utf8"
)

// MaxDepth is the max. nesting level of objects and arrays.
const MaxDepth = 8

var (
	// ErrOverflow is reported, if the output buffer is too small.
	ErrOverflow = errors.New("Output buffer overflow")

	// ErrTooDeep is reported, if objects or arrays are nested too deeply.
	ErrTooDeep = errors.New("Nesting too deep")
)

type level struct {
	object bool
	items  int
}

// Encoder appends JSON to a buffer with fixed capacity.
type Encoder struct {
	buf    []byte
	levels [MaxDepth]level
	depth  int
	err    error
}

// NewEncoder creates an Encoder, that writes into buf. The capacity of buf
// limits the output size.
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf[:0]}
}

// Reset discards the output and clears the error.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
	e.depth = 0
	e.err = nil
}

// Bytes returns the encoded output. The slice is valid until the next write
// or Reset.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of encoded bytes.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Available returns the number of free bytes in the buffer.
func (e *Encoder) Available() int {
	return cap(e.buf) - len(e.buf)
}

// Err returns the first error, that caused a write to be skipped.
func (e *Encoder) Err() error {
	return e.err
}

// ObjectOpen starts an object.
func (e *Encoder) ObjectOpen() {
	e.open(true, '{')
}

// ObjectClose ends an object.
func (e *Encoder) ObjectClose() {
	e.close('}')
}

// ArrayOpen starts an array.
func (e *Encoder) ArrayOpen() {
	e.open(false, '[')
}

// ArrayClose ends an array.
func (e *Encoder) ArrayClose() {
	e.close(']')
}

// String writes a quoted string. Quotes, backslashes and control characters
// are escaped. Invalid UTF-8 is replaced by U+FFFD.
func (e *Encoder) String(s string) {
	sep, ok := e.separator()
	if !ok {
		return
	}
	need := quotedLen(s)
	if sep != 0 {
		need++
	}
	if !e.reserve(need) {
		return
	}
	if sep != 0 {
		e.buf = append(e.buf, sep)
	}
	e.buf = appendQuoted(e.buf, s)
	e.item()
}

// Integer writes a signed integer.
func (e *Encoder) Integer(n int64) {
	var scratch [24]byte
	e.literal(strconv.AppendInt(scratch[:0], n, 10))
}

// Unsigned writes an unsigned integer.
func (e *Encoder) Unsigned(n uint64) {
	var scratch [24]byte
	e.literal(strconv.AppendUint(scratch[:0], n, 10))
}

// Number writes a floating point number in the shortest form, that parses
// back to the same value. NaN and infinities are not valid JSON and are
// written as null.
func (e *Encoder) Number(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		e.Null()
		return
	}
	var scratch [32]byte
	e.literal(strconv.AppendFloat(scratch[:0], f, 'g', -1, 64))
}

// Bool writes true or false.
func (e *Encoder) Bool(b bool) {
	if b {
		e.literal([]byte("true"))
	} else {
		e.literal([]byte("false"))
	}
}

// Null writes null.
func (e *Encoder) Null() {
	e.literal([]byte("null"))
}

// Literal writes pre-encoded JSON. The content is not checked.
func (e *Encoder) Literal(js []byte) {
	e.literal(js)
}

func (e *Encoder) literal(js []byte) {
	sep, ok := e.separator()
	if !ok {
		return
	}
	need := len(js)
	if sep != 0 {
		need++
	}
	if !e.reserve(need) {
		return
	}
	if sep != 0 {
		e.buf = append(e.buf, sep)
	}
	e.buf = append(e.buf, js...)
	e.item()
}

func (e *Encoder) open(object bool, c byte) {
	if e.err != nil {
		return
	}
	if e.depth >= MaxDepth {
		e.err = ErrTooDeep
		return
	}
	sep, _ := e.separator()
	need := 1
	if sep != 0 {
		need++
	}
	if !e.reserve(need) {
		return
	}
	if sep != 0 {
		e.buf = append(e.buf, sep)
	}
	e.buf = append(e.buf, c)
	e.item()
	e.levels[e.depth] = level{object: object}
	e.depth++
}

func (e *Encoder) close(c byte) {
	if e.err != nil {
		return
	}
	if !e.reserve(1) {
		return
	}
	e.buf = append(e.buf, c)
	if e.depth > 0 {
		e.depth--
	}
}

// separator returns the byte to write before the next item or 0. The boolean
// is false, if a previous write failed.
func (e *Encoder) separator() (byte, bool) {
	if e.err != nil {
		return 0, false
	}
	if e.depth == 0 {
		return 0, true
	}
	l := &e.levels[e.depth-1]
	switch {
	case l.items == 0:
		return 0, true
	case l.object && l.items%2 == 1:
		// value follows key
		return ':', true
	default:
		return ',', true
	}
}

// item counts an item on the current level.
func (e *Encoder) item() {
	if e.depth > 0 {
		e.levels[e.depth-1].items++
	}
}

func (e *Encoder) reserve(n int) bool {
	if e.err != nil {
		return false
	}
	if cap(e.buf)-len(e.buf) < n {
		e.err = ErrOverflow
		return false
	}
	return true
}

const hexDigits = "0123456789abcdef"

// quotedLen returns the length of s after quoting.
func quotedLen(s string) int {
	n := 2
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"' || c == '\\' || c == '\n' || c == '\r' || c == '\t':
				n += 2
			case c < 0x20:
				n += 6
			default:
				n++
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			n += utf8.RuneLen(utf8.RuneError)
		} else {
			n += size
		}
		i += size
	}
	return n
}

func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"', '\\':
				dst = append(dst, '\\', c)
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			default:
				if c < 0x20 {
					dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
				} else {
					dst = append(dst, c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = utf8.AppendRune(dst, utf8.RuneError)
		} else {
			dst = append(dst, s[i:i+size]...)
		}
		i += size
	}
	return append(dst, '"')
}
