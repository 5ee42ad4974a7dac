package jems

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncoder(t *testing.T) {
	cases := []struct {
		name  string
		write func(e *Encoder)
		want  string
	}{
		{
			"integer",
			func(e *Encoder) { e.Integer(-42) },
			"-42",
		},
		{
			"unsigned",
			func(e *Encoder) { e.Unsigned(math.MaxUint64) },
			"18446744073709551615",
		},
		{
			"numbers",
			func(e *Encoder) {
				e.ArrayOpen()
				e.Number(1.23456)
				e.Number(0.5)
				e.Number(-3)
				e.Number(1e21)
				e.Number(math.NaN())
				e.Number(math.Inf(-1))
				e.ArrayClose()
			},
			"[1.23456,0.5,-3,1e+21,null,null]",
		},
		{
			"empty containers",
			func(e *Encoder) {
				e.ArrayOpen()
				e.ObjectOpen()
				e.ObjectClose()
				e.ArrayOpen()
				e.ArrayClose()
				e.ArrayClose()
			},
			"[{},[]]",
		},
		{
			"object",
			func(e *Encoder) {
				e.ObjectOpen()
				e.String("a")
				e.Bool(true)
				e.String("b")
				e.Null()
				e.String("c")
				e.ArrayOpen()
				e.Bool(false)
				e.Integer(1)
				e.ArrayClose()
				e.String("d")
				e.Literal([]byte(`{"x":1}`))
				e.ObjectClose()
			},
			`{"a":true,"b":null,"c":[false,1],"d":{"x":1}}`,
		},
		{
			"envelope",
			func(e *Encoder) {
				e.ObjectOpen()
				e.String("fn")
				e.String("button_state")
				e.String("args")
				e.ObjectOpen()
				e.String("timestamp")
				e.Unsigned(987654321)
				e.String("is_pressed")
				e.Bool(true)
				e.ObjectClose()
				e.ObjectClose()
			},
			`{"fn":"button_state","args":{"timestamp":987654321,"is_pressed":true}}`,
		},
		{
			"escaping",
			func(e *Encoder) { e.String("a\"b\\c\nd\te\x01ä\xff") },
			`"a\"b\\c\nd\te\u0001ä` + "�" + `"`,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := NewEncoder(make([]byte, 0, 100))
			c.write(e)
			assert.NoError(t, e.Err())
			assert.Equal(t, c.want, string(e.Bytes()))
			assert.Equal(t, len(c.want), e.Len())
		})
	}
}

func TestEncoderReset(t *testing.T) {
	e := NewEncoder(make([]byte, 0, 4))
	e.ArrayOpen()
	e.String("too long")
	assert.Equal(t, ErrOverflow, e.Err())

	e.Reset()
	assert.NoError(t, e.Err())
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, 4, e.Available())
	e.ObjectOpen()
	e.ObjectClose()
	assert.Equal(t, "{}", string(e.Bytes()))
}

func TestEncoderOverflow(t *testing.T) {
	e := NewEncoder(make([]byte, 0, 9))
	e.ArrayOpen()
	e.Integer(1234)
	e.Integer(5678) // needs 5 bytes, only 4 left
	assert.Equal(t, ErrOverflow, e.Err())
	assert.Equal(t, "[1234", string(e.Bytes()))

	// following writes are skipped, even if they would fit
	e.Integer(1)
	e.ArrayClose()
	assert.Equal(t, "[1234", string(e.Bytes()))
	assert.Equal(t, 9, cap(e.Bytes()))
}

func TestEncoderExactFit(t *testing.T) {
	want := `{"fn":"x","args":{}}`
	e := NewEncoder(make([]byte, 0, len(want)))
	e.ObjectOpen()
	e.String("fn")
	e.String("x")
	e.String("args")
	e.ObjectOpen()
	e.ObjectClose()
	e.ObjectClose()
	assert.NoError(t, e.Err())
	assert.Equal(t, want, string(e.Bytes()))
	assert.Equal(t, 0, e.Available())
}

func TestEncoderTooDeep(t *testing.T) {
	e := NewEncoder(make([]byte, 0, 100))
	for i := 0; i < MaxDepth; i++ {
		e.ArrayOpen()
	}
	assert.NoError(t, e.Err())
	e.ArrayOpen()
	assert.Equal(t, ErrTooDeep, e.Err())
	assert.Equal(t, MaxDepth, e.Len())
}

func TestEncoderUnbalanced(t *testing.T) {
	// structure is the responsibility of the caller
	e := NewEncoder(make([]byte, 0, 100))
	e.ArrayClose()
	e.Integer(1)
	e.Integer(2)
	assert.NoError(t, e.Err())
	assert.Equal(t, "]12", string(e.Bytes()))
}
