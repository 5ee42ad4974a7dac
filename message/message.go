package message

import (
	"github.com/mdzio/go-jrpc/jems"
	"github.com/mdzio/go-jrpc/jrpc"
	"github.com/mdzio/go-jrpc/jsmn"
)

// Field positions of ButtonState and LightLevel.
const (
	fieldTimestamp = 0
	fieldValue     = 1
)

// ButtonState reports the state of the user button.
type ButtonState struct {
	Timestamp uint64
	IsPressed bool
}

// ButtonStateSchema is the wire layout of ButtonState.
var ButtonStateSchema = &Schema{
	Name: "button_state",
	Fields: []Field{
		{Name: "timestamp", Kind: jsmn.Primitive},
		{Name: "is_pressed", Kind: jsmn.Primitive},
	},
}

// Encode writes the message into e.
func (m ButtonState) Encode(e *jems.Encoder) error {
	return ButtonStateSchema.Encode(e, func(e *jems.Encoder, field int) {
		switch field {
		case fieldTimestamp:
			e.Unsigned(m.Timestamp)
		case fieldValue:
			e.Bool(m.IsPressed)
		}
	})
}

// DecodeButtonState extracts a ButtonState from the parsed message. false is
// returned, if the message is not a valid ButtonState.
func DecodeButtonState(r *jrpc.Runtime) (ButtonState, bool) {
	s := ButtonStateSchema
	if !s.Match(r) {
		return ButtonState{}, false
	}
	ts, ok := r.ParseUnsigned(s.ValueIndex(fieldTimestamp))
	if !ok {
		return ButtonState{}, false
	}
	pressed, ok := r.ParseBool(s.ValueIndex(fieldValue))
	if !ok {
		return ButtonState{}, false
	}
	return ButtonState{Timestamp: ts, IsPressed: pressed}, true
}

// LightLevel reports the intensity measured by the light sensor (0.0 to
// 1.0).
type LightLevel struct {
	Timestamp uint64
	Intensity float64
}

// LightLevelSchema is the wire layout of LightLevel.
var LightLevelSchema = &Schema{
	Name: "light_sensor_state",
	Fields: []Field{
		{Name: "timestamp", Kind: jsmn.Primitive},
		{Name: "intensity", Kind: jsmn.Primitive},
	},
}

// Encode writes the message into e.
func (m LightLevel) Encode(e *jems.Encoder) error {
	return LightLevelSchema.Encode(e, func(e *jems.Encoder, field int) {
		switch field {
		case fieldTimestamp:
			e.Unsigned(m.Timestamp)
		case fieldValue:
			e.Number(m.Intensity)
		}
	})
}

// DecodeLightLevel extracts a LightLevel from the parsed message. false is
// returned, if the message is not a valid LightLevel.
func DecodeLightLevel(r *jrpc.Runtime) (LightLevel, bool) {
	s := LightLevelSchema
	if !s.Match(r) {
		return LightLevel{}, false
	}
	ts, ok := r.ParseUnsigned(s.ValueIndex(fieldTimestamp))
	if !ok {
		return LightLevel{}, false
	}
	intensity, ok := r.ParseDouble(s.ValueIndex(fieldValue))
	if !ok {
		return LightLevel{}, false
	}
	return LightLevel{Timestamp: ts, Intensity: intensity}, true
}
