package device

import (
	"github.com/mdzio/go-jrpc/message"
)

// ADC readings for darkness and full light. The sensor output decreases with
// increasing light.
const (
	adcDark   = 3700
	adcBright = 100
)

// Board gives access to the hardware of a device.
type Board interface {
	// ButtonPressed returns true, if the user button is pressed.
	ButtonPressed() bool

	// LightRaw returns the raw ADC reading of the light sensor.
	LightRaw() uint16

	// SetPWM sets the brightness of the PWM LED (0.0 to 1.0).
	SetPWM(level float64)

	// SetLED switches the regular LED.
	SetLED(on bool)

	// Timestamp returns the current time stamp of the device.
	Timestamp() uint64
}

// LightLevelFromADC maps a raw light sensor reading to 0.0 (dark) to 1.0
// (bright).
func LightLevelFromADC(raw uint16) float64 {
	return clamp(lerp(float64(raw), adcDark, adcBright, 0, 1), 0, 1)
}

// PWMPeriod converts a brightness (0.0 to 1.0) to a 16 bit compare value.
func PWMPeriod(level float64) uint16 {
	p := level * (1 << 16)
	switch {
	case p != p || p <= 0:
		// NaN or negative
		return 0
	case p >= 0xFFFF:
		return 0xFFFF
	default:
		return uint16(p)
	}
}

func lerp(x, x0, x1, y0, y1 float64) float64 {
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	} else if x > hi {
		return hi
	}
	return x
}

// BoardSampler reads outbound messages from a Board. Implements Sampler.
type BoardSampler struct {
	Board Board
}

// SampleButton implements Sampler.
func (s *BoardSampler) SampleButton() message.ButtonState {
	return message.ButtonState{
		Timestamp: s.Board.Timestamp(),
		IsPressed: s.Board.ButtonPressed(),
	}
}

// SampleLight implements Sampler.
func (s *BoardSampler) SampleLight() message.LightLevel {
	raw := s.Board.LightRaw()
	level := LightLevelFromADC(raw)
	log.Tracef("ADC raw value %d, mapped %f", raw, level)
	return message.LightLevel{
		Timestamp: s.Board.Timestamp(),
		Intensity: level,
	}
}

// BoardReceiver mirrors the state of the peer on a Board: The LED follows the
// remote button and the PWM LED follows the remote light sensor. Implements
// Receiver.
type BoardReceiver struct {
	Board Board
}

// ButtonState implements Receiver.
func (r *BoardReceiver) ButtonState(v message.ButtonState) {
	r.Board.SetLED(v.IsPressed)
}

// LightLevel implements Receiver.
func (r *BoardReceiver) LightLevel(v message.LightLevel) {
	r.Board.SetPWM(clamp(v.Intensity, 0, 1))
}
