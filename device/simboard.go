package device

import (
	"sync"
	"time"
)

// SimBoard is a simulated Board. The inputs are set with Press and
// SetLightRaw. The outputs are logged and can be read back.
type SimBoard struct {
	mutex   sync.Mutex
	pressed bool
	raw     uint16
	pwm     float64
	led     bool
	epoch   time.Time
}

// NewSimBoard creates a SimBoard in darkness with the button released.
func NewSimBoard() *SimBoard {
	return &SimBoard{raw: adcDark, epoch: time.Now()}
}

// Press sets the state of the simulated button.
func (b *SimBoard) Press(pressed bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.pressed = pressed
}

// SetLightRaw sets the simulated ADC reading.
func (b *SimBoard) SetLightRaw(raw uint16) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.raw = raw
}

// ButtonPressed implements Board.
func (b *SimBoard) ButtonPressed() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.pressed
}

// LightRaw implements Board.
func (b *SimBoard) LightRaw() uint16 {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.raw
}

// SetPWM implements Board.
func (b *SimBoard) SetPWM(level float64) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	log.Infof("Set PWM level %f, period 0x%04x", level, PWMPeriod(level))
	b.pwm = level
}

// SetLED implements Board.
func (b *SimBoard) SetLED(on bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if on {
		log.Info("Set LED on")
	} else {
		log.Info("Set LED off")
	}
	b.led = on
}

// Timestamp implements Board. It returns the milliseconds since creation of
// the board.
func (b *SimBoard) Timestamp() uint64 {
	return uint64(time.Since(b.epoch) / time.Millisecond)
}

// PWM returns the last set PWM level.
func (b *SimBoard) PWM() float64 {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.pwm
}

// LED returns the last set LED state.
func (b *SimBoard) LED() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.led
}
