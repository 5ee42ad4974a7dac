package link

import (
	"fmt"
	"net"
	"time"

	"go.bug.st/serial"
)

const (
	// connect timeout for TCP links
	dialTimeout = 10 * time.Second

	// DefaultBaudRate is used, if no baud rate is specified.
	DefaultBaudRate = 115200
)

// OpenSerial opens a serial port with 8 data bits, no parity and one stop
// bit.
func OpenSerial(port string, baudRate int) (*Conn, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	log.Infof("Opening serial port %s with %d baud", port, baudRate)
	p, err := serial.Open(port, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("Opening of serial port %s failed: %w", port, err)
	}
	return NewConn(port, p), nil
}

// Dial connects to a peer over TCP.
func Dial(addr string) (*Conn, error) {
	log.Infof("Connecting to %s", addr)
	c, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("Connecting to %s failed: %w", addr, err)
	}
	return NewConn(addr, c), nil
}

// Listen waits for a single peer to connect over TCP. The listener is closed
// after the peer is accepted.
func Listen(addr string) (*Conn, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("Listen on address %s failed: %w", addr, err)
	}
	defer l.Close()
	log.Infof("Waiting for peer on %s", l.Addr())
	c, err := l.Accept()
	if err != nil {
		return nil, fmt.Errorf("Accepting peer on %s failed: %w", addr, err)
	}
	log.Infof("Peer %s connected", c.RemoteAddr())
	return NewConn(c.RemoteAddr().String(), c), nil
}
