// Package link transports newline terminated messages over a byte stream,
// e.g. a serial port or a TCP connection.
package link

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/mdzio/go-logging"
	"golang.org/x/text/encoding/charmap"
)

var log = logging.Get("jrpc-link")

// ErrLineTooLong is returned, if a received line does not fit into the
// buffer. The rest of the line is discarded.
var ErrLineTooLong = errors.New("Line too long")

// LineReader reads lines from a byte stream.
type LineReader struct {
	Name string
	r    *bufio.Reader
}

// NewLineReader creates a LineReader. name is used for logging.
func NewLineReader(name string, r io.Reader) *LineReader {
	return &LineReader{Name: name, r: bufio.NewReader(r)}
}

// ReadLine blocks until a complete line is received and stores it in buf
// without the line terminator. Carriage returns are ignored. The returned
// slice references buf. A line, that does not fit into buf, is discarded and
// ErrLineTooLong is returned. Read errors (e.g. io.EOF) are passed through.
func (l *LineReader) ReadLine(buf []byte) ([]byte, error) {
	n := 0
	overflow := false
	for {
		c, err := l.r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch {
		case c == '\r':
			// ignore
		case c == '\n':
			if overflow {
				log.Warningf("Discarding too long line from %s", l.Name)
				return nil, ErrLineTooLong
			}
			line := buf[:n]
			if log.TraceEnabled() {
				log.Tracef("%s << %s", l.Name, printable(line))
			}
			return line, nil
		case n < len(buf):
			buf[n] = c
			n++
		default:
			overflow = true
		}
	}
}

// Writer sends newline terminated messages. It is safe for concurrent use.
type Writer struct {
	Name string

	mutex sync.Mutex
	w     io.Writer
	buf   []byte
}

// NewWriter creates a Writer. name is used for logging.
func NewWriter(name string, w io.Writer) *Writer {
	return &Writer{Name: name, w: w}
}

// WriteMessage appends a line feed to msg and sends it with a single write.
func (w *Writer) WriteMessage(msg []byte) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.buf = append(w.buf[:0], msg...)
	w.buf = append(w.buf, '\n')
	if log.TraceEnabled() {
		log.Tracef("%s >> %s", w.Name, printable(msg))
	}
	_, err := w.w.Write(w.buf)
	if err != nil {
		return fmt.Errorf("Sending of message to %s failed: %w", w.Name, err)
	}
	return nil
}

// Conn is a bidirectional message link.
type Conn struct {
	*LineReader
	*Writer
	closer io.Closer
}

// NewConn creates a message link on top of a byte stream.
func NewConn(name string, rwc io.ReadWriteCloser) *Conn {
	return &Conn{
		LineReader: NewLineReader(name, rwc),
		Writer:     NewWriter(name, rwc),
		closer:     rwc,
	}
}

// Name returns the name of the peer.
func (c *Conn) Name() string {
	return c.Writer.Name
}

// Close closes the underlying byte stream. A blocked ReadLine returns with an
// error.
func (c *Conn) Close() error {
	return c.closer.Close()
}

// printable converts received bytes for logging. Every byte is mapped to a
// valid character.
func printable(b []byte) string {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return fmt.Sprintf("%q", b)
	}
	return string(s)
}
