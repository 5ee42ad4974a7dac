// Package handler dispatches received JSON RPC messages to registered
// methods.
package handler

import (
	"errors"
	"sync"

	"github.com/mdzio/go-logging"

	"github.com/mdzio/go-jrpc/jrpc"
)

var log = logging.Get("jrpc-dispatcher")

var (
	// ErrNotRPC is reported for valid JSON, that has not the RPC envelope
	// shape.
	ErrNotRPC = errors.New("Not an RPC message")

	// ErrNoMatch is reported, if no method accepted the message.
	ErrNoMatch = errors.New("No matching method")
)

// A Method is called with the parsed message. It returns true, if the
// message was decoded and handled. Returning false passes the message to the
// next method.
type Method interface {
	Call(*jrpc.Runtime) bool
}

// MethodFunc is an adapter to use ordinary functions as Method's.
type MethodFunc func(*jrpc.Runtime) bool

// Call implements interface Method.
func (m MethodFunc) Call(r *jrpc.Runtime) bool {
	return m(r)
}

type entry struct {
	name   string
	method Method
}

// Dispatcher tokenizes received messages and tries the registered methods in
// registration order. At most one method handles a message. Dispatch calls
// are serialized, because the token buffer is owned by the Dispatcher.
type Dispatcher struct {
	mutex   sync.Mutex
	runtime jrpc.Runtime
	methods []entry
	unknown func(msg []byte, reason error)
}

// Handle registers a Method. The name is only used for logging.
func (d *Dispatcher) Handle(name string, m Method) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.methods = append(d.methods, entry{name, m})
}

// HandleFunc registers an ordinary function as Method.
func (d *Dispatcher) HandleFunc(name string, f func(*jrpc.Runtime) bool) {
	d.Handle(name, MethodFunc(f))
}

// HandleUnknownFunc registers a function, that is called for dropped
// messages. reason wraps jsmn.ErrMalformed, jsmn.ErrTooManyTokens or is
// ErrNotRPC or ErrNoMatch. The message is only valid during the call. f must
// not call back into the Dispatcher.
func (d *Dispatcher) HandleUnknownFunc(f func(msg []byte, reason error)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.unknown = f
}

// Methods returns the names of the registered methods in dispatch order.
func (d *Dispatcher) Methods() []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	names := make([]string, len(d.methods))
	for i, e := range d.methods {
		names[i] = e.name
	}
	return names
}

// Dispatch parses one message and calls the first method, that accepts it.
// It returns true, if a method handled the message. Invalid or unknown
// messages are dropped silently; there is no response to the peer.
func (d *Dispatcher) Dispatch(msg []byte) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if err := d.runtime.Parse(msg); err != nil {
		d.drop(msg, err)
		return false
	}
	if !d.runtime.IsRPC() {
		d.drop(msg, ErrNotRPC)
		return false
	}
	for _, e := range d.methods {
		if e.method.Call(&d.runtime) {
			log.Tracef("Message handled by method %s", e.name)
			return true
		}
	}
	d.drop(msg, ErrNoMatch)
	return false
}

func (d *Dispatcher) drop(msg []byte, reason error) {
	if log.DebugEnabled() {
		log.Debugf("Dropping message %q: %v", msg, reason)
	}
	if d.unknown != nil {
		d.unknown(msg, reason)
	}
}
