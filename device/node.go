// Package device connects the hardware of a node with a peer over a message
// link. Received messages are mirrored on the local board and the local
// button and light sensor are published to the peer.
package device

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/mdzio/go-lib/conc"
	"github.com/mdzio/go-logging"

	"github.com/mdzio/go-jrpc/handler"
	"github.com/mdzio/go-jrpc/jems"
	"github.com/mdzio/go-jrpc/jrpc"
	"github.com/mdzio/go-jrpc/link"
	"github.com/mdzio/go-jrpc/message"
)

var log = logging.Get("jrpc-node")

// Receiver gets the decoded messages from the peer.
type Receiver interface {
	ButtonState(message.ButtonState)
	LightLevel(message.LightLevel)
}

// Sampler provides the outbound messages.
type Sampler interface {
	SampleButton() message.ButtonState
	SampleLight() message.LightLevel
}

// Link is a bidirectional message link, e.g. *link.Conn.
type Link interface {
	ReadLine(buf []byte) ([]byte, error)
	WriteMessage(msg []byte) error
}

// NewDispatcher creates a Dispatcher with the methods of the node protocol
// registered. Decoded messages are forwarded to the receiver.
func NewDispatcher(r Receiver) *handler.Dispatcher {
	d := &handler.Dispatcher{}
	d.HandleFunc(message.ButtonStateSchema.Name, func(rt *jrpc.Runtime) bool {
		v, ok := message.DecodeButtonState(rt)
		if ok {
			log.Debugf("Received button state: %+v", v)
			r.ButtonState(v)
		}
		return ok
	})
	d.HandleFunc(message.LightLevelSchema.Name, func(rt *jrpc.Runtime) bool {
		v, ok := message.DecodeLightLevel(rt)
		if ok {
			log.Debugf("Received light level: %+v", v)
			r.LightLevel(v)
		}
		return ok
	})
	return d
}

// Node runs the listen loop and the publishers of a device. Start must be
// called before use.
type Node struct {
	// Link to the peer. If it implements io.Closer, it is closed by Close.
	Link Link

	// Receiver for messages from the peer.
	Receiver Receiver

	// Sampler for outbound messages. Optional.
	Sampler Sampler

	// SampleInterval between light level messages. 0 disables sampling.
	SampleInterval time.Duration

	dispatcher *handler.Dispatcher
	buttonCh   chan struct{}
	cancels    []func()

	mutex   sync.Mutex
	encoder *jems.Encoder
}

// Start launches the background tasks.
func (n *Node) Start() {
	n.dispatcher = NewDispatcher(n.Receiver)
	n.dispatcher.HandleUnknownFunc(func(msg []byte, reason error) {
		log.Warningf("Unknown message from peer: %v", reason)
	})
	n.encoder = jems.NewEncoder(make([]byte, 0, message.MaxMessageLen))
	n.buttonCh = make(chan struct{}, 1)

	n.cancels = append(n.cancels, conc.DaemonFunc(n.listen))
	if n.Sampler != nil {
		n.cancels = append(n.cancels, conc.DaemonFunc(n.publishButton))
		if n.SampleInterval > 0 {
			n.cancels = append(n.cancels, conc.DaemonFunc(n.sampleLight))
		}
	}
}

// Close closes the link and stops the background tasks.
func (n *Node) Close() {
	if c, ok := n.Link.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warningf("Closing of link failed: %v", err)
		}
	}
	for _, cancel := range n.cancels {
		cancel()
	}
	n.cancels = nil
}

// NotifyButton requests the publication of the button state. It does not
// block and may be called from an interrupt-like context, e.g. a GPIO event
// handler. Notifications are coalesced until the state is sampled.
func (n *Node) NotifyButton() {
	select {
	case n.buttonCh <- struct{}{}:
	default:
	}
}

// PublishButtonState sends a button state to the peer.
func (n *Node) PublishButtonState(v message.ButtonState) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	if err := v.Encode(n.encoder); err != nil {
		return err
	}
	return n.Link.WriteMessage(n.encoder.Bytes())
}

// PublishLightLevel sends a light level to the peer.
func (n *Node) PublishLightLevel(v message.LightLevel) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	if err := v.Encode(n.encoder); err != nil {
		return err
	}
	return n.Link.WriteMessage(n.encoder.Bytes())
}

func (n *Node) listen(ctx conc.Context) {
	log.Debug("Starting listen loop")
	defer log.Debug("Stopping listen loop")
	var buf [message.MaxMessageLen]byte
	for {
		line, err := n.Link.ReadLine(buf[:])
		if ctx.IsDone() {
			return
		}
		if err != nil {
			if errors.Is(err, link.ErrLineTooLong) {
				continue
			}
			if err == io.EOF {
				log.Info("Link closed by peer")
			} else {
				log.Errorf("Receiving from link failed: %v", err)
			}
			return
		}
		if len(line) == 0 {
			continue
		}
		n.dispatcher.Dispatch(line)
	}
}

func (n *Node) publishButton(ctx conc.Context) {
	for {
		select {
		case <-n.buttonCh:
			v := n.Sampler.SampleButton()
			if err := n.PublishButtonState(v); err != nil {
				log.Errorf("Publishing of button state failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (n *Node) sampleLight(ctx conc.Context) {
	for {
		if ctx.Sleep(n.SampleInterval) != nil {
			return
		}
		v := n.Sampler.SampleLight()
		if err := n.PublishLightLevel(v); err != nil {
			log.Errorf("Publishing of light level failed: %v", err)
		}
	}
}
