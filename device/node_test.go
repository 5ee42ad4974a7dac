package device

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdzio/go-jrpc/link"
	"github.com/mdzio/go-jrpc/message"
)

type recorder struct {
	buttons chan message.ButtonState
	lights  chan message.LightLevel
}

func newRecorder() *recorder {
	return &recorder{
		buttons: make(chan message.ButtonState, 10),
		lights:  make(chan message.LightLevel, 10),
	}
}

func (r *recorder) ButtonState(v message.ButtonState) { r.buttons <- v }
func (r *recorder) LightLevel(v message.LightLevel)   { r.lights <- v }

type fixedSampler struct {
	button message.ButtonState
	light  message.LightLevel
}

func (s *fixedSampler) SampleButton() message.ButtonState { return s.button }
func (s *fixedSampler) SampleLight() message.LightLevel   { return s.light }

func TestNewDispatcher(t *testing.T) {
	r := newRecorder()
	d := NewDispatcher(r)
	assert.Equal(t, []string{"button_state", "light_sensor_state"}, d.Methods())

	assert.True(t, d.Dispatch([]byte(`{"fn":"button_state","args":{"timestamp":5,"is_pressed":false}}`)))
	assert.Equal(t, message.ButtonState{Timestamp: 5}, <-r.buttons)

	assert.True(t, d.Dispatch([]byte(`{"fn":"light_sensor_state","args":{"timestamp":6,"intensity":0.25}}`)))
	assert.Equal(t, message.LightLevel{Timestamp: 6, Intensity: 0.25}, <-r.lights)

	// unknown method and malformed messages have no effect
	assert.False(t, d.Dispatch([]byte(`{"fn":"reboot","args":{}}`)))
	assert.False(t, d.Dispatch([]byte(`{"fn":"button_state"`)))
	assert.Empty(t, r.buttons)
	assert.Empty(t, r.lights)
}

func receive(t *testing.T, ch <-chan message.ButtonState) message.ButtonState {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout")
	}
	return message.ButtonState{}
}

func TestNodeReceive(t *testing.T) {
	a, b := net.Pipe()
	r := newRecorder()
	n := &Node{Link: link.NewConn("peer", a), Receiver: r}
	n.Start()
	defer n.Close()
	peer := link.NewConn("node", b)

	require.NoError(t, peer.WriteMessage([]byte(`{"fn":"button_state","args":{"timestamp":1,"is_pressed":true}}`)))
	assert.Equal(t, message.ButtonState{Timestamp: 1, IsPressed: true}, receive(t, r.buttons))

	// garbage and overlong lines are skipped
	require.NoError(t, peer.WriteMessage([]byte(`{"fn":`)))
	long := make([]byte, 2*message.MaxMessageLen)
	for i := range long {
		long[i] = ' '
	}
	require.NoError(t, peer.WriteMessage(long))
	require.NoError(t, peer.WriteMessage([]byte(`{"fn":"unknown","args":{}}`)))
	require.NoError(t, peer.WriteMessage([]byte(`{"fn":"button_state","args":{"timestamp":2,"is_pressed":false}}`)))
	assert.Equal(t, message.ButtonState{Timestamp: 2}, receive(t, r.buttons))
	assert.Empty(t, r.lights)
}

func TestNodeNotifyButton(t *testing.T) {
	a, b := net.Pipe()
	n := &Node{
		Link:     link.NewConn("peer", a),
		Receiver: newRecorder(),
		Sampler: &fixedSampler{
			button: message.ButtonState{Timestamp: 987654321, IsPressed: true},
		},
	}
	n.Start()
	defer n.Close()

	n.NotifyButton()
	line, err := bufio.NewReader(b).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "{\"fn\":\"button_state\",\"args\":{\"timestamp\":987654321,\"is_pressed\":true}}\n", line)
}

func TestNodeSampleLight(t *testing.T) {
	a, b := net.Pipe()
	n := &Node{
		Link:     link.NewConn("peer", a),
		Receiver: newRecorder(),
		Sampler: &fixedSampler{
			light: message.LightLevel{Timestamp: 3, Intensity: 0.5},
		},
		SampleInterval: 10 * time.Millisecond,
	}
	n.Start()
	defer n.Close()

	peer := link.NewLineReader("node", b)
	buf := make([]byte, message.MaxMessageLen)
	for i := 0; i < 2; i++ {
		line, err := peer.ReadLine(buf)
		require.NoError(t, err)
		assert.Equal(t, `{"fn":"light_sensor_state","args":{"timestamp":3,"intensity":0.5}}`, string(line))
	}
}

func TestNodePair(t *testing.T) {
	a, b := net.Pipe()
	boardA := NewSimBoard()
	boardB := NewSimBoard()
	nodeA := &Node{
		Link:     link.NewConn("B", a),
		Receiver: &BoardReceiver{Board: boardA},
		Sampler:  &BoardSampler{Board: boardA},
	}
	nodeB := &Node{
		Link:     link.NewConn("A", b),
		Receiver: &BoardReceiver{Board: boardB},
		Sampler:  &BoardSampler{Board: boardB},
	}
	nodeA.Start()
	defer nodeA.Close()
	nodeB.Start()
	defer nodeB.Close()

	boardA.Press(true)
	nodeA.NotifyButton()
	assert.Eventually(t, boardB.LED, 5*time.Second, 10*time.Millisecond)

	boardB.SetLightRaw(adcBright)
	require.NoError(t, nodeB.PublishLightLevel(nodeB.Sampler.SampleLight()))
	assert.Eventually(t, func() bool { return boardA.PWM() == 1.0 }, 5*time.Second, 10*time.Millisecond)
}

func TestNodeCloseUnblocks(t *testing.T) {
	a, _ := net.Pipe()
	n := &Node{Link: link.NewConn("peer", a), Receiver: newRecorder(), Sampler: &fixedSampler{}, SampleInterval: time.Hour}
	n.Start()
	done := make(chan struct{})
	go func() {
		n.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked")
	}
}
