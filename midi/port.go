package midi

import (
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-mpe/debug"
)

// Transport delivers encoded messages to a device
type Transport interface {
	Send(device string, msg gomidi.Message) error
}

// SendFunc writes one message to an open port
type SendFunc func(gomidi.Message) error

// OpenFunc opens the output port called name
type OpenFunc func(name string) (SendFunc, error)

// PortTransport sends to gomidi output ports, opening each port by name on
// first use and keeping the sender until Forget is called
type PortTransport struct {
	open OpenFunc

	mu      sync.RWMutex
	senders map[string]SendFunc
}

// NewPortTransport uses open to reach ports; nil opens real driver ports
func NewPortTransport(open OpenFunc) *PortTransport {
	if open == nil {
		open = OpenOutPort
	}
	return &PortTransport{
		open:    open,
		senders: make(map[string]SendFunc),
	}
}

func (t *PortTransport) Send(device string, msg gomidi.Message) error {
	send, err := t.sender(device)
	if err != nil {
		return err
	}
	if err := send(msg); err != nil {
		return fault.Wrap(err, fmsg.With("send to "+device))
	}
	return nil
}

// Forget drops the cached sender for a device, e.g. after it was unplugged
func (t *PortTransport) Forget(device string) {
	t.mu.Lock()
	delete(t.senders, device)
	t.mu.Unlock()
}

func (t *PortTransport) sender(device string) (SendFunc, error) {
	t.mu.RLock()
	if send, ok := t.senders[device]; ok {
		t.mu.RUnlock()
		return send, nil
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Double-check after acquiring write lock
	if send, ok := t.senders[device]; ok {
		return send, nil
	}
	send, err := t.open(device)
	if err != nil {
		return nil, err
	}
	t.senders[device] = send
	debug.Log("port", "opened output %s", device)
	return send, nil
}

// OpenOutPort finds a driver output port by name and opens it
func OpenOutPort(name string) (SendFunc, error) {
	for _, port := range gomidi.GetOutPorts() {
		if port.String() == name {
			send, err := gomidi.SendTo(port)
			if err != nil {
				return nil, fault.Wrap(err, fmsg.With("open output "+name))
			}
			return send, nil
		}
	}
	return nil, fault.New("no output port "+name, ftag.With(ftag.NotFound))
}

// Mux sends to a transport chosen by device name, falling back to a default
type Mux struct {
	fallback Transport

	mu     sync.RWMutex
	routes map[string]Transport
}

func NewMux(fallback Transport) *Mux {
	return &Mux{fallback: fallback, routes: make(map[string]Transport)}
}

// Handle routes device to t
func (m *Mux) Handle(device string, t Transport) {
	m.mu.Lock()
	m.routes[device] = t
	m.mu.Unlock()
}

func (m *Mux) Send(device string, msg gomidi.Message) error {
	m.mu.RLock()
	t, ok := m.routes[device]
	m.mu.RUnlock()
	if !ok {
		t = m.fallback
	}
	if t == nil {
		return fault.New("no transport for "+device, ftag.With(ftag.NotFound))
	}
	return t.Send(device, msg)
}

// TapFunc observes a message on its way to a device
type TapFunc func(device string, msg gomidi.Message)

type tap struct {
	next Transport
	fn   TapFunc
}

// Tap calls fn for every message before handing it to next
func Tap(next Transport, fn TapFunc) Transport {
	return &tap{next: next, fn: fn}
}

func (t *tap) Send(device string, msg gomidi.Message) error {
	t.fn(device, msg)
	return t.next.Send(device, msg)
}
