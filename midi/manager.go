package midi

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"go-mpe/debug"
)

// DeviceEvent is emitted when a device appears or disappears
type DeviceEvent struct {
	Type   DeviceEventType
	ID     string
	Input  bool // device has an input port we listen to
	Output bool // device has an output port we can send to
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

func (t DeviceEventType) String() string {
	if t == DeviceConnected {
		return "connected"
	}
	return "disconnected"
}

// Sink receives raw bytes read from a device's input port
type Sink func(device string, data []byte)

// PortLister returns the names of the current input and output ports
type PortLister func() (inputs, outputs []string)

// ListenFunc starts reading input port name into sink and returns a stop function
type ListenFunc func(name string, sink func(data []byte)) (stop func(), err error)

type device struct {
	input, output bool
	stop          func()
}

// DeviceManager handles hot-plug detection of MIDI devices. A device is a
// port name seen as an input, an output or both; input ports are listened
// to and their bytes forwarded to the sink.
type DeviceManager struct {
	list    PortLister
	listen  ListenFunc
	sink    Sink
	exclude []string

	devices  map[string]*device
	mu       sync.RWMutex
	events   chan DeviceEvent
	pollRate time.Duration
}

// ManagerOption configures a DeviceManager
type ManagerOption func(*DeviceManager)

// WithPorts replaces driver port access, mainly for tests
func WithPorts(list PortLister, listen ListenFunc) ManagerOption {
	return func(dm *DeviceManager) {
		dm.list = list
		dm.listen = listen
	}
}

// WithExclude skips ports whose lower-cased name matches one of the glob
// patterns (e.g. "midi through*")
func WithExclude(patterns ...string) ManagerOption {
	return func(dm *DeviceManager) {
		for _, p := range patterns {
			dm.exclude = append(dm.exclude, strings.ToLower(p))
		}
	}
}

// WithPollRate sets how often ports are scanned
func WithPollRate(d time.Duration) ManagerOption {
	return func(dm *DeviceManager) {
		if d > 0 {
			dm.pollRate = d
		}
	}
}

// NewDeviceManager creates a new device manager feeding input bytes to sink
func NewDeviceManager(sink Sink, opts ...ManagerOption) *DeviceManager {
	dm := &DeviceManager{
		list:     ListPorts,
		listen:   ListenPort,
		sink:     sink,
		devices:  make(map[string]*device),
		events:   make(chan DeviceEvent, 16),
		pollRate: time.Second,
	}
	for _, opt := range opts {
		opt(dm)
	}
	return dm
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Devices returns the connected device names in sorted order
func (dm *DeviceManager) Devices() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	ids := make([]string, 0, len(dm.devices))
	for id := range dm.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.Scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.Scan()
		}
	}
}

// Scan compares the current ports with the known devices once
func (dm *DeviceManager) Scan() {
	inputs, outputs := dm.list()

	seen := make(map[string]*device)
	for _, name := range inputs {
		if dm.excluded(name) {
			continue
		}
		seen[name] = &device{input: true}
	}
	for _, name := range outputs {
		if dm.excluded(name) {
			continue
		}
		if d, ok := seen[name]; ok {
			d.output = true
		} else {
			seen[name] = &device{output: true}
		}
	}

	var events []DeviceEvent

	dm.mu.Lock()
	for name, d := range seen {
		if _, exists := dm.devices[name]; exists {
			continue
		}
		if d.input {
			stop, err := dm.listen(name, dm.forward(name))
			if err != nil {
				debug.Log("device", "listen %s: %v", name, err)
				d.input = false
			} else {
				d.stop = stop
			}
		}
		dm.devices[name] = d
		events = append(events, DeviceEvent{Type: DeviceConnected, ID: name, Input: d.input, Output: d.output})
	}

	// Check for disconnects
	for name, d := range dm.devices {
		if _, ok := seen[name]; ok {
			continue
		}
		if d.stop != nil {
			d.stop()
		}
		delete(dm.devices, name)
		events = append(events, DeviceEvent{Type: DeviceDisconnected, ID: name, Input: d.input, Output: d.output})
	}
	dm.mu.Unlock()

	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	for _, ev := range events {
		debug.Log("device", "%s %s in=%v out=%v", ev.ID, ev.Type, ev.Input, ev.Output)
		dm.events <- ev
	}
}

func (dm *DeviceManager) forward(name string) func([]byte) {
	return func(data []byte) {
		if dm.sink != nil {
			dm.sink(name, data)
		}
	}
}

func (dm *DeviceManager) excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range dm.exclude {
		if ok, _ := path.Match(p, lower); ok {
			return true
		}
	}
	return false
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, d := range dm.devices {
		if d.stop != nil {
			d.stop()
		}
	}
	dm.devices = make(map[string]*device)
}
