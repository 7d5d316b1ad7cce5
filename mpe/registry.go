package mpe

import (
	"sort"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-mpe/debug"
	"go-mpe/midi"
)

// Registry owns the MPE state of every attached device: a byte parser and
// an input router for what the device sends us, and an output router for
// what we send to it. Devices are independent; each has its own lock.
type Registry struct {
	transport midi.Transport

	mu      sync.RWMutex
	devices map[string]*device

	hmu      sync.RWMutex
	handlers []Handler
}

type device struct {
	mu     sync.Mutex
	parser *midi.Parser
	in     *InputRouter
	out    *OutputRouter
}

// Option configures a Registry
type Option func(*Registry)

// WithHandler subscribes h from construction on
func WithHandler(h Handler) Option {
	return func(r *Registry) {
		r.handlers = append(r.handlers, h)
	}
}

// WithDevices attaches the given device ids up front
func WithDevices(ids ...string) Option {
	return func(r *Registry) {
		for _, id := range ids {
			r.devices[id] = r.newDevice(id)
		}
	}
}

func NewRegistry(transport midi.Transport, opts ...Option) *Registry {
	r := &Registry{
		transport: transport,
		devices:   make(map[string]*device),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) newDevice(id string) *device {
	return &device{
		parser: midi.NewParser(),
		in:     NewInputRouter(id),
		out:    NewOutputRouter(id, r.transport),
	}
}

// Attach registers a device. It reports false when the device was already attached.
func (r *Registry) Attach(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[id]; ok {
		return false
	}
	r.devices[id] = r.newDevice(id)
	debug.Log("registry", "attached %s", id)
	return true
}

// Detach forgets everything known about a device
func (r *Registry) Detach(id string) {
	r.mu.Lock()
	_, ok := r.devices[id]
	delete(r.devices, id)
	r.mu.Unlock()
	if ok {
		debug.Log("registry", "detached %s", id)
	}
}

// Devices returns the attached device ids in sorted order
func (r *Registry) Devices() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Subscribe adds a handler for routed input events
func (r *Registry) Subscribe(h Handler) {
	r.hmu.Lock()
	r.handlers = append(r.handlers, h)
	r.hmu.Unlock()
}

// device returns the entry for id, attaching it on first use
func (r *Registry) device(id string) *device {
	r.mu.RLock()
	d, ok := r.devices[id]
	r.mu.RUnlock()
	if ok {
		return d
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.devices[id]; ok {
		return d
	}
	d = r.newDevice(id)
	r.devices[id] = d
	debug.Log("registry", "attached %s on first use", id)
	return d
}

// Receive parses raw bytes from a device and routes the resulting events.
// Handlers run after the device lock is released.
func (r *Registry) Receive(id string, data []byte) {
	d := r.device(id)

	var events []Event
	collect := func(e Event) { events = append(events, e) }

	d.mu.Lock()
	for ev := range d.parser.Events(data) {
		d.in.Route(ev, collect)
	}
	d.mu.Unlock()

	r.dispatch(events)
}

// ReceiveEvent routes an already decoded message from a device
func (r *Registry) ReceiveEvent(id string, ev midi.Event) {
	d := r.device(id)

	var events []Event
	d.mu.Lock()
	d.in.Route(ev, func(e Event) { events = append(events, e) })
	d.mu.Unlock()

	r.dispatch(events)
}

func (r *Registry) dispatch(events []Event) {
	if len(events) == 0 {
		return
	}
	r.hmu.RLock()
	handlers := r.handlers
	r.hmu.RUnlock()
	for _, e := range events {
		for _, h := range handlers {
			h(e)
		}
	}
}

// withOutput runs fn on the output router of id under the device lock
func (r *Registry) withOutput(id string, fn func(*OutputRouter) error) error {
	d := r.device(id)
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.out)
}

// SetupZone configures an output zone on a device and sends the
// configuration message to it
func (r *Registry) SetupZone(id string, manager uint8, members int) error {
	return r.withOutput(id, func(o *OutputRouter) error { return o.SetupZone(manager, members) })
}

func (r *Registry) ChangeMidiMode(id string, channel uint8, mode Mode) error {
	return r.withOutput(id, func(o *OutputRouter) error { return o.ChangeMidiMode(channel, mode) })
}

func (r *Registry) SendNoteOn(id string, channel, note, velocity uint8) error {
	return r.withOutput(id, func(o *OutputRouter) error { return o.NoteOn(channel, note, velocity) })
}

func (r *Registry) SendNoteOff(id string, channel, note, velocity uint8) error {
	return r.withOutput(id, func(o *OutputRouter) error { return o.NoteOff(channel, note, velocity) })
}

func (r *Registry) SendPolyAftertouch(id string, channel, note, pressure uint8) error {
	return r.withOutput(id, func(o *OutputRouter) error { return o.PolyAftertouch(channel, note, pressure) })
}

func (r *Registry) SendControlChange(id string, channel, controller, value uint8) error {
	return r.withOutput(id, func(o *OutputRouter) error { return o.ControlChange(channel, controller, value) })
}

func (r *Registry) SendProgramChange(id string, channel, program uint8) error {
	return r.withOutput(id, func(o *OutputRouter) error { return o.ProgramChange(channel, program) })
}

func (r *Registry) SendChannelAftertouch(id string, channel, pressure uint8) error {
	return r.withOutput(id, func(o *OutputRouter) error { return o.ChannelAftertouch(channel, pressure) })
}

func (r *Registry) SendPitchBend(id string, channel uint8, value uint16) error {
	return r.withOutput(id, func(o *OutputRouter) error { return o.PitchBend(channel, value) })
}

// SendSystem passes a system message to the device unchanged
func (r *Registry) SendSystem(id string, e midi.Event) error {
	return r.withOutput(id, func(o *OutputRouter) error { return o.System(e) })
}

// Send dispatches any event to the matching send call
func (r *Registry) Send(id string, e midi.Event) error {
	return r.withOutput(id, func(o *OutputRouter) error { return o.Send(e) })
}

// ChannelSnapshot is a copy of one zone channel
type ChannelSnapshot struct {
	Channel  uint8
	Manager  bool
	Notes    []uint8
	Pitch    uint16
	Pressure uint8
}

// ZoneSnapshot is a copy of an active zone
type ZoneSnapshot struct {
	Manager  uint8
	Members  int
	Mode     Mode
	Channels []ChannelSnapshot
}

// Snapshot is a read-only copy of a device's zones
type Snapshot struct {
	Device string
	Input  []ZoneSnapshot
	Output []ZoneSnapshot
}

// Snapshot copies the zone state of an attached device
func (r *Registry) Snapshot(id string) (Snapshot, error) {
	r.mu.RLock()
	d, ok := r.devices[id]
	r.mu.RUnlock()
	if !ok {
		return Snapshot{}, fault.Wrap(ErrUnknownDevice, fmsg.With(id), ftag.With(ftag.NotFound))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		Device: id,
		Input:  snapshotStatus(d.in.Status()),
		Output: snapshotStatus(d.out.Status()),
	}, nil
}

func snapshotStatus(s *Status) []ZoneSnapshot {
	if s == nil {
		return nil
	}
	var out []ZoneSnapshot
	for _, z := range []*Zone{s.Lower, s.Upper} {
		if !z.Active() {
			continue
		}
		zs := ZoneSnapshot{Manager: z.manager, Members: z.members, Mode: z.mode}
		for _, m := range z.Channels() {
			zs.Channels = append(zs.Channels, ChannelSnapshot{
				Channel:  m.Channel,
				Manager:  m.Manager,
				Notes:    m.Notes(),
				Pitch:    m.pitch,
				Pressure: m.channelAftertouch,
			})
		}
		out = append(out, zs)
	}
	return out
}
