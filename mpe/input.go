package mpe

import (
	"go-mpe/debug"
	"go-mpe/midi"
)

// InputRouter maps messages received from one device onto its zones.
// Zones are defined by MPE Configuration Messages arriving on channel 0 or 15;
// until one arrives every message passes through untouched.
type InputRouter struct {
	device string
	status *Status
	rpn    [2]rpnState // channel 0 and 15
}

func NewInputRouter(device string) *InputRouter {
	return &InputRouter{
		device: device,
		rpn:    [2]rpnState{newRPNState(), newRPNState()},
	}
}

// Status returns the input zone layout, nil before the first configuration message
func (r *InputRouter) Status() *Status {
	return r.status
}

// Route emits the MPE view of ev. A configuration message is emitted as the
// control change itself followed by one ZoneDefinedEvent per changed zone.
func (r *InputRouter) Route(ev midi.Event, emit func(Event)) {
	emit(r.route(ev))

	if ev.Kind != midi.ControlChangeMsg {
		return
	}
	var acc *rpnState
	switch ev.Channel {
	case LowerManager:
		acc = &r.rpn[0]
	case UpperManager:
		acc = &r.rpn[1]
	default:
		return
	}
	members, ok := acc.observe(ev.Controller(), ev.Data2)
	if !ok {
		return
	}
	r.defineZone(ev.Channel, members, emit)
}

func (r *InputRouter) route(ev midi.Event) Event {
	out := Event{Device: r.device, Kind: MessageEvent, Msg: ev}
	if !ev.Kind.IsChannel() || r.status == nil || !r.status.Configured() {
		return out
	}
	zone := r.status.ZoneFor(ev.Channel)
	if zone == nil {
		return out
	}

	if m := zone.slots[ev.Channel]; m != nil && !m.Manager {
		switch ev.Kind {
		case midi.NoteOnMsg:
			m.addNote(ev.Note())
			m.lastNote = int(ev.Note())
		case midi.NoteOffMsg:
			m.removeNote(ev.Note())
		case midi.PitchBendMsg:
			m.pitch = ev.Value
		case midi.ChannelAftertouchMsg:
			m.channelAftertouch = ev.Pressure()
		}
	}

	out.Msg = ev.WithChannel(zone.manager)
	out.Zoned = true
	return out
}

func (r *InputRouter) defineZone(manager uint8, members int, emit func(Event)) {
	if members > MaxMembers {
		debug.Warn("%s: member channel count %d clamped to %d", r.device, members, MaxMembers)
		members = MaxMembers
	}
	if r.status == nil {
		r.status = NewStatus()
	}

	zone := r.status.zone(manager)
	otherChanged := SetupZone(r.status, manager, members)
	debug.Log("zone", "%s: input zone %d members=%d", r.device, manager, zone.members)
	emit(Event{Device: r.device, Kind: ZoneDefinedEvent, Manager: manager, Members: zone.members})

	if otherChanged {
		other := r.status.Other(zone)
		debug.Log("zone", "%s: input zone %d resized to %d members", r.device, other.manager, other.members)
		emit(Event{Device: r.device, Kind: ZoneDefinedEvent, Manager: other.manager, Members: other.members})
	}
}
