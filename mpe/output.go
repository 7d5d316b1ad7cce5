package mpe

import (
	"errors"
	"fmt"

	"go-mpe/debug"
	"go-mpe/midi"
)

// OutputRouter turns sends addressed to a zone's manager channel into
// messages on the zone's member channels for one output device.
//
// Until SetupZone is called the router is transparent: every message goes
// to the transport on the channel it was sent on. Not safe for concurrent
// use; Registry serializes access per device.
type OutputRouter struct {
	device    string
	transport midi.Transport
	status    *Status
	rpn       [16]rpnState
	clock     uint64
	errs      []error
}

func NewOutputRouter(device string, transport midi.Transport) *OutputRouter {
	r := &OutputRouter{device: device, transport: transport}
	for i := range r.rpn {
		r.rpn[i] = newRPNState()
	}
	return r
}

// Status returns the output zone layout, nil when no zone was ever set up
func (r *OutputRouter) Status() *Status {
	return r.status
}

// Send dispatches e to the matching method
func (r *OutputRouter) Send(e midi.Event) error {
	switch e.Kind {
	case midi.NoteOnMsg:
		return r.NoteOn(e.Channel, e.Note(), e.Velocity())
	case midi.NoteOffMsg:
		return r.NoteOff(e.Channel, e.Note(), e.Velocity())
	case midi.PolyAftertouchMsg:
		return r.PolyAftertouch(e.Channel, e.Note(), e.Pressure())
	case midi.ControlChangeMsg:
		return r.ControlChange(e.Channel, e.Controller(), e.Data2)
	case midi.ProgramChangeMsg:
		return r.ProgramChange(e.Channel, e.Program())
	case midi.ChannelAftertouchMsg:
		return r.ChannelAftertouch(e.Channel, e.Pressure())
	case midi.PitchBendMsg:
		return r.PitchBend(e.Channel, e.Value)
	}
	return r.System(e)
}

// SetupZone sends an MPE Configuration Message on the manager channel and
// applies the same layout locally
func (r *OutputRouter) SetupZone(manager uint8, members int) error {
	members, err := checkZone(manager, members)
	if err != nil {
		return err
	}
	if r.status == nil {
		r.status = NewStatus()
	}

	for _, e := range mcm(manager, members) {
		r.rpn[manager].observe(e.Controller(), e.Data2)
		r.send(e)
	}
	r.applyZone(manager, members)
	return r.flush()
}

// ChangeMidiMode switches the zone containing channel to Poly (3) or Mono (4)
// by sending the channel mode message on the zone's basic channel
func (r *OutputRouter) ChangeMidiMode(channel uint8, mode Mode) error {
	if mode != ModePoly && mode != ModeMono {
		debug.Warn("%s: invalid midi mode %d", r.device, mode)
		return ErrInvalidMode
	}
	zone := r.zoneFor(channel)
	if zone == nil {
		debug.Warn("%s: channel %d is not in an MPE zone, mode unchanged", r.device, channel)
		return nil
	}
	basic, _ := zone.BasicChannel()
	if mode == ModePoly {
		r.send(midi.ControlChange(basic, ccPolyOn, 0))
	} else {
		r.send(midi.ControlChange(basic, ccMonoOn, 1))
	}
	zone.mode = mode
	debug.Log("zone", "%s: zone %d mode %d", r.device, zone.manager, mode)
	return r.flush()
}

func (r *OutputRouter) NoteOn(channel, note, velocity uint8) error {
	zone := r.zoneFor(channel)
	if zone == nil {
		r.send(midi.NoteOn(channel, note, velocity))
		return r.flush()
	}
	if velocity == 0 {
		return r.NoteOff(channel, note, 0)
	}

	m, reuse, err := zone.Allocate(note)
	if err != nil {
		debug.Warn("%s: member channels are all active, note %d dropped", r.device, note)
		return err
	}
	if reuse {
		r.send(midi.NoteOff(m.Channel, note, 64))
		m.removeNote(note)
		m.noteOff = r.tick()
	}

	r.catchUp(zone, m)
	r.send(midi.NoteOn(m.Channel, note, velocity))
	m.lastNote = int(note & 0x7f)
	m.addNote(note)
	m.noteOnAt = r.tick()
	return r.flush()
}

func (r *OutputRouter) NoteOff(channel, note, velocity uint8) error {
	zone := r.zoneFor(channel)
	if zone == nil {
		r.send(midi.NoteOff(channel, note, velocity))
		return r.flush()
	}

	m := zone.playingChannel(note)
	if m == nil {
		debug.Log("mpe", "%s: note off %d not playing", r.device, note)
		return nil
	}
	r.send(midi.NoteOff(m.Channel, note, velocity))
	m.removeNote(note)
	m.noteOff = r.tick()
	return r.flush()
}

// PolyAftertouch on the manager channel goes to every sounding member
// channel. Sent to a member channel it is only remembered for catch-up.
func (r *OutputRouter) PolyAftertouch(channel, note, pressure uint8) error {
	zone := r.zoneFor(channel)
	if zone == nil {
		r.send(midi.PolyAftertouch(channel, note, pressure))
		return r.flush()
	}

	note, pressure = note&0x7f, pressure&0x7f
	zone.polyAftertouches[note] = pressure
	if channel == zone.manager {
		for _, m := range zone.ActiveChannels() {
			r.send(midi.PolyAftertouch(m.Channel, note, pressure))
			m.polyAftertouches[note] = pressure
		}
	}
	return r.flush()
}

func (r *OutputRouter) ControlChange(channel, controller, value uint8) error {
	channel, controller, value = channel&0x0f, controller&0x7f, value&0x7f
	members, isMCM := r.rpn[channel].observe(controller, value)

	zone := r.zoneFor(channel)
	if zone == nil {
		r.send(midi.ControlChange(channel, controller, value))
		if isMCM && (channel == LowerManager || channel == UpperManager) {
			// a configuration message written by hand still defines the zone
			if members, err := checkZone(channel, members); err == nil {
				if r.status == nil {
					r.status = NewStatus()
				}
				r.applyZone(channel, members)
			}
		}
		return r.flush()
	}

	if channel == zone.manager {
		switch {
		case isMCM:
			r.send(midi.ControlChange(channel, controller, value))
			if members, err := checkZone(channel, members); err == nil {
				r.applyZone(channel, members)
			}
		case managerOnly(controller):
			r.send(midi.ControlChange(channel, controller, value))
		default:
			cacheable := zoneCacheable(controller)
			if cacheable {
				zone.controllers[controller] = value
			}
			for _, m := range zone.ActiveChannels() {
				r.send(midi.ControlChange(m.Channel, controller, value))
				if cacheable {
					m.controllers[controller] = value
				}
			}
		}
		return r.flush()
	}

	if zoneCacheable(controller) {
		zone.controllers[controller] = value
	}
	if isMCM || controller == ccOmniOn {
		return nil
	}
	if zone.mode == ModePoly && (controller == 0 || controller == 32) {
		// bank select is only valid per member in Mono mode
		return nil
	}
	r.send(midi.ControlChange(channel, controller, value))
	if zoneCacheable(controller) {
		zone.slots[channel].controllers[controller] = value
	}
	return r.flush()
}

func (r *OutputRouter) ProgramChange(channel, program uint8) error {
	zone := r.zoneFor(channel)
	if zone == nil {
		r.send(midi.ProgramChange(channel, program))
		return r.flush()
	}

	program &= 0x7f
	zone.program = program
	if channel == zone.manager {
		for _, m := range zone.ActiveChannels() {
			r.send(midi.ProgramChange(m.Channel, program))
			m.program = program
		}
	} else if zone.mode == ModeMono {
		r.send(midi.ProgramChange(channel, program))
		zone.slots[channel].program = program
	}
	return r.flush()
}

func (r *OutputRouter) ChannelAftertouch(channel, pressure uint8) error {
	zone := r.zoneFor(channel)
	if zone == nil {
		r.send(midi.ChannelAftertouch(channel, pressure))
		return r.flush()
	}

	pressure &= 0x7f
	zone.channelAftertouch = pressure
	targets := zone.ActiveChannels()
	if channel != zone.manager {
		targets = []*MemberChannel{zone.slots[channel]}
	}
	for _, m := range targets {
		r.send(midi.ChannelAftertouch(m.Channel, pressure))
		m.channelAftertouch = pressure
	}
	return r.flush()
}

// PitchBend takes the 14-bit bend value, 8192 is center
func (r *OutputRouter) PitchBend(channel uint8, value uint16) error {
	zone := r.zoneFor(channel)
	if zone == nil {
		r.send(midi.PitchBend(channel, value))
		return r.flush()
	}

	value &= 0x3fff
	zone.pitch = value
	targets := zone.ActiveChannels()
	if channel != zone.manager {
		targets = []*MemberChannel{zone.slots[channel]}
	}
	for _, m := range targets {
		r.send(midi.PitchBend(m.Channel, value))
		m.pitch = value
	}
	return r.flush()
}

// System passes system common, realtime and SysEx messages through
func (r *OutputRouter) System(e midi.Event) error {
	if e.Kind.IsChannel() || e.Kind == midi.UnknownMsg {
		return fmt.Errorf("not a system message: %s", e.Kind)
	}
	r.send(e)
	return r.flush()
}

// catchUp re-sends the zone-wide values m has not seen yet
func (r *OutputRouter) catchUp(zone *Zone, m *MemberChannel) {
	for _, note := range sortedKeys(zone.polyAftertouches) {
		v := zone.polyAftertouches[note]
		if cur, ok := m.polyAftertouches[note]; !ok || cur != v {
			r.send(midi.PolyAftertouch(m.Channel, note, v))
			m.polyAftertouches[note] = v
		}
	}
	for _, cc := range sortedKeys(zone.controllers) {
		v := zone.controllers[cc]
		if cur, ok := m.controllers[cc]; !ok || cur != v {
			r.send(midi.ControlChange(m.Channel, cc, v))
			m.controllers[cc] = v
		}
	}
	if m.program != zone.program {
		r.send(midi.ProgramChange(m.Channel, zone.program))
		m.program = zone.program
	}
	if m.channelAftertouch != zone.channelAftertouch {
		r.send(midi.ChannelAftertouch(m.Channel, zone.channelAftertouch))
		m.channelAftertouch = zone.channelAftertouch
	}
	if m.pitch != zone.pitch {
		r.send(midi.PitchBend(m.Channel, zone.pitch))
		m.pitch = zone.pitch
	}
}

func (r *OutputRouter) applyZone(manager uint8, members int) {
	if SetupZone(r.status, manager, members) {
		other := r.status.Other(r.status.zone(manager))
		debug.Log("zone", "%s: output zone %d resized to %d members", r.device, other.manager, other.members)
	}
	debug.Log("zone", "%s: output zone %d members=%d", r.device, manager, members)
}

func (r *OutputRouter) zoneFor(channel uint8) *Zone {
	if r.status == nil || !r.status.Configured() {
		return nil
	}
	return r.status.ZoneFor(channel & 0x0f)
}

func (r *OutputRouter) send(e midi.Event) {
	if err := r.transport.Send(r.device, e.Message()); err != nil {
		r.errs = append(r.errs, err)
	}
}

func (r *OutputRouter) flush() error {
	err := errors.Join(r.errs...)
	r.errs = r.errs[:0]
	return err
}

func (r *OutputRouter) tick() uint64 {
	r.clock++
	return r.clock
}

// mcm builds the MPE Configuration Message for a zone
func mcm(manager uint8, members int) []midi.Event {
	return []midi.Event{
		midi.ControlChange(manager, ccRPNLSB, 6),
		midi.ControlChange(manager, ccRPNMSB, 0),
		midi.ControlChange(manager, ccDataEntryMSB, uint8(members)),
	}
}

// checkZone validates zone parameters, clamping the member count to 15
func checkZone(manager uint8, members int) (int, error) {
	if manager != LowerManager && manager != UpperManager {
		debug.Warn("invalid manager channel %d, must be 0 or 15", manager)
		return 0, ErrInvalidManager
	}
	if members < 0 {
		debug.Warn("invalid member channel count %d", members)
		return 0, ErrInvalidMemberCount
	}
	if members > MaxMembers {
		debug.Warn("member channel count %d clamped to %d", members, MaxMembers)
		members = MaxMembers
	}
	return members, nil
}
