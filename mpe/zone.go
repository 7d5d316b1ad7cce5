// Package mpe implements MIDI Polyphonic Expression zones on top of a
// 16-channel MIDI port: zone configuration, member channel allocation and the
// routing of channel messages between a zone's manager and member channels.
package mpe

import (
	"sort"

	"go-mpe/midi"
)

// Manager channels of the two zones
const (
	LowerManager uint8 = 0
	UpperManager uint8 = 15
)

// MaxMembers is the largest member count a single zone may claim
const MaxMembers = 15

// Mode is the MIDI mode of a zone (Omni Off)
type Mode uint8

const (
	ModePoly Mode = 3
	ModeMono Mode = 4
)

// Status holds the MPE configuration of one device
type Status struct {
	Lower *Zone
	Upper *Zone
}

func NewStatus() *Status {
	return &Status{
		Lower: newZone(LowerManager),
		Upper: newZone(UpperManager),
	}
}

// ZoneFor returns the zone claiming channel, or nil
func (s *Status) ZoneFor(channel uint8) *Zone {
	if channel > 15 {
		return nil
	}
	if s.Lower.slots[channel] != nil {
		return s.Lower
	}
	if s.Upper.slots[channel] != nil {
		return s.Upper
	}
	return nil
}

// Configured reports whether any zone is defined
func (s *Status) Configured() bool {
	return s.Lower.Active() || s.Upper.Active()
}

// Other returns the opposite zone of z
func (s *Status) Other(z *Zone) *Zone {
	if z == s.Lower {
		return s.Upper
	}
	return s.Lower
}

// zone returns the zone managed by channel 0 or 15
func (s *Status) zone(manager uint8) *Zone {
	if manager == UpperManager {
		return s.Upper
	}
	return s.Lower
}

// Zone is one MPE zone: a manager channel plus its member channels.
// Zone-wide values are the last ones sent through the manager channel and
// are replayed to member channels before they start a note.
type Zone struct {
	manager uint8
	members int
	mode    Mode

	controllers       map[uint8]uint8
	polyAftertouches  map[uint8]uint8
	channelAftertouch uint8
	pitch             uint16
	program           uint8

	slots [16]*MemberChannel
}

func newZone(manager uint8) *Zone {
	return &Zone{
		manager:           manager,
		mode:              ModePoly,
		controllers:       make(map[uint8]uint8),
		polyAftertouches:  make(map[uint8]uint8),
		channelAftertouch: 127,
		pitch:             midi.PitchCenter,
	}
}

func (z *Zone) Manager() uint8 { return z.manager }
func (z *Zone) Members() int   { return z.members }
func (z *Zone) Mode() Mode     { return z.mode }

// Active reports whether the zone has a manager and at least one member
func (z *Zone) Active() bool {
	m := z.slots[z.manager]
	return m != nil && m.Manager && z.members > 0
}

// Channel returns the slot for channel, nil when the channel is not in the zone
func (z *Zone) Channel(channel uint8) *MemberChannel {
	if channel > 15 {
		return nil
	}
	return z.slots[channel]
}

// Channels returns the occupied slots (manager included) in channel order
func (z *Zone) Channels() []*MemberChannel {
	var out []*MemberChannel
	for _, m := range z.slots {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// MemberChannels returns the non-manager slots in channel order
func (z *Zone) MemberChannels() []*MemberChannel {
	var out []*MemberChannel
	for _, m := range z.slots {
		if m != nil && !m.Manager {
			out = append(out, m)
		}
	}
	return out
}

// ActiveChannels returns member channels with at least one sounding note
func (z *Zone) ActiveChannels() []*MemberChannel {
	var out []*MemberChannel
	for _, m := range z.slots {
		if m != nil && !m.Manager && m.Sounding() > 0 {
			out = append(out, m)
		}
	}
	return out
}

// BasicChannel is the lowest channel claimed by the zone
func (z *Zone) BasicChannel() (uint8, bool) {
	for ch, m := range z.slots {
		if m != nil {
			return uint8(ch), true
		}
	}
	return 0, false
}

func (z *Zone) clear() {
	for i := range z.slots {
		z.slots[i] = nil
	}
	z.members = 0
}

// MemberChannel is one channel slot of a zone
type MemberChannel struct {
	Channel uint8
	Manager bool

	notes    [2]uint64 // bit set of sounding note numbers
	lastNote int       // -1 when nothing was played yet
	noteOnAt uint64    // logical clock stamps, 0 = never
	noteOff  uint64

	// last values sent to this channel
	controllers       map[uint8]uint8
	polyAftertouches  map[uint8]uint8
	channelAftertouch uint8
	pitch             uint16
	program           uint8
}

func newMemberChannel(channel uint8, manager bool) *MemberChannel {
	return &MemberChannel{
		Channel:           channel,
		Manager:           manager,
		lastNote:          -1,
		controllers:       make(map[uint8]uint8),
		polyAftertouches:  make(map[uint8]uint8),
		channelAftertouch: 127,
		pitch:             midi.PitchCenter,
	}
}

// Playing reports whether note is sounding on the channel
func (m *MemberChannel) Playing(note uint8) bool {
	note &= 0x7f
	return m.notes[note>>6]&(1<<(note&63)) != 0
}

// Sounding returns the number of notes sounding on the channel
func (m *MemberChannel) Sounding() int {
	n := 0
	for _, w := range m.notes {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}

// Notes returns the sounding note numbers in ascending order
func (m *MemberChannel) Notes() []uint8 {
	var out []uint8
	for note := 0; note < 128; note++ {
		if m.Playing(uint8(note)) {
			out = append(out, uint8(note))
		}
	}
	return out
}

// LastNote returns the last note started on the channel
func (m *MemberChannel) LastNote() (uint8, bool) {
	if m.lastNote < 0 {
		return 0, false
	}
	return uint8(m.lastNote), true
}

func (m *MemberChannel) addNote(note uint8) {
	note &= 0x7f
	m.notes[note>>6] |= 1 << (note & 63)
}

func (m *MemberChannel) removeNote(note uint8) {
	note &= 0x7f
	m.notes[note>>6] &^= 1 << (note & 63)
}

func sortedKeys(values map[uint8]uint8) []uint8 {
	keys := make([]uint8, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
