package midi

import (
	"iter"

	"go-mpe/debug"
)

// MaxSysExSize bounds the SysEx buffer so a stream that never sends 0xF7
// cannot grow it without limit
const MaxSysExSize = 64 * 1024

type parseState uint8

const (
	stateWait parseState = iota
	stateExpect2of2
	stateExpect2of3
	stateExpect3of3
	stateSysex
)

// Parser turns a raw MIDI byte stream into events. It keeps state between
// calls so a message may be split across reads. Not safe for concurrent use.
type Parser struct {
	state   parseState
	status  byte // status of the message being assembled
	running byte // last channel status, 0 when running status is cancelled
	data1   byte
	sysex   []byte
	dropped int
}

func NewParser() *Parser {
	return &Parser{}
}

// Reset drops any partial message and the running status
func (p *Parser) Reset() {
	p.state = stateWait
	p.status = 0
	p.running = 0
	p.sysex = nil
}

// Dropped returns how many partial or stray bytes were discarded
func (p *Parser) Dropped() int {
	return p.dropped
}

// Parse feeds all bytes and returns the completed events
func (p *Parser) Parse(data []byte) []Event {
	var events []Event
	for _, b := range data {
		if ev, ok := p.Feed(b); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Events returns a lazy sequence over data. Bytes are consumed only as the
// sequence is iterated; stopping early leaves the rest for the next iteration.
func (p *Parser) Events(data []byte) iter.Seq[Event] {
	i := 0
	return func(yield func(Event) bool) {
		for i < len(data) {
			b := data[i]
			i++
			if ev, ok := p.Feed(b); ok {
				if !yield(ev) {
					return
				}
			}
		}
	}
}

// Feed consumes one byte and returns an event when it completes one
func (p *Parser) Feed(b byte) (Event, bool) {
	// realtime bytes may appear anywhere, even inside another message
	if b >= 0xf8 {
		return realtime(b)
	}

	if b >= 0x80 {
		switch p.state {
		case stateSysex:
			if b == 0xf7 {
				ev := Event{Kind: SysExMsg, SysEx: p.sysex}
				p.sysex = nil
				p.state = stateWait
				return ev, true
			}
			p.drop("sysex of %d bytes cut by status %02X", len(p.sysex), b)
			p.sysex = nil
		case stateWait:
		default:
			p.drop("status %02X cut message %02X", b, p.status)
		}
		p.state = stateWait
		return p.beginStatus(b)
	}

	switch p.state {
	case stateWait:
		if p.running == 0 {
			p.drop("data byte %02X without status", b)
			return Event{}, false
		}
		p.status = p.running
		if channelDataLen(p.running) == 1 {
			return p.complete2(b)
		}
		p.data1 = b
		p.state = stateExpect3of3
	case stateExpect2of2:
		p.state = stateWait
		return p.complete2(b)
	case stateExpect2of3:
		p.data1 = b
		p.state = stateExpect3of3
	case stateExpect3of3:
		p.state = stateWait
		return p.complete3(b)
	case stateSysex:
		if len(p.sysex) >= MaxSysExSize {
			p.drop("sysex exceeds %d bytes", MaxSysExSize)
			p.sysex = nil
			p.state = stateWait
			return Event{}, false
		}
		p.sysex = append(p.sysex, b)
	}
	return Event{}, false
}

func (p *Parser) beginStatus(b byte) (Event, bool) {
	if b < 0xf0 {
		p.status = b
		p.running = b
		if channelDataLen(b) == 1 {
			p.state = stateExpect2of2
		} else {
			p.state = stateExpect2of3
		}
		return Event{}, false
	}

	// system common cancels running status
	p.running = 0
	switch b {
	case 0xf0:
		p.sysex = append(make([]byte, 0, 32), b)
		p.state = stateSysex
	case 0xf1, 0xf3:
		p.status = b
		p.state = stateExpect2of2
	case 0xf2:
		p.status = b
		p.state = stateExpect2of3
	case 0xf6:
		return Event{Kind: TuneRequestMsg}, true
	default:
		// 0xf4, 0xf5 undefined, 0xf7 without an open sysex
		p.drop("stray status %02X", b)
	}
	return Event{}, false
}

func (p *Parser) complete2(b byte) (Event, bool) {
	ch := p.status & 0x0f
	switch p.status & 0xf0 {
	case 0xc0:
		return Event{Kind: ProgramChangeMsg, Channel: ch, Data1: b}, true
	case 0xd0:
		return Event{Kind: ChannelAftertouchMsg, Channel: ch, Data1: b}, true
	}
	switch p.status {
	case 0xf1:
		return Event{Kind: TimeCodeMsg, Data1: b}, true
	case 0xf3:
		return Event{Kind: SongSelectMsg, Data1: b}, true
	}
	p.drop("no 2-byte message for status %02X", p.status)
	return Event{}, false
}

func (p *Parser) complete3(b byte) (Event, bool) {
	ch := p.status & 0x0f
	switch p.status & 0xf0 {
	case 0x80:
		return Event{Kind: NoteOffMsg, Channel: ch, Data1: p.data1, Data2: b}, true
	case 0x90:
		if b == 0 {
			return Event{Kind: NoteOffMsg, Channel: ch, Data1: p.data1}, true
		}
		return Event{Kind: NoteOnMsg, Channel: ch, Data1: p.data1, Data2: b}, true
	case 0xa0:
		return Event{Kind: PolyAftertouchMsg, Channel: ch, Data1: p.data1, Data2: b}, true
	case 0xb0:
		return Event{Kind: ControlChangeMsg, Channel: ch, Data1: p.data1, Data2: b}, true
	case 0xe0:
		return Event{Kind: PitchBendMsg, Channel: ch, Value: uint16(p.data1) | uint16(b)<<7}, true
	}
	if p.status == 0xf2 {
		return Event{Kind: SongPositionMsg, Value: uint16(p.data1) | uint16(b)<<7}, true
	}
	p.drop("no 3-byte message for status %02X", p.status)
	return Event{}, false
}

func (p *Parser) drop(format string, args ...any) {
	p.dropped++
	debug.LogEvery(32, "parser", "drop: "+format, args...)
}

func realtime(b byte) (Event, bool) {
	switch b {
	case 0xf8:
		return Event{Kind: TimingClockMsg}, true
	case 0xfa:
		return Event{Kind: StartMsg}, true
	case 0xfb:
		return Event{Kind: ContinueMsg}, true
	case 0xfc:
		return Event{Kind: StopMsg}, true
	case 0xfe:
		return Event{Kind: ActiveSensingMsg}, true
	case 0xff:
		return Event{Kind: ResetMsg}, true
	}
	// 0xf9, 0xfd undefined
	return Event{}, false
}

// channelDataLen returns the number of data bytes after a channel status
func channelDataLen(status byte) int {
	switch status & 0xf0 {
	case 0xc0, 0xd0:
		return 1
	}
	return 2
}
