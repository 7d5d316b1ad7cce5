package midi

import (
	"bytes"
	"fmt"
)

// Kind identifies the type of a MIDI event
type Kind uint8

const (
	UnknownMsg Kind = iota
	NoteOnMsg
	NoteOffMsg
	PolyAftertouchMsg
	ControlChangeMsg
	ProgramChangeMsg
	ChannelAftertouchMsg
	PitchBendMsg
	SysExMsg
	TimeCodeMsg
	SongSelectMsg
	SongPositionMsg
	TuneRequestMsg
	TimingClockMsg
	StartMsg
	ContinueMsg
	StopMsg
	ActiveSensingMsg
	ResetMsg
)

var kindNames = [...]string{
	UnknownMsg:           "Unknown",
	NoteOnMsg:            "NoteOn",
	NoteOffMsg:           "NoteOff",
	PolyAftertouchMsg:    "PolyAftertouch",
	ControlChangeMsg:     "ControlChange",
	ProgramChangeMsg:     "ProgramChange",
	ChannelAftertouchMsg: "ChannelAftertouch",
	PitchBendMsg:         "PitchBend",
	SysExMsg:             "SysEx",
	TimeCodeMsg:          "TimeCodeQuarterFrame",
	SongSelectMsg:        "SongSelect",
	SongPositionMsg:      "SongPositionPointer",
	TuneRequestMsg:       "TuneRequest",
	TimingClockMsg:       "TimingClock",
	StartMsg:             "Start",
	ContinueMsg:          "Continue",
	StopMsg:              "Stop",
	ActiveSensingMsg:     "ActiveSensing",
	ResetMsg:             "Reset",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsChannel reports whether events of this kind are addressed to a channel
func (k Kind) IsChannel() bool {
	return k >= NoteOnMsg && k <= PitchBendMsg
}

// PitchCenter is the 14-bit pitch bend value for "no bend"
const PitchCenter uint16 = 8192

// Event is a single decoded MIDI message.
//
// Channel kinds use Channel and Data1/Data2; PitchBend and SongPositionPointer
// carry their 14-bit value in Value; SysEx holds the payload starting with 0xF0
// (the terminating 0xF7 is not stored).
type Event struct {
	Kind    Kind
	Channel uint8
	Data1   uint8
	Data2   uint8
	Value   uint16
	SysEx   []byte
}

func NoteOn(channel, note, velocity uint8) Event {
	return Event{Kind: NoteOnMsg, Channel: channel & 0x0f, Data1: note & 0x7f, Data2: velocity & 0x7f}
}

func NoteOff(channel, note, velocity uint8) Event {
	return Event{Kind: NoteOffMsg, Channel: channel & 0x0f, Data1: note & 0x7f, Data2: velocity & 0x7f}
}

func PolyAftertouch(channel, note, pressure uint8) Event {
	return Event{Kind: PolyAftertouchMsg, Channel: channel & 0x0f, Data1: note & 0x7f, Data2: pressure & 0x7f}
}

func ControlChange(channel, controller, value uint8) Event {
	return Event{Kind: ControlChangeMsg, Channel: channel & 0x0f, Data1: controller & 0x7f, Data2: value & 0x7f}
}

func ProgramChange(channel, program uint8) Event {
	return Event{Kind: ProgramChangeMsg, Channel: channel & 0x0f, Data1: program & 0x7f}
}

func ChannelAftertouch(channel, pressure uint8) Event {
	return Event{Kind: ChannelAftertouchMsg, Channel: channel & 0x0f, Data1: pressure & 0x7f}
}

// PitchBend builds a pitch bend event; value is 0-16383 with 8192 as center
func PitchBend(channel uint8, value uint16) Event {
	return Event{Kind: PitchBendMsg, Channel: channel & 0x0f, Value: value & 0x3fff}
}

// SysEx builds a system exclusive event. A missing leading 0xF0 is added and a
// trailing 0xF7 is stripped so the payload matches what the parser emits.
func SysEx(data []byte) Event {
	payload := make([]byte, 0, len(data)+1)
	if len(data) == 0 || data[0] != 0xf0 {
		payload = append(payload, 0xf0)
	}
	payload = append(payload, data...)
	if n := len(payload); n > 1 && payload[n-1] == 0xf7 {
		payload = payload[:n-1]
	}
	return Event{Kind: SysExMsg, SysEx: payload}
}

func TimeCode(data uint8) Event     { return Event{Kind: TimeCodeMsg, Data1: data & 0x7f} }
func SongSelect(song uint8) Event   { return Event{Kind: SongSelectMsg, Data1: song & 0x7f} }
func SongPosition(pos uint16) Event { return Event{Kind: SongPositionMsg, Value: pos & 0x3fff} }
func TuneRequest() Event            { return Event{Kind: TuneRequestMsg} }
func TimingClock() Event            { return Event{Kind: TimingClockMsg} }
func Start() Event                  { return Event{Kind: StartMsg} }
func Continue() Event               { return Event{Kind: ContinueMsg} }
func Stop() Event                   { return Event{Kind: StopMsg} }
func ActiveSensing() Event          { return Event{Kind: ActiveSensingMsg} }
func Reset() Event                  { return Event{Kind: ResetMsg} }

func (e Event) Note() uint8       { return e.Data1 }
func (e Event) Velocity() uint8   { return e.Data2 }
func (e Event) Controller() uint8 { return e.Data1 }
func (e Event) Program() uint8    { return e.Data1 }

// Pressure returns the aftertouch amount for both aftertouch kinds
func (e Event) Pressure() uint8 {
	if e.Kind == ChannelAftertouchMsg {
		return e.Data1
	}
	return e.Data2
}

// WithChannel returns a copy of a channel event addressed to another channel
func (e Event) WithChannel(channel uint8) Event {
	if e.Kind.IsChannel() {
		e.Channel = channel & 0x0f
	}
	return e
}

// Equal compares two events including the SysEx payload
func (e Event) Equal(o Event) bool {
	if e.Kind != o.Kind || e.Channel != o.Channel || e.Data1 != o.Data1 || e.Data2 != o.Data2 || e.Value != o.Value {
		return false
	}
	return bytes.Equal(e.SysEx, o.SysEx)
}

func (e Event) String() string {
	switch e.Kind {
	case NoteOnMsg, NoteOffMsg:
		return fmt.Sprintf("%s ch=%d note=%d vel=%d", e.Kind, e.Channel, e.Data1, e.Data2)
	case PolyAftertouchMsg:
		return fmt.Sprintf("%s ch=%d note=%d pressure=%d", e.Kind, e.Channel, e.Data1, e.Data2)
	case ControlChangeMsg:
		return fmt.Sprintf("%s ch=%d cc=%d value=%d", e.Kind, e.Channel, e.Data1, e.Data2)
	case ProgramChangeMsg:
		return fmt.Sprintf("%s ch=%d program=%d", e.Kind, e.Channel, e.Data1)
	case ChannelAftertouchMsg:
		return fmt.Sprintf("%s ch=%d pressure=%d", e.Kind, e.Channel, e.Data1)
	case PitchBendMsg:
		return fmt.Sprintf("%s ch=%d value=%d", e.Kind, e.Channel, e.Value)
	case SysExMsg:
		return fmt.Sprintf("%s % X", e.Kind, e.SysEx)
	case TimeCodeMsg, SongSelectMsg:
		return fmt.Sprintf("%s %d", e.Kind, e.Data1)
	case SongPositionMsg:
		return fmt.Sprintf("%s %d", e.Kind, e.Value)
	}
	return e.Kind.String()
}
