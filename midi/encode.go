package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Message encodes the event as a gomidi wire message
func (e Event) Message() gomidi.Message {
	switch e.Kind {
	case NoteOnMsg:
		return gomidi.NoteOn(e.Channel, e.Data1, e.Data2)
	case NoteOffMsg:
		return gomidi.NoteOffVelocity(e.Channel, e.Data1, e.Data2)
	case PolyAftertouchMsg:
		return gomidi.PolyAfterTouch(e.Channel, e.Data1, e.Data2)
	case ControlChangeMsg:
		return gomidi.ControlChange(e.Channel, e.Data1, e.Data2)
	case ProgramChangeMsg:
		return gomidi.ProgramChange(e.Channel, e.Data1)
	case ChannelAftertouchMsg:
		return gomidi.AfterTouch(e.Channel, e.Data1)
	case PitchBendMsg:
		return gomidi.Pitchbend(e.Channel, int16(e.Value&0x3fff)-int16(PitchCenter))
	case SysExMsg:
		payload := e.SysEx
		if len(payload) > 0 && payload[0] == 0xf0 {
			payload = payload[1:]
		}
		return gomidi.SysEx(payload)
	case TimeCodeMsg:
		return gomidi.MTC(e.Data1)
	case SongSelectMsg:
		return gomidi.SongSelect(e.Data1)
	case SongPositionMsg:
		// gomidi.SPP writes the MSB first; the wire order is LSB then MSB
		return gomidi.Message{0xf2, byte(e.Value & 0x7f), byte(e.Value >> 7 & 0x7f)}
	case TuneRequestMsg:
		return gomidi.Tune()
	case TimingClockMsg:
		return gomidi.TimingClock()
	case StartMsg:
		return gomidi.Start()
	case ContinueMsg:
		return gomidi.Continue()
	case StopMsg:
		return gomidi.Stop()
	case ActiveSensingMsg:
		return gomidi.Activesense()
	case ResetMsg:
		return gomidi.Reset()
	}
	return nil
}

// Bytes returns the raw wire encoding of the event
func (e Event) Bytes() []byte {
	return []byte(e.Message())
}

// Decode returns the events contained in one complete wire message.
// Transports that deliver whole messages (gomidi listeners, synth sinks) use
// this instead of keeping a streaming parser.
func Decode(msg gomidi.Message) []Event {
	return NewParser().Parse(msg)
}

// Encode concatenates the wire encoding of events without running status
func Encode(events ...Event) []byte {
	var out []byte
	for _, e := range events {
		out = append(out, e.Bytes()...)
	}
	return out
}
