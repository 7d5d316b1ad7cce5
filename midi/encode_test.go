package midi

import (
	"bytes"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestMessageBytes(t *testing.T) {
	tests := []struct {
		ev   Event
		want []byte
	}{
		{NoteOn(1, 60, 100), []byte{0x91, 60, 100}},
		{NoteOff(2, 60, 64), []byte{0x82, 60, 64}},
		{PolyAftertouch(3, 61, 5), []byte{0xa3, 61, 5}},
		{ControlChange(0, 74, 1), []byte{0xb0, 74, 1}},
		{ProgramChange(15, 127), []byte{0xcf, 127}},
		{ChannelAftertouch(4, 2), []byte{0xd4, 2}},
		{PitchBend(0, 8192), []byte{0xe0, 0x00, 0x40}},
		{PitchBend(0, 0), []byte{0xe0, 0x00, 0x00}},
		{PitchBend(0, 16383), []byte{0xe0, 0x7f, 0x7f}},
		{SysEx([]byte{0x7e, 0x01}), []byte{0xf0, 0x7e, 0x01, 0xf7}},
		{SongPosition(0x101), []byte{0xf2, 0x01, 0x02}},
		{SongSelect(3), []byte{0xf3, 3}},
		{TuneRequest(), []byte{0xf6}},
		{TimingClock(), []byte{0xf8}},
		{Reset(), []byte{0xff}},
	}
	for _, tt := range tests {
		if got := tt.ev.Bytes(); !bytes.Equal(got, tt.want) {
			t.Errorf("%s: got % X, want % X", tt.ev, got, tt.want)
		}
	}
}

func TestMessageReadableByGomidi(t *testing.T) {
	var ch, key, vel uint8
	if !NoteOn(9, 36, 110).Message().GetNoteOn(&ch, &key, &vel) || ch != 9 || key != 36 || vel != 110 {
		t.Fatalf("GetNoteOn = %d %d %d", ch, key, vel)
	}

	var cc, val uint8
	if !ControlChange(15, 74, 3).Message().GetControlChange(&ch, &cc, &val) || ch != 15 || cc != 74 || val != 3 {
		t.Fatalf("GetControlChange = %d %d %d", ch, cc, val)
	}

	var rel int16
	var abs uint16
	if !PitchBend(2, 10000).Message().GetPitchBend(&ch, &rel, &abs) || abs != 10000 || rel != 10000-8192 {
		t.Fatalf("GetPitchBend = %d %d %d", ch, rel, abs)
	}
}

func TestDecodeGomidiMessage(t *testing.T) {
	got := Decode(gomidi.NoteOn(3, 64, 0))
	expect(t, got, NoteOff(3, 64, 0))

	got = Decode(gomidi.SysEx([]byte{0x41, 0x10}))
	expect(t, got, SysEx([]byte{0x41, 0x10}))
}

func genEvent() gopter.Gen {
	data := gen.UInt8Range(0, 127)
	ch := gen.UInt8Range(0, 15)
	return gen.OneGenOf(
		gopter.CombineGens(ch, data, gen.UInt8Range(1, 127)).Map(func(v []any) Event {
			return NoteOn(v[0].(uint8), v[1].(uint8), v[2].(uint8))
		}),
		gopter.CombineGens(ch, data, data).Map(func(v []any) Event {
			return NoteOff(v[0].(uint8), v[1].(uint8), v[2].(uint8))
		}),
		gopter.CombineGens(ch, data, data).Map(func(v []any) Event {
			return PolyAftertouch(v[0].(uint8), v[1].(uint8), v[2].(uint8))
		}),
		gopter.CombineGens(ch, data, data).Map(func(v []any) Event {
			return ControlChange(v[0].(uint8), v[1].(uint8), v[2].(uint8))
		}),
		gopter.CombineGens(ch, data).Map(func(v []any) Event {
			return ProgramChange(v[0].(uint8), v[1].(uint8))
		}),
		gopter.CombineGens(ch, data).Map(func(v []any) Event {
			return ChannelAftertouch(v[0].(uint8), v[1].(uint8))
		}),
		gopter.CombineGens(ch, gen.UInt16Range(0, 16383)).Map(func(v []any) Event {
			return PitchBend(v[0].(uint8), v[1].(uint16))
		}),
		gen.SliceOf(data).Map(func(p []uint8) Event {
			return SysEx(p)
		}),
		data.Map(func(d uint8) Event { return TimeCode(d) }),
		data.Map(func(d uint8) Event { return SongSelect(d) }),
		gen.UInt16Range(0, 16383).Map(func(v uint16) Event { return SongPosition(v) }),
		gen.OneConstOf(TuneRequest(), TimingClock(), Start(), Continue(), Stop(), ActiveSensing(), Reset()),
	)
}

// TestEncodeParseRoundTripProperty checks that any sequence of complete
// messages parses back to the same events.
func TestEncodeParseRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300

	properties := gopter.NewProperties(parameters)

	properties.Property("parse(encode(events)) == events", prop.ForAll(
		func(events []Event) bool {
			got := NewParser().Parse(Encode(events...))
			if len(got) != len(events) {
				return false
			}
			for i := range events {
				if !got[i].Equal(events[i]) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genEvent()),
	))

	properties.Property("split point does not matter", prop.ForAll(
		func(events []Event, split int) bool {
			data := Encode(events...)
			if split > len(data) {
				split = len(data)
			}
			p := NewParser()
			got := append(p.Parse(data[:split]), p.Parse(data[split:])...)
			return len(got) == len(events)
		},
		gen.SliceOf(genEvent()),
		gen.IntRange(0, 64),
	))

	properties.TestingRun(t)
}
