package midi

import (
	"testing"
)

func expect(t *testing.T, got []Event, want ...Event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("event %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestParseMessages(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []Event
	}{
		{"note on", []byte{0x92, 60, 100}, []Event{NoteOn(2, 60, 100)}},
		{"note on velocity 0 is note off", []byte{0x90, 60, 0}, []Event{NoteOff(0, 60, 0)}},
		{"note off", []byte{0x8f, 61, 64}, []Event{NoteOff(15, 61, 64)}},
		{"poly aftertouch", []byte{0xa1, 60, 33}, []Event{PolyAftertouch(1, 60, 33)}},
		{"control change", []byte{0xb3, 74, 12}, []Event{ControlChange(3, 74, 12)}},
		{"program change", []byte{0xc4, 9}, []Event{ProgramChange(4, 9)}},
		{"channel aftertouch", []byte{0xd5, 90}, []Event{ChannelAftertouch(5, 90)}},
		{"pitch bend center", []byte{0xe6, 0x00, 0x40}, []Event{PitchBend(6, 8192)}},
		{"pitch bend max", []byte{0xe6, 0x7f, 0x7f}, []Event{PitchBend(6, 16383)}},
		{"time code", []byte{0xf1, 0x23}, []Event{TimeCode(0x23)}},
		{"song position", []byte{0xf2, 0x01, 0x02}, []Event{SongPosition(0x101)}},
		{"song select", []byte{0xf3, 5}, []Event{SongSelect(5)}},
		{"tune request", []byte{0xf6}, []Event{TuneRequest()}},
		{"realtime", []byte{0xf8, 0xfa, 0xfb, 0xfc, 0xfe, 0xff},
			[]Event{TimingClock(), Start(), Continue(), Stop(), ActiveSensing(), Reset()}},
		{"sysex", []byte{0xf0, 0x7e, 0x00, 0x09, 0xf7}, []Event{SysEx([]byte{0xf0, 0x7e, 0x00, 0x09})}},
		{"empty sysex", []byte{0xf0, 0xf7}, []Event{SysEx(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expect(t, NewParser().Parse(tt.data), tt.want...)
		})
	}
}

func TestParseEndToEndNoteOnOff(t *testing.T) {
	got := NewParser().Parse([]byte{0x90, 0x3c, 0x40, 0x80, 0x3c, 0x40})
	expect(t, got, NoteOn(0, 60, 64), NoteOff(0, 60, 64))
}

func TestParseRunningStatus(t *testing.T) {
	p := NewParser()
	got := p.Parse([]byte{0x90, 60, 100, 62, 100, 64, 0})
	expect(t, got, NoteOn(0, 60, 100), NoteOn(0, 62, 100), NoteOff(0, 64, 0))

	got = p.Parse([]byte{0xc2, 1, 2, 3})
	expect(t, got, ProgramChange(2, 1), ProgramChange(2, 2), ProgramChange(2, 3))

	got = p.Parse([]byte{0xd0, 10, 20})
	expect(t, got, ChannelAftertouch(0, 10), ChannelAftertouch(0, 20))
}

func TestParseRunningStatusSurvivesRealtime(t *testing.T) {
	got := NewParser().Parse([]byte{0xb0, 1, 10, 0xf8, 1, 0xfe, 20})
	expect(t, got, ControlChange(0, 1, 10), TimingClock(), ActiveSensing(), ControlChange(0, 1, 20))
}

func TestParseSystemCommonCancelsRunningStatus(t *testing.T) {
	p := NewParser()
	got := p.Parse([]byte{0x90, 60, 100, 0xf6, 62, 100})
	expect(t, got, NoteOn(0, 60, 100), TuneRequest())
	if p.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", p.Dropped())
	}
}

func TestParseMessageSplitAcrossCalls(t *testing.T) {
	p := NewParser()
	if got := p.Parse([]byte{0xe1, 0x00}); len(got) != 0 {
		t.Fatalf("partial message emitted %v", got)
	}
	expect(t, p.Parse([]byte{0x40}), PitchBend(1, 8192))

	p.Parse([]byte{0xf0, 0x01, 0x02})
	expect(t, p.Parse([]byte{0x03, 0xf7}), SysEx([]byte{0x01, 0x02, 0x03}))
}

func TestParseResyncOnStatusMidMessage(t *testing.T) {
	p := NewParser()
	got := p.Parse([]byte{0x90, 60, 0xb0, 7, 100})
	expect(t, got, ControlChange(0, 7, 100))
	if p.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", p.Dropped())
	}
}

func TestParseSysExCutByStatus(t *testing.T) {
	p := NewParser()
	got := p.Parse([]byte{0xf0, 1, 2, 0x91, 60, 1})
	expect(t, got, NoteOn(1, 60, 1))
}

func TestParseRealtimeInsideSysEx(t *testing.T) {
	got := NewParser().Parse([]byte{0xf0, 1, 0xf8, 2, 0xf7})
	expect(t, got, TimingClock(), SysEx([]byte{1, 2}))
}

func TestParseStrayBytesDropped(t *testing.T) {
	p := NewParser()
	got := p.Parse([]byte{0x10, 0x20, 0xf7, 0xf4, 0xf9, 0x90, 1, 2})
	expect(t, got, NoteOn(0, 1, 2))
	if p.Dropped() != 4 {
		t.Fatalf("dropped = %d, want 4", p.Dropped())
	}
}

func TestParseSysExLimit(t *testing.T) {
	p := NewParser()
	data := make([]byte, 0, MaxSysExSize+8)
	data = append(data, 0xf0)
	for len(data) < MaxSysExSize+4 {
		data = append(data, 0x01)
	}
	data = append(data, 0xf7, 0xf8)

	got := p.Parse(data)
	expect(t, got, TimingClock())
}

func TestParseReset(t *testing.T) {
	p := NewParser()
	p.Parse([]byte{0x90, 60})
	p.Reset()
	if got := p.Parse([]byte{100}); len(got) != 0 {
		t.Fatalf("reset parser completed a message: %v", got)
	}
}

func TestEventsLazy(t *testing.T) {
	p := NewParser()
	seq := p.Events([]byte{0xc0, 1, 2, 3})

	var got []Event
	for ev := range seq {
		got = append(got, ev)
		if len(got) == 2 {
			break
		}
	}
	expect(t, got, ProgramChange(0, 1), ProgramChange(0, 2))

	got = got[:0]
	for ev := range seq {
		got = append(got, ev)
	}
	expect(t, got, ProgramChange(0, 3))
}
