package synth

import (
	"encoding/binary"
	"testing"

	"go-mpe/midi"
)

type call struct {
	ch, cmd, d1, d2 int32
}

type fakeSynth struct {
	calls   []call
	offs    []bool
	level   float32
	renders int
}

func (f *fakeSynth) ProcessMidiMessage(ch, cmd, d1, d2 int32) {
	f.calls = append(f.calls, call{ch, cmd, d1, d2})
}

func (f *fakeSynth) NoteOffAll(immediate bool) { f.offs = append(f.offs, immediate) }

func (f *fakeSynth) Render(left, right []float32) {
	f.renders++
	for i := range left {
		left[i] = f.level
		right[i] = -f.level
	}
}

func TestSinkDispatchesMessages(t *testing.T) {
	fs := &fakeSynth{}
	s := NewSink(fs)

	for _, e := range []midi.Event{
		midi.NoteOn(1, 60, 100),
		midi.ControlChange(1, 74, 20),
		midi.PitchBend(1, 8192+5),
		midi.ProgramChange(2, 7),
		midi.TimingClock(),
		midi.Reset(),
	} {
		if err := s.Send("synth", e.Message()); err != nil {
			t.Fatal(err)
		}
	}

	want := []call{
		{1, 0x90, 60, 100},
		{1, 0xb0, 74, 20},
		{1, 0xe0, 5, 64},
		{2, 0xc0, 7, 0},
	}
	if len(fs.calls) != len(want) {
		t.Fatalf("got %v, want %v", fs.calls, want)
	}
	for i := range want {
		if fs.calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, fs.calls[i], want[i])
		}
	}
	if len(fs.offs) != 1 || !fs.offs[0] {
		t.Fatalf("reset did not silence immediately: %v", fs.offs)
	}
	if s.Processed() != 5 {
		t.Fatalf("Processed() = %d, want 5", s.Processed())
	}
}

func TestStreamRendersStereo16(t *testing.T) {
	fs := &fakeSynth{level: 2} // clamped to full scale
	st := NewSink(fs).Stream()

	buf := make([]byte, 4*8+2)
	n, err := st.Read(buf)
	if err != nil || n != 32 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	l := int16(binary.LittleEndian.Uint16(buf[0:]))
	r := int16(binary.LittleEndian.Uint16(buf[2:]))
	if l != 32767 || r != -32767 {
		t.Fatalf("sample = %d/%d", l, r)
	}
	if st.Samples() != 8 {
		t.Fatalf("Samples() = %d", st.Samples())
	}

	st.Stop()
	fs.renders = 0
	n, _ = st.Read(buf)
	if n != len(buf) || fs.renders != 0 || buf[0] != 0 {
		t.Fatal("stopped stream still renders")
	}
}

func TestLoadMissingSoundFont(t *testing.T) {
	if _, err := Load("/nonexistent/font.sf2", 0); err == nil {
		t.Fatal("expected an error")
	}
}
