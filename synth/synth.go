// Package synth renders routed MIDI through a SoundFont synthesizer so a
// zone layout can be heard without external hardware.
package synth

import (
	"bytes"
	"os"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"
	"github.com/sinshu/go-meltysynth/meltysynth"

	"go-mpe/debug"
	"go-mpe/midi"
)

// DefaultSampleRate is used when the configuration leaves it unset
const DefaultSampleRate = 44100

// Processor is the part of a synthesizer the sink drives
type Processor interface {
	ProcessMidiMessage(channel int32, command int32, data1 int32, data2 int32)
	NoteOffAll(immediate bool)
	Render(left []float32, right []float32)
}

// Sink is a midi.Transport that plays everything sent to it on a Processor.
// Rendering and message handling share one lock, so Send may be called from
// any goroutine while the audio device reads the Stream.
type Sink struct {
	mu    sync.Mutex
	synth Processor
	count int
}

func NewSink(p Processor) *Sink {
	return &Sink{synth: p}
}

// Load reads a SoundFont and returns a sink backed by a meltysynth synthesizer
func Load(path string, sampleRate int) (*Sink, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("read soundfont"))
	}
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("parse soundfont "+path))
	}
	settings := meltysynth.NewSynthesizerSettings(int32(sampleRate))
	synth, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("create synthesizer"))
	}
	debug.Log("synth", "loaded %s at %d Hz", path, sampleRate)
	return NewSink(synth), nil
}

// Send implements midi.Transport; the device name is ignored
func (s *Sink) Send(device string, msg gomidi.Message) error {
	events := midi.Decode(msg)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		s.process(e)
	}
	return nil
}

func (s *Sink) process(e midi.Event) {
	ch := int32(e.Channel)
	switch e.Kind {
	case midi.NoteOnMsg:
		s.synth.ProcessMidiMessage(ch, 0x90, int32(e.Data1), int32(e.Data2))
	case midi.NoteOffMsg:
		s.synth.ProcessMidiMessage(ch, 0x80, int32(e.Data1), int32(e.Data2))
	case midi.PolyAftertouchMsg:
		s.synth.ProcessMidiMessage(ch, 0xa0, int32(e.Data1), int32(e.Data2))
	case midi.ControlChangeMsg:
		s.synth.ProcessMidiMessage(ch, 0xb0, int32(e.Data1), int32(e.Data2))
	case midi.ProgramChangeMsg:
		s.synth.ProcessMidiMessage(ch, 0xc0, int32(e.Data1), 0)
	case midi.ChannelAftertouchMsg:
		s.synth.ProcessMidiMessage(ch, 0xd0, int32(e.Data1), 0)
	case midi.PitchBendMsg:
		s.synth.ProcessMidiMessage(ch, 0xe0, int32(e.Value&0x7f), int32(e.Value>>7))
	case midi.StopMsg, midi.ResetMsg:
		s.synth.NoteOffAll(e.Kind == midi.ResetMsg)
	default:
		return
	}
	s.count++
}

// Processed returns how many messages reached the synthesizer
func (s *Sink) Processed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Stream returns an io.Reader producing 16-bit little-endian stereo
func (s *Sink) Stream() *Stream {
	return &Stream{sink: s}
}

func (s *Sink) render(left, right []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synth.Render(left, right)
}
