package mpe

import (
	"sync"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-mpe/midi"
)

// recorder is a midi.Transport that keeps everything sent to it
type recorder struct {
	mu   sync.Mutex
	sent []midi.Event
	err  error
}

func (r *recorder) Send(device string, msg gomidi.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, midi.Decode(msg)...)
	return r.err
}

func (r *recorder) take() []midi.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sent
	r.sent = nil
	return out
}

func expectEvents(t *testing.T, got []midi.Event, want ...midi.Event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("event %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func channelsOf(z *Zone) []uint8 {
	var out []uint8
	for _, m := range z.Channels() {
		out = append(out, m.Channel)
	}
	return out
}

// newLowerZone returns a router with a lower zone of n members and no sent messages
func newLowerZone(t *testing.T, n int) (*OutputRouter, *recorder) {
	t.Helper()
	rec := &recorder{}
	r := NewOutputRouter("synth", rec)
	if err := r.SetupZone(LowerManager, n); err != nil {
		t.Fatalf("SetupZone: %v", err)
	}
	rec.take()
	return r, rec
}
