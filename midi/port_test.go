package midi

import (
	"errors"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestPortTransportOpensOnce(t *testing.T) {
	opened := 0
	var sent []gomidi.Message
	pt := NewPortTransport(func(name string) (SendFunc, error) {
		opened++
		return func(msg gomidi.Message) error {
			sent = append(sent, msg)
			return nil
		}, nil
	})

	for i := 0; i < 3; i++ {
		if err := pt.Send("synth", NoteOn(0, 60, 1).Message()); err != nil {
			t.Fatal(err)
		}
	}
	if opened != 1 || len(sent) != 3 {
		t.Fatalf("opened %d times, sent %d", opened, len(sent))
	}

	pt.Forget("synth")
	pt.Send("synth", Stop().Message())
	if opened != 2 {
		t.Fatalf("Forget did not drop the sender, opened %d", opened)
	}
}

func TestPortTransportErrors(t *testing.T) {
	openErr := errors.New("no such port")
	pt := NewPortTransport(func(name string) (SendFunc, error) {
		if name == "missing" {
			return nil, openErr
		}
		return func(gomidi.Message) error { return errors.New("write failed") }, nil
	})

	if err := pt.Send("missing", Start().Message()); !errors.Is(err, openErr) {
		t.Fatalf("err = %v", err)
	}
	if err := pt.Send("broken", Start().Message()); err == nil {
		t.Fatal("write error swallowed")
	}
}

type countingTransport struct{ n int }

func (c *countingTransport) Send(string, gomidi.Message) error {
	c.n++
	return nil
}

func TestMuxAndTap(t *testing.T) {
	synth, ports := &countingTransport{}, &countingTransport{}
	mux := NewMux(ports)
	mux.Handle("synth", synth)

	var tapped []string
	tr := Tap(mux, func(device string, msg gomidi.Message) { tapped = append(tapped, device) })

	tr.Send("synth", Start().Message())
	tr.Send("Seaboard", Start().Message())
	tr.Send("synth", Stop().Message())

	if synth.n != 2 || ports.n != 1 || len(tapped) != 3 {
		t.Fatalf("synth=%d ports=%d tapped=%v", synth.n, ports.n, tapped)
	}

	if err := NewMux(nil).Send("x", Start().Message()); err == nil {
		t.Fatal("mux without fallback accepted a message")
	}
}
