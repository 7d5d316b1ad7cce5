package midi

import (
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-mpe/debug"
)

// portTimeout bounds a driver port query (CoreMIDI can hang)
const portTimeout = 3 * time.Second

// ListPorts returns the names of the driver's input and output ports.
// A driver that does not answer in time yields no ports for this scan.
func ListPorts() (inputs, outputs []string) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	select {
	case result := <-ch:
		for _, p := range result.inPorts {
			inputs = append(inputs, p.String())
		}
		for _, p := range result.outPorts {
			outputs = append(outputs, p.String())
		}
	case <-time.After(portTimeout):
		// User needs to run: sudo killall coreaudiod midiserver
		debug.Log("device", "port scan timed out")
	}
	return inputs, outputs
}

// ListenPort opens input port name and forwards every message as raw bytes,
// SysEx included
func ListenPort(name string, sink func(data []byte)) (func(), error) {
	var in drivers.In
	for _, p := range gomidi.GetInPorts() {
		if p.String() == name {
			in = p
			break
		}
	}
	if in == nil {
		return nil, fault.New("no input port "+name, ftag.With(ftag.NotFound))
	}

	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		sink([]byte(msg))
	}, gomidi.UseSysEx(), gomidi.HandleError(func(err error) {
		debug.Log("device", "input %s: %v", name, err)
	}))
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("open input "+name))
	}
	return stop, nil
}
