package mpe

import (
	"fmt"

	"go-mpe/midi"
)

// EventKind tells a handler what an Event carries
type EventKind uint8

const (
	// MessageEvent carries a received MIDI message in Msg
	MessageEvent EventKind = iota
	// ZoneDefinedEvent reports a zone (re)configured by an MPE Configuration Message
	ZoneDefinedEvent
)

// Event is what input routing hands to subscribers.
//
// For a MessageEvent inside a zone, Msg.Channel is the zone's manager channel
// and Zoned is true; consumers never see member channel numbers. Messages
// outside any zone arrive unchanged with Zoned false.
type Event struct {
	Device string
	Kind   EventKind
	Msg    midi.Event
	Zoned  bool

	// ZoneDefinedEvent only
	Manager uint8
	Members int
}

// Handler receives routed events
type Handler func(Event)

func (e Event) String() string {
	if e.Kind == ZoneDefinedEvent {
		return fmt.Sprintf("%s zone manager=%d members=%d", e.Device, e.Manager, e.Members)
	}
	if e.Zoned {
		return fmt.Sprintf("%s [mpe] %s", e.Device, e.Msg)
	}
	return fmt.Sprintf("%s %s", e.Device, e.Msg)
}
