package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-mpe/debug"
	"go-mpe/midi"
	"go-mpe/mpe"
)

// RoutedMsg is an event delivered by input routing
type RoutedMsg mpe.Event

// SentMsg is a message on its way out to a device
type SentMsg struct {
	Device string
	Event  midi.Event
}

// Feed carries routed and sent messages from MIDI goroutines into the
// program. When the buffer is full new messages are dropped.
type Feed struct {
	msgs chan tea.Msg
}

func NewFeed(size int) *Feed {
	return &Feed{msgs: make(chan tea.Msg, size)}
}

// Handle is an mpe.Handler
func (f *Feed) Handle(e mpe.Event) {
	f.push(RoutedMsg(e))
}

// Tap is a midi.TapFunc
func (f *Feed) Tap(device string, msg gomidi.Message) {
	for _, e := range midi.Decode(msg) {
		f.push(SentMsg{Device: device, Event: e})
	}
}

func (f *Feed) push(msg tea.Msg) {
	select {
	case f.msgs <- msg:
	default:
		debug.LogEvery(64, "tui", "feed full, message dropped")
	}
}

// Next waits for the next message
func (f *Feed) Next() tea.Cmd {
	return func() tea.Msg {
		return <-f.msgs
	}
}
