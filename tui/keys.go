package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit  key.Binding
	Next  key.Binding
	Prev  key.Binding
	Note  key.Binding
	Mode  key.Binding
	Clear key.Binding
	Help  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Next:  key.NewBinding(key.WithKeys("tab", "j", "down"), key.WithHelp("tab", "next device")),
		Prev:  key.NewBinding(key.WithKeys("shift+tab", "k", "up"), key.WithHelp("shift+tab", "prev device")),
		Note:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "test note")),
		Mode:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "poly/mono")),
		Clear: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear log")),
		Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Note, k.Clear, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.Note, k.Mode},
		{k.Clear, k.Help, k.Quit},
	}
}
