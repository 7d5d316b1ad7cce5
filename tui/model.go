package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-mpe/debug"
	"go-mpe/midi"
	"go-mpe/mpe"
	"go-mpe/theme"
	"go-mpe/widgets"
)

const (
	logSize  = 14
	testNote = 60
)

type Model struct {
	Registry  *mpe.Registry
	DeviceMgr *midi.DeviceManager
	Theme     *theme.Theme

	// OnDevice is called for every hot-plug event before it is shown
	OnDevice func(midi.DeviceEvent)

	feed     *Feed
	keys     keyMap
	help     help.Model
	log      []string
	selected int
	sounding map[string]bool // test note held per device
	quitting bool
}

type DeviceEventMsg midi.DeviceEvent

func NewModel(registry *mpe.Registry, deviceMgr *midi.DeviceManager, feed *Feed, th *theme.Theme) Model {
	return Model{
		Registry:  registry,
		DeviceMgr: deviceMgr,
		Theme:     th,
		feed:      feed,
		keys:      newKeyMap(),
		help:      help.New(),
		sounding:  make(map[string]bool),
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForDevices(m.DeviceMgr),
		m.feed.Next(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.selected++
		case key.Matches(msg, m.keys.Prev):
			m.selected--
		case key.Matches(msg, m.keys.Note):
			m.toggleNote()
		case key.Matches(msg, m.keys.Mode):
			m.toggleMode()
		case key.Matches(msg, m.keys.Clear):
			m.log = nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		m.clampSelection()

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		if m.OnDevice != nil {
			m.OnDevice(event)
		}
		if event.Type == midi.DeviceDisconnected {
			delete(m.sounding, event.ID)
		}
		m.addLog(fmt.Sprintf("%s %s", event.ID, event.Type))
		m.clampSelection()
		return m, ListenForDevices(m.DeviceMgr)

	case RoutedMsg:
		e := mpe.Event(msg)
		if e.Kind == mpe.ZoneDefinedEvent || !isNoise(e.Msg) {
			m.addLog(fmt.Sprintf("%c in  %s", m.routedSymbol(e), e))
		}
		return m, m.feed.Next()

	case SentMsg:
		if !isNoise(msg.Event) {
			m.addLog(fmt.Sprintf("  out %s %s", msg.Device, msg.Event))
		}
		return m, m.feed.Next()
	}

	return m, nil
}

func (m Model) routedSymbol(e mpe.Event) rune {
	switch {
	case e.Kind == mpe.ZoneDefinedEvent:
		return m.Theme.Symbols.Defined
	case e.Zoned:
		return m.Theme.Symbols.Zoned
	}
	return m.Theme.Symbols.Passed
}

// isNoise hides clock and active sensing from the log
func isNoise(e midi.Event) bool {
	return e.Kind == midi.TimingClockMsg || e.Kind == midi.ActiveSensingMsg
}

func (m *Model) addLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > logSize {
		m.log = m.log[len(m.log)-logSize:]
	}
}

func (m *Model) clampSelection() {
	n := len(m.Registry.Devices())
	if n == 0 {
		m.selected = 0
		return
	}
	m.selected = (m.selected%n + n) % n
}

func (m *Model) current() (string, bool) {
	ids := m.Registry.Devices()
	if len(ids) == 0 {
		return "", false
	}
	return ids[m.selected%len(ids)], true
}

// outputManager picks the manager channel of the device's first output zone
func (m *Model) outputManager(id string) (mpe.ZoneSnapshot, bool) {
	snap, err := m.Registry.Snapshot(id)
	if err != nil || len(snap.Output) == 0 {
		return mpe.ZoneSnapshot{}, false
	}
	return snap.Output[0], true
}

func (m *Model) toggleNote() {
	id, ok := m.current()
	if !ok {
		return
	}
	zone, ok := m.outputManager(id)
	if !ok {
		m.addLog(id + ": no output zone")
		return
	}

	var err error
	if m.sounding[id] {
		err = m.Registry.SendNoteOff(id, zone.Manager, testNote, 64)
		delete(m.sounding, id)
	} else {
		err = m.Registry.SendNoteOn(id, zone.Manager, testNote, 100)
		m.sounding[id] = true
	}
	if err != nil {
		debug.Log("tui", "test note on %s: %v", id, err)
		m.addLog(fmt.Sprintf("%s: %v", id, err))
	}
}

func (m *Model) toggleMode() {
	id, ok := m.current()
	if !ok {
		return
	}
	zone, ok := m.outputManager(id)
	if !ok {
		return
	}
	mode := mpe.ModeMono
	if zone.Mode == mpe.ModeMono {
		mode = mpe.ModePoly
	}
	if err := m.Registry.ChangeMidiMode(id, zone.Manager, mode); err != nil {
		m.addLog(fmt.Sprintf("%s: %v", id, err))
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	selectedStyle := lipgloss.NewStyle().Foreground(m.Theme.Active()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	ids := m.Registry.Devices()

	header := fmt.Sprintf("go-mpe  %d devices", len(ids))
	if n := debug.Warnings(); n > 0 {
		header += warnStyle.Render(fmt.Sprintf("  %d warnings", n))
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(header))
	out.WriteString("\n\n")

	if len(ids) == 0 {
		out.WriteString(dimStyle.Render("  waiting for MIDI devices..."))
		out.WriteString("\n")
	}

	for i, id := range ids {
		snap, err := m.Registry.Snapshot(id)
		if err != nil {
			continue
		}
		name := "  " + id
		if i == m.selected {
			name = selectedStyle.Render("> " + id)
		}
		out.WriteString(name)
		out.WriteString("\n")
		out.WriteString(dimStyle.Render("      " + widgets.StripHeader()))
		out.WriteString("\n")
		out.WriteString(m.zoneLine("in ", snap.Input))
		out.WriteString(m.zoneLine("out", snap.Output))
		out.WriteString("\n")
	}

	for _, line := range m.log {
		out.WriteString("  ")
		out.WriteString(line)
		out.WriteString("\n")
	}

	if m.help.ShowAll {
		out.WriteString("\n")
		out.WriteString(m.legend())
	}

	out.WriteString("\n")
	out.WriteString(m.help.View(m.keys))
	return out.String()
}

func (m Model) legend() string {
	sym := m.Theme.Symbols
	items := []string{
		widgets.RenderLegendItem(widgets.Cell{Symbol: sym.Manager, Color: m.Theme.Accent()}, "Manager", "zone manager channel"),
		widgets.RenderLegendItem(widgets.Cell{Symbol: sym.Member, Color: m.Theme.Accent()}, "Member", "idle member channel"),
		widgets.RenderLegendItem(widgets.Cell{Symbol: sym.Playing, Color: m.Theme.Success()}, "Playing", "member with sounding notes"),
		widgets.RenderLegendItem(widgets.Cell{Symbol: sym.Outside, Color: m.Theme.Muted()}, "Outside", "not in a zone"),
	}
	return strings.Join(items, "\n") + "\n"
}

func (m Model) zoneLine(label string, zones []mpe.ZoneSnapshot) string {
	cells := widgets.ZoneCells(m.Theme, zones)
	return fmt.Sprintf("  %s %s  %s\n", label, widgets.RenderStrip(cells), widgets.ZoneSummary(zones))
}
