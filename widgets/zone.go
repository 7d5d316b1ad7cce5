package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-mpe/mpe"
	"go-mpe/theme"
)

// Cell is one channel of a 16-channel strip
type Cell struct {
	Symbol rune
	Color  lipgloss.Color
}

// RenderCell renders a single colored channel cell
func RenderCell(c Cell) string {
	style := lipgloss.NewStyle().Foreground(c.Color)
	return style.Render(string(c.Symbol))
}

// RenderStrip renders 16 cells with spacing, channel 0 on the left
func RenderStrip(cells [16]Cell) string {
	var out strings.Builder
	for i, c := range cells {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(RenderCell(c))
	}
	return out.String()
}

// StripHeader numbers the channels of a strip in hex
func StripHeader() string {
	var out strings.Builder
	for ch := 0; ch < 16; ch++ {
		if ch > 0 {
			out.WriteString(" ")
		}
		fmt.Fprintf(&out, "%X", ch)
	}
	return out.String()
}

// ZoneCells maps zone snapshots onto a channel strip
func ZoneCells(th *theme.Theme, zones []mpe.ZoneSnapshot) [16]Cell {
	var cells [16]Cell
	for i := range cells {
		cells[i] = Cell{Symbol: th.Symbols.Outside, Color: th.Muted()}
	}
	for _, z := range zones {
		color := th.Accent()
		if z.Manager == mpe.UpperManager {
			color = th.Cursor()
		}
		for _, ch := range z.Channels {
			switch {
			case ch.Manager:
				cells[ch.Channel] = Cell{Symbol: th.Symbols.Manager, Color: color}
			case len(ch.Notes) > 0:
				// brighter with more pressure
				cells[ch.Channel] = Cell{Symbol: th.Symbols.Playing, Color: th.Color(float64(ch.Pressure) / 127)}
			default:
				cells[ch.Channel] = Cell{Symbol: th.Symbols.Member, Color: color}
			}
		}
	}
	return cells
}

// ZoneSummary describes zones in one line, e.g. "lower 7 poly, upper 4 mono"
func ZoneSummary(zones []mpe.ZoneSnapshot) string {
	if len(zones) == 0 {
		return "no zones"
	}
	var parts []string
	for _, z := range zones {
		name := "lower"
		if z.Manager == mpe.UpperManager {
			name = "upper"
		}
		mode := "poly"
		if z.Mode == mpe.ModeMono {
			mode = "mono"
		}
		parts = append(parts, fmt.Sprintf("%s %d %s", name, z.Members, mode))
	}
	return strings.Join(parts, ", ")
}

// RenderLegendItem renders a single legend item: "● Name - description"
func RenderLegendItem(c Cell, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderCell(c), name, desc)
}
