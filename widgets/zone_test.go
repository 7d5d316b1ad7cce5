package widgets

import (
	"testing"

	"go-mpe/mpe"
	"go-mpe/theme"
)

func TestZoneCells(t *testing.T) {
	th := theme.New(theme.Plasma())
	zones := []mpe.ZoneSnapshot{{
		Manager: 0,
		Members: 2,
		Channels: []mpe.ChannelSnapshot{
			{Channel: 0, Manager: true},
			{Channel: 1, Notes: []uint8{60}},
			{Channel: 2},
		},
	}}

	cells := ZoneCells(th, zones)
	want := []rune{th.Symbols.Manager, th.Symbols.Playing, th.Symbols.Member, th.Symbols.Outside}
	for ch, sym := range want {
		if cells[ch].Symbol != sym {
			t.Errorf("channel %d symbol %q, want %q", ch, cells[ch].Symbol, sym)
		}
	}
	if cells[15].Symbol != th.Symbols.Outside {
		t.Errorf("channel 15 symbol %q", cells[15].Symbol)
	}
}

func TestZoneSummary(t *testing.T) {
	got := ZoneSummary([]mpe.ZoneSnapshot{
		{Manager: 0, Members: 7, Mode: mpe.ModePoly},
		{Manager: 15, Members: 4, Mode: mpe.ModeMono},
	})
	if got != "lower 7 poly, upper 4 mono" {
		t.Fatalf("got %q", got)
	}
	if ZoneSummary(nil) != "no zones" {
		t.Fatal("empty summary")
	}
}

func TestPlayingCellFollowsPressure(t *testing.T) {
	th := theme.New(theme.Plasma())
	zones := []mpe.ZoneSnapshot{{
		Manager: 0,
		Members: 2,
		Channels: []mpe.ChannelSnapshot{
			{Channel: 0, Manager: true},
			{Channel: 1, Notes: []uint8{60}, Pressure: 0},
			{Channel: 2, Notes: []uint8{64}, Pressure: 127},
		},
	}}

	cells := ZoneCells(th, zones)
	if cells[1].Color != th.Color(0) || cells[2].Color != th.Color(1) {
		t.Fatalf("colors %v %v", cells[1].Color, cells[2].Color)
	}
	if cells[1].Color == cells[2].Color {
		t.Fatal("pressure does not change the cell color")
	}
}
