package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-mpe/config"
	"go-mpe/debug"
	"go-mpe/midi"
	"go-mpe/mpe"
	"go-mpe/speaker"
	"go-mpe/synth"
	"go-mpe/theme"
	"go-mpe/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/go-mpe/config.json)")
	debugLog := flag.Bool("debug", false, "write a debug log to ~/.config/go-mpe/debug.log")
	noSynth := flag.Bool("no-synth", false, "do not start the built-in synth")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if *debugLog || cfg.LogPath != "" {
		if err := debug.Enable(cfg.LogPath); err != nil {
			fmt.Printf("Warning: debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	th := theme.New(theme.LoadOrDefault(cfg.Palette))

	// Outgoing messages go to driver ports unless a device name is routed
	// elsewhere (the synth); every message is also shown in the monitor.
	ports := midi.NewPortTransport(nil)
	mux := midi.NewMux(ports)
	feed := tui.NewFeed(256)
	registry := mpe.NewRegistry(midi.Tap(mux, feed.Tap), mpe.WithHandler(feed.Handle))

	if cfg.Synth.Enabled && !*noSynth {
		spk, err := startSynth(cfg.Synth, mux, registry)
		if err != nil {
			fmt.Printf("Warning: synth disabled: %v\n", err)
		} else {
			defer spk.Close()
		}
	}

	// Create MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager(registry.Receive,
		midi.WithExclude(cfg.Exclude...),
		midi.WithPollRate(time.Duration(cfg.PollInterval)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deviceMgr.Run(ctx)

	fmt.Println("go-mpe")
	for _, dev := range cfg.AutoConnectDevices() {
		fmt.Printf("  %s: %d zones on connect\n", dev.PortName, len(dev.Zones))
	}

	conn := &connector{cfg: cfg, registry: registry, ports: ports}

	m := tui.NewModel(registry, deviceMgr, feed, th)
	m.OnDevice = conn.handle
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// startSynth loads the SoundFont, starts audio and makes the synth
// reachable as an output device with its configured zones
func startSynth(cfg config.SynthConfig, mux *midi.Mux, registry *mpe.Registry) (*speaker.Speaker, error) {
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = synth.DefaultSampleRate
	}

	sink, err := synth.Load(cfg.SoundFont, rate)
	if err != nil {
		return nil, err
	}
	spk, err := speaker.Open(sink.Stream(), rate)
	if err != nil {
		return nil, err
	}
	spk.SetVolume(cfg.Volume)

	mux.Handle(cfg.Name, sink)
	registry.Attach(cfg.Name)
	if err := applyZones(registry, cfg.Name, cfg.Zones); err != nil {
		debug.Log("synth", "zones: %v", err)
	}
	return spk, nil
}
