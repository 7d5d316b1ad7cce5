package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-mpe/midi"
	"go-mpe/mpe"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "decode":
		decode(os.Args[2:])
	case "monitor":
		if len(os.Args) < 3 {
			usage()
			return
		}
		monitor(os.Args[2])
	case "mcm":
		if len(os.Args) < 5 {
			usage()
			return
		}
		sendMCM(os.Args[2], os.Args[3], os.Args[4])
	case "demo":
		if len(os.Args) < 3 {
			usage()
			return
		}
		demo(os.Args[2])
	case "poll":
		pollDevices()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI/MPE Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                          - List all MIDI ports")
	fmt.Println("  decode <hex>...               - Parse bytes, e.g. decode 90 3C 40 80 3C 40")
	fmt.Println("  monitor <port>                - Print routed input from a port")
	fmt.Println("  mcm <port> <manager> <count>  - Send an MPE Configuration Message")
	fmt.Println("  demo <port>                   - Play a bent chord through a lower zone")
	fmt.Println("  poll                          - Poll for device changes")
}

func listPorts() {
	fmt.Println("(waiting up to 3 seconds...)")
	ins, outs := midi.ListPorts()
	if ins == nil && outs == nil {
		fmt.Println("\nNo ports, or the driver timed out.")
		fmt.Println("On macOS: sudo killall coreaudiod midiserver")
		return
	}

	fmt.Println("=== MIDI Input Ports ===")
	for i, name := range ins {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range outs {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

// decode parses hex bytes and shows both the raw events and what input
// routing makes of them
func decode(args []string) {
	data, err := hex.DecodeString(strings.Join(args, ""))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	parser := midi.NewParser()
	var routed []mpe.Event
	reg := mpe.NewRegistry(midi.NewMux(nil), mpe.WithHandler(func(e mpe.Event) {
		routed = append(routed, e)
	}))
	for ev := range parser.Events(data) {
		routed = routed[:0]
		reg.ReceiveEvent("decode", ev)
		fmt.Printf("  %-40s", ev)
		for _, e := range routed {
			fmt.Printf(" -> %s", e)
		}
		fmt.Println()
	}
	if n := parser.Dropped(); n > 0 {
		fmt.Printf("Dropped %d bytes\n", n)
	}
}

func monitor(port string) {
	reg := mpe.NewRegistry(midi.NewPortTransport(nil), mpe.WithHandler(func(e mpe.Event) {
		if e.Msg.Kind == midi.TimingClockMsg || e.Msg.Kind == midi.ActiveSensingMsg {
			return
		}
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), e)
	}))

	stop, err := midi.ListenPort(port, func(data []byte) {
		reg.Receive(port, data)
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer stop()

	fmt.Printf("Listening on %s. Ctrl+C to exit.\n", port)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	<-ctx.Done()
}

func sendMCM(port, managerArg, countArg string) {
	manager, err := strconv.Atoi(managerArg)
	if err != nil {
		fmt.Printf("Bad manager channel: %v\n", err)
		return
	}
	count, err := strconv.Atoi(countArg)
	if err != nil {
		fmt.Printf("Bad member count: %v\n", err)
		return
	}

	reg := mpe.NewRegistry(midi.NewPortTransport(nil))
	if err := reg.SetupZone(port, uint8(manager), count); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	snap, _ := reg.Snapshot(port)
	for _, z := range snap.Output {
		fmt.Printf("Zone manager=%d members=%d\n", z.Manager, z.Members)
	}
}

func demo(port string) {
	reg := mpe.NewRegistry(midi.NewPortTransport(nil))
	if err := reg.SetupZone(port, mpe.LowerManager, 3); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	chord := []uint8{60, 64, 67}
	for _, note := range chord {
		if err := reg.SendNoteOn(port, mpe.LowerManager, note, 100); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		time.Sleep(150 * time.Millisecond)
	}

	// Each note sits on its own member channel, so bending one leaves the others alone
	snap, _ := reg.Snapshot(port)
	for _, z := range snap.Output {
		for i, ch := range z.Channels {
			if ch.Manager || len(ch.Notes) == 0 {
				continue
			}
			bend := uint16(int(midi.PitchCenter) + (i-2)*1024)
			fmt.Printf("  channel %d note %v bend %d\n", ch.Channel, ch.Notes, bend)
			reg.SendPitchBend(port, ch.Channel, bend)
		}
	}
	time.Sleep(time.Second)

	for _, note := range chord {
		reg.SendNoteOff(port, mpe.LowerManager, note, 64)
	}
	fmt.Println("Done!")
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect devices to test. Ctrl+C to exit.")

	dm := midi.NewDeviceManager(nil, midi.WithPollRate(2*time.Second))
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	go dm.Run(ctx)

	for ev := range dm.Events() {
		fmt.Printf("[%s] %s %s (in=%v out=%v)\n", time.Now().Format("15:04:05"), ev.ID, ev.Type, ev.Input, ev.Output)
	}
}
