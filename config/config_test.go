package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatal(err)
	}
	if time.Duration(cfg.PollInterval) != time.Second || len(cfg.Exclude) == 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.PollInterval = Duration(250 * time.Millisecond)
	cfg.AddDevice(DeviceConfig{
		PortName:    "Seaboard",
		AutoConnect: true,
		Zones:       []ZoneConfig{{Manager: 0, Members: 7}, {Manager: 15, Members: 7, Mode: ModeMono}},
	})
	if err := cfg.SaveFile(path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"250ms"`) {
		t.Fatalf("poll interval not written as duration string: %s", data)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	dev := got.FindDevice("Seaboard")
	if dev == nil || len(dev.Zones) != 2 || dev.Zones[1].Mode != ModeMono {
		t.Fatalf("device not restored: %+v", dev)
	}
	if time.Duration(got.PollInterval) != 250*time.Millisecond {
		t.Fatalf("poll interval = %v", time.Duration(got.PollInterval))
	}
	if len(got.AutoConnectDevices()) != 1 {
		t.Fatal("auto connect device missing")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		zones []ZoneConfig
		want  string
	}{
		{"bad manager", []ZoneConfig{{Manager: 3, Members: 2}}, "must be 0 or 15"},
		{"too many members", []ZoneConfig{{Manager: 0, Members: 16}}, "out of range"},
		{"overlap", []ZoneConfig{{Manager: 0, Members: 8}, {Manager: 15, Members: 8}}, "exceed 14"},
		{"bad mode", []ZoneConfig{{Manager: 0, Members: 2, Mode: "omni"}}, "unknown zone mode"},
		{"ok", []ZoneConfig{{Manager: 0, Members: 7}, {Manager: 15, Members: 7}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Devices = []DeviceConfig{{PortName: "dev", Zones: tt.zones}}
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestValidateSynthNeedsSoundFont(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Synth.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("synth without soundFont accepted")
	}
}

func TestLoadRejectsInvalidZones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"devices":[{"portName":"x","zones":[{"manager":4,"members":1}]}]}`), 0644)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("invalid zone accepted")
	}
}

func TestValidateSynthVolume(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default volume rejected: %v", err)
	}
	cfg.Synth.Volume = 1.5
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "volume") {
		t.Fatalf("volume 1.5 accepted: %v", err)
	}
}
