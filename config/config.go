package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
)

// Mode names accepted in zone configs
const (
	ModePoly = "poly"
	ModeMono = "mono"
)

// ZoneConfig describes one MPE zone to set up on an output device
type ZoneConfig struct {
	Manager int    `json:"manager"` // 0 = lower zone, 15 = upper zone
	Members int    `json:"members"`
	Mode    string `json:"mode,omitempty"` // poly (default) or mono
}

// DeviceConfig defines a saved device configuration
type DeviceConfig struct {
	PortName    string       `json:"portName"`
	AutoConnect bool         `json:"autoConnect"`
	Zones       []ZoneConfig `json:"zones,omitempty"` // output zones sent on connect
}

// SynthConfig enables the built-in SoundFont synth as an output device
type SynthConfig struct {
	Enabled    bool         `json:"enabled"`
	Name       string       `json:"name,omitempty"` // device name the synth is reachable as
	SoundFont  string       `json:"soundFont,omitempty"`
	SampleRate int          `json:"sampleRate,omitempty"`
	Volume     float64      `json:"volume"` // 0 to 1
	Zones      []ZoneConfig `json:"zones,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Devices      []DeviceConfig `json:"devices,omitempty"`
	Exclude      []string       `json:"exclude,omitempty"` // port name patterns to ignore
	PollInterval Duration       `json:"pollInterval,omitempty"`
	Synth        SynthConfig    `json:"synth,omitempty"`
	LogPath      string         `json:"logPath,omitempty"`
	Palette      string         `json:"palette,omitempty"` // GIMP .gpl file for the monitor
}

// Duration is a time.Duration stored as a string like "500ms"
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Exclude:      []string{"midi through*"},
		PollInterval: Duration(time.Second),
		Synth: SynthConfig{
			Name:       "go-mpe synth",
			SampleRate: 44100,
			Volume:     0.8,
			Zones: []ZoneConfig{
				{Manager: 0, Members: 15, Mode: ModePoly},
			},
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-mpe"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads and validates the config at path. A missing file yields defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fault.Wrap(err, fmsg.With("read config"))
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err, fmsg.With("parse "+path))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fault.Wrap(err, fmsg.With("invalid config "+path))
	}
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks zone definitions before anything is attached
func (c *Config) Validate() error {
	var errs []error
	for _, d := range c.Devices {
		if d.PortName == "" {
			errs = append(errs, errors.New("device without portName"))
		}
		errs = append(errs, validateZones(d.PortName, d.Zones)...)
	}
	if c.Synth.Enabled {
		if c.Synth.SoundFont == "" {
			errs = append(errs, errors.New("synth enabled without soundFont"))
		}
		errs = append(errs, validateZones("synth", c.Synth.Zones)...)
	}
	if c.Synth.Volume < 0 || c.Synth.Volume > 1 {
		errs = append(errs, fmt.Errorf("synth volume %g out of range 0-1", c.Synth.Volume))
	}
	if c.PollInterval < 0 {
		errs = append(errs, errors.New("negative pollInterval"))
	}
	return errors.Join(errs...)
}

func validateZones(owner string, zones []ZoneConfig) []error {
	var errs []error
	lower, upper := 0, 0
	for _, z := range zones {
		switch z.Manager {
		case 0:
			lower = z.Members
		case 15:
			upper = z.Members
		default:
			errs = append(errs, fmt.Errorf("%s: zone manager %d must be 0 or 15", owner, z.Manager))
		}
		if z.Members < 0 || z.Members > 15 {
			errs = append(errs, fmt.Errorf("%s: zone members %d out of range 0-15", owner, z.Members))
		}
		if z.Mode != "" && z.Mode != ModePoly && z.Mode != ModeMono {
			errs = append(errs, fmt.Errorf("%s: unknown zone mode %q", owner, z.Mode))
		}
	}
	if lower > 0 && upper > 0 && lower+upper > 14 {
		errs = append(errs, fmt.Errorf("%s: lower %d + upper %d members exceed 14", owner, lower, upper))
	}
	return errs
}

// FindDevice finds a device config by port name
func (c *Config) FindDevice(portName string) *DeviceConfig {
	for i := range c.Devices {
		if c.Devices[i].PortName == portName {
			return &c.Devices[i]
		}
	}
	return nil
}

// AddDevice adds or updates a device config
func (c *Config) AddDevice(dev DeviceConfig) {
	for i := range c.Devices {
		if c.Devices[i].PortName == dev.PortName {
			c.Devices[i] = dev
			return
		}
	}
	c.Devices = append(c.Devices, dev)
}

// AutoConnectDevices returns devices with autoConnect enabled
func (c *Config) AutoConnectDevices() []DeviceConfig {
	var result []DeviceConfig
	for _, dev := range c.Devices {
		if dev.AutoConnect {
			result = append(result, dev)
		}
	}
	return result
}
