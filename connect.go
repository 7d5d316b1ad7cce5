package main

import (
	"errors"

	"go-mpe/config"
	"go-mpe/debug"
	"go-mpe/midi"
	"go-mpe/mpe"
)

// connector keeps the registry in step with hot-plugged devices
type connector struct {
	cfg      *config.Config
	registry *mpe.Registry
	ports    *midi.PortTransport
}

func (c *connector) handle(ev midi.DeviceEvent) {
	switch ev.Type {
	case midi.DeviceConnected:
		c.registry.Attach(ev.ID)
		dev := c.cfg.FindDevice(ev.ID)
		if dev == nil || !dev.AutoConnect || !ev.Output {
			return
		}
		if err := applyZones(c.registry, ev.ID, dev.Zones); err != nil {
			debug.Log("device", "%s zones: %v", ev.ID, err)
		}

	case midi.DeviceDisconnected:
		c.registry.Detach(ev.ID)
		c.ports.Forget(ev.ID)
	}
}

// applyZones sends the configured zones to a device, then any explicit mode
func applyZones(registry *mpe.Registry, id string, zones []config.ZoneConfig) error {
	var errs []error
	for _, z := range zones {
		manager := uint8(z.Manager)
		if err := registry.SetupZone(id, manager, z.Members); err != nil {
			errs = append(errs, err)
			continue
		}
		if z.Members == 0 {
			continue
		}
		switch z.Mode {
		case config.ModePoly:
			errs = append(errs, registry.ChangeMidiMode(id, manager, mpe.ModePoly))
		case config.ModeMono:
			errs = append(errs, registry.ChangeMidiMode(id, manager, mpe.ModeMono))
		}
	}
	return errors.Join(errs...)
}
