package transport

import (
	"fmt"
	"runtime"
	"sort"

	"go.bug.st/serial/enumerator"
)

// PortDiscoverer lists serial devices known to the OS, which includes
// bound Bluetooth adapters.
type PortDiscoverer struct {
	list func() ([]*enumerator.PortDetails, error)
}

func NewPortDiscoverer() *PortDiscoverer {
	return &PortDiscoverer{list: enumerator.GetDetailedPortsList}
}

func (d *PortDiscoverer) ListPairedDevices() ([]Device, error) {
	ports, err := d.list()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	devices := make([]Device, 0, len(ports))
	for _, p := range ports {
		if p == nil || p.Name == "" {
			continue
		}
		devices = append(devices, Device{Address: p.Name, DisplayName: displayName(p)})
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Address < devices[j].Address })
	return devices, nil
}

func displayName(p *enumerator.PortDetails) string {
	if !p.IsUSB {
		return p.Name
	}
	name := p.Product
	if name == "" {
		name = "USB serial"
	}
	return fmt.Sprintf("%s (%s:%s)", name, p.VID, p.PID)
}

// DefaultAddress returns the usual device of a bound OBD adapter on this platform.
func DefaultAddress() string {
	switch runtime.GOOS {
	case "windows":
		return "COM3"
	case "darwin":
		return "/dev/tty.OBDII"
	default:
		return "/dev/rfcomm0"
	}
}
