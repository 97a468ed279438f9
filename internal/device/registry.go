package device

import "fmt"

// Registry holds all configured devices in configuration order. It is read-only
// after construction.
type Registry struct {
	devices []*Device
	byName  map[string]*Device
}

// NewRegistry creates a registry. Device names must be unique.
func NewRegistry(devices ...*Device) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Device, len(devices))}
	for _, d := range devices {
		if _, exists := r.byName[d.Name()]; exists {
			return nil, fmt.Errorf("duplicate device name %q", d.Name())
		}
		r.byName[d.Name()] = d
		r.devices = append(r.devices, d)
	}
	return r, nil
}

// All returns every device in configuration order.
func (r *Registry) All() []*Device {
	return r.devices
}

// Get returns a device by name.
func (r *Registry) Get(name string) (*Device, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Len returns the number of devices.
func (r *Registry) Len() int {
	return len(r.devices)
}

// Snapshots returns the runtime state of every device keyed by name.
func (r *Registry) Snapshots() map[string]State {
	out := make(map[string]State, len(r.devices))
	for _, d := range r.devices {
		out[d.Name()] = d.Snapshot()
	}
	return out
}

// Close closes all device sinks.
func (r *Registry) Close() {
	for _, d := range r.devices {
		d.Close()
	}
}
