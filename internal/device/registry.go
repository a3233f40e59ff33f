package device

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// New constructs a device of the given type with a fresh ID. Coffee makers
// get their own vendor appliance behind the adapter.
func New(deviceType Type, name string) (Device, error) {
	id := "dev-" + uuid.NewString()[:8]
	switch deviceType {
	case TypeLight:
		return NewLight(id, name), nil
	case TypeThermostat:
		return NewThermostat(id, name), nil
	case TypeDoorLock:
		return NewDoorLock(id, name), nil
	case TypeCoffeeMaker:
		return NewCoffeeMakerAdapter(id, name, NewThirdPartyCoffeeMaker()), nil
	default:
		return nil, fmt.Errorf("type %q: %w", deviceType, ErrUnsupportedType)
	}
}

// Registry is the authoritative set of registered devices.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]Device
	order   []string // registration order for stable listings
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]Device)}
}

// Add registers a device. Registering the same ID twice fails.
func (r *Registry) Add(d Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[d.ID()]; exists {
		return fmt.Errorf("device %q: %w", d.ID(), ErrDeviceExists)
	}
	r.devices[d.ID()] = d
	r.order = append(r.order, d.ID())
	return nil
}

// Remove deregisters a device by ID.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[id]; !exists {
		return fmt.Errorf("device %q: %w", id, ErrDeviceNotFound)
	}
	delete(r.devices, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a registered device by ID.
func (r *Registry) Get(id string) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, fmt.Errorf("device %q: %w", id, ErrDeviceNotFound)
	}
	return d, nil
}

// List returns all devices in registration order.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.devices[id])
	}
	return out
}

// ListByType returns devices of one type in registration order.
func (r *Registry) ListByType(t Type) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Device
	for _, id := range r.order {
		if d := r.devices[id]; d.Type() == t {
			out = append(out, d)
		}
	}
	return out
}

// Len reports how many devices are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
