package device

import (
	"fmt"
	"sync"
)

// Target temperature bounds in degrees Celsius.
const (
	minTemperature = 10.0
	maxTemperature = 30.0

	defaultTemperature = 20.0
)

// Thermostat maintains a target temperature. Setting a target implicitly
// switches heating on.
type Thermostat struct {
	mu     sync.Mutex
	id     string
	name   string
	on     bool
	target float64
}

// NewThermostat creates a thermostat that starts off at the default
// target.
func NewThermostat(id, name string) *Thermostat {
	return &Thermostat{id: id, name: name, target: defaultTemperature}
}

func (t *Thermostat) ID() string   { return t.id }
func (t *Thermostat) Name() string { return t.name }
func (t *Thermostat) Type() Type   { return TypeThermostat }

func (t *Thermostat) Status() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.on
}

func (t *Thermostat) TurnOn() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.on = true
	return nil
}

func (t *Thermostat) TurnOff() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.on = false
	return nil
}

// SetTemperature adjusts the target and switches heating on. Targets
// outside [10, 30] °C are rejected.
func (t *Thermostat) SetTemperature(celsius float64) error {
	if celsius < minTemperature || celsius > maxTemperature {
		return fmt.Errorf("target %.1f°C: %w", celsius, ErrValueOutOfRange)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.target = celsius
	t.on = true
	return nil
}

// Temperature returns the current target.
func (t *Thermostat) Temperature() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.target
}

func (t *Thermostat) State() map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return map[string]any{
		"on":          t.on,
		"temperature": t.target,
	}
}
