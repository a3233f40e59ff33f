package device

import "errors"

// Type classifies a device.
type Type string

const (
	TypeLight       Type = "light"
	TypeThermostat  Type = "thermostat"
	TypeDoorLock    Type = "door_lock"
	TypeCoffeeMaker Type = "coffee_maker"
)

// Device is a controllable endpoint. Status reports whether the device is
// currently "on" in its own terms (a lock counts as on when locked).
// State returns a snapshot of all readable properties for publishing and
// automation conditions.
type Device interface {
	ID() string
	Name() string
	Type() Type
	Status() bool
	TurnOn() error
	TurnOff() error
	State() map[string]any
}

// Sentinel errors for device operations.
var (
	ErrDeviceNotFound     = errors.New("device not found")
	ErrDeviceExists       = errors.New("device already registered")
	ErrUnsupportedType    = errors.New("unsupported device type")
	ErrValueOutOfRange    = errors.New("value out of range")
	ErrUnsupportedCommand = errors.New("device does not support this command")
)
