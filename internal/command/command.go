package command

import (
	"github.com/ashgrove-labs/hearth-core/internal/device"
)

// Command is a reversible device operation.
type Command interface {
	Name() string
	Execute() error
	Undo() error
}

// TurnOn switches a device on; Undo restores the prior on/off state.
type TurnOn struct {
	device   device.Device
	wasOn    bool
	executed bool
}

// NewTurnOn builds a turn-on command for any device.
func NewTurnOn(d device.Device) *TurnOn {
	return &TurnOn{device: d}
}

func (c *TurnOn) Name() string { return "turn_on " + c.device.ID() }

func (c *TurnOn) Execute() error {
	c.wasOn = c.device.Status()
	if err := c.device.TurnOn(); err != nil {
		return err
	}
	c.executed = true
	return nil
}

func (c *TurnOn) Undo() error {
	if !c.executed {
		return nil
	}
	if c.wasOn {
		return nil
	}
	return c.device.TurnOff()
}

// TurnOff switches a device off; Undo restores the prior on/off state.
type TurnOff struct {
	device   device.Device
	wasOn    bool
	executed bool
}

// NewTurnOff builds a turn-off command for any device.
func NewTurnOff(d device.Device) *TurnOff {
	return &TurnOff{device: d}
}

func (c *TurnOff) Name() string { return "turn_off " + c.device.ID() }

func (c *TurnOff) Execute() error {
	c.wasOn = c.device.Status()
	if err := c.device.TurnOff(); err != nil {
		return err
	}
	c.executed = true
	return nil
}

func (c *TurnOff) Undo() error {
	if !c.executed {
		return nil
	}
	if !c.wasOn {
		return nil
	}
	return c.device.TurnOn()
}

// SetBrightness dims a light; Undo restores the prior level.
type SetBrightness struct {
	light    *device.Light
	level    int
	previous int
	executed bool
}

// NewSetBrightness builds a brightness command.
func NewSetBrightness(l *device.Light, level int) *SetBrightness {
	return &SetBrightness{light: l, level: level}
}

func (c *SetBrightness) Name() string { return "set_brightness " + c.light.ID() }

func (c *SetBrightness) Execute() error {
	c.previous = c.light.Brightness()
	if err := c.light.SetBrightness(c.level); err != nil {
		return err
	}
	c.executed = true
	return nil
}

func (c *SetBrightness) Undo() error {
	if !c.executed {
		return nil
	}
	return c.light.SetBrightness(c.previous)
}

// SetTemperature adjusts a thermostat target; Undo restores the prior
// target and on/off state.
type SetTemperature struct {
	thermostat *device.Thermostat
	target     float64
	previous   float64
	wasOn      bool
	executed   bool
}

// NewSetTemperature builds a temperature command.
func NewSetTemperature(th *device.Thermostat, celsius float64) *SetTemperature {
	return &SetTemperature{thermostat: th, target: celsius}
}

func (c *SetTemperature) Name() string { return "set_temperature " + c.thermostat.ID() }

func (c *SetTemperature) Execute() error {
	c.previous = c.thermostat.Temperature()
	c.wasOn = c.thermostat.Status()
	if err := c.thermostat.SetTemperature(c.target); err != nil {
		return err
	}
	c.executed = true
	return nil
}

func (c *SetTemperature) Undo() error {
	if !c.executed {
		return nil
	}
	if err := c.thermostat.SetTemperature(c.previous); err != nil {
		return err
	}
	if !c.wasOn {
		return c.thermostat.TurnOff()
	}
	return nil
}

// Lock engages a door lock; Undo restores the prior bolt position.
type Lock struct {
	lock      *device.DoorLock
	wasLocked bool
	executed  bool
}

// NewLock builds a lock command.
func NewLock(d *device.DoorLock) *Lock {
	return &Lock{lock: d}
}

func (c *Lock) Name() string { return "lock " + c.lock.ID() }

func (c *Lock) Execute() error {
	c.wasLocked = c.lock.Locked()
	if err := c.lock.Lock(); err != nil {
		return err
	}
	c.executed = true
	return nil
}

func (c *Lock) Undo() error {
	if !c.executed || c.wasLocked {
		return nil
	}
	return c.lock.Unlock()
}

// Unlock releases a door lock; Undo restores the prior bolt position.
type Unlock struct {
	lock      *device.DoorLock
	wasLocked bool
	executed  bool
}

// NewUnlock builds an unlock command.
func NewUnlock(d *device.DoorLock) *Unlock {
	return &Unlock{lock: d}
}

func (c *Unlock) Name() string { return "unlock " + c.lock.ID() }

func (c *Unlock) Execute() error {
	c.wasLocked = c.lock.Locked()
	if err := c.lock.Unlock(); err != nil {
		return err
	}
	c.executed = true
	return nil
}

func (c *Unlock) Undo() error {
	if !c.executed || !c.wasLocked {
		return nil
	}
	return c.lock.Lock()
}
