package device

import "sync"

// ThirdPartyCoffeeMaker mimics a vendor appliance with its own control
// vocabulary. It knows nothing about the Device interface.
type ThirdPartyCoffeeMaker struct {
	mu      sync.Mutex
	powered bool
	brewing bool
}

// NewThirdPartyCoffeeMaker returns a powered-down appliance.
func NewThirdPartyCoffeeMaker() *ThirdPartyCoffeeMaker {
	return &ThirdPartyCoffeeMaker{}
}

// SwitchOn powers the appliance.
func (c *ThirdPartyCoffeeMaker) SwitchOn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.powered = true
}

// SwitchOff powers down and aborts any brew in progress.
func (c *ThirdPartyCoffeeMaker) SwitchOff() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.powered = false
	c.brewing = false
}

// Brew starts a brew cycle. Brewing without power is silently ignored,
// matching the physical appliance.
func (c *ThirdPartyCoffeeMaker) Brew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.powered {
		c.brewing = true
	}
}

// IsPowered reports the power switch position.
func (c *ThirdPartyCoffeeMaker) IsPowered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.powered
}

// IsBrewing reports whether a brew cycle is running.
func (c *ThirdPartyCoffeeMaker) IsBrewing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brewing
}

// CoffeeMakerAdapter presents a ThirdPartyCoffeeMaker through the Device
// interface. Turning it on powers the appliance and starts a brew.
type CoffeeMakerAdapter struct {
	id    string
	name  string
	maker *ThirdPartyCoffeeMaker
}

// NewCoffeeMakerAdapter wraps a vendor appliance.
func NewCoffeeMakerAdapter(id, name string, maker *ThirdPartyCoffeeMaker) *CoffeeMakerAdapter {
	return &CoffeeMakerAdapter{id: id, name: name, maker: maker}
}

func (a *CoffeeMakerAdapter) ID() string   { return a.id }
func (a *CoffeeMakerAdapter) Name() string { return a.name }
func (a *CoffeeMakerAdapter) Type() Type   { return TypeCoffeeMaker }

func (a *CoffeeMakerAdapter) Status() bool {
	return a.maker.IsPowered()
}

func (a *CoffeeMakerAdapter) TurnOn() error {
	a.maker.SwitchOn()
	a.maker.Brew()
	return nil
}

func (a *CoffeeMakerAdapter) TurnOff() error {
	a.maker.SwitchOff()
	return nil
}

func (a *CoffeeMakerAdapter) State() map[string]any {
	return map[string]any{
		"on":      a.maker.IsPowered(),
		"brewing": a.maker.IsBrewing(),
	}
}
