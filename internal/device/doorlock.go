package device

import "sync"

// DoorLock is an electronic lock. It is locked by default; "on" means
// locked, so TurnOn engages the bolt and TurnOff releases it.
type DoorLock struct {
	mu     sync.Mutex
	id     string
	name   string
	locked bool
}

// NewDoorLock creates a lock in the locked position.
func NewDoorLock(id, name string) *DoorLock {
	return &DoorLock{id: id, name: name, locked: true}
}

func (d *DoorLock) ID() string   { return d.id }
func (d *DoorLock) Name() string { return d.name }
func (d *DoorLock) Type() Type   { return TypeDoorLock }

func (d *DoorLock) Status() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locked
}

// TurnOn engages the lock.
func (d *DoorLock) TurnOn() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locked = true
	return nil
}

// TurnOff releases the lock.
func (d *DoorLock) TurnOff() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locked = false
	return nil
}

// Lock is a readable alias for TurnOn.
func (d *DoorLock) Lock() error { return d.TurnOn() }

// Unlock is a readable alias for TurnOff.
func (d *DoorLock) Unlock() error { return d.TurnOff() }

// Locked reports the bolt position.
func (d *DoorLock) Locked() bool { return d.Status() }

func (d *DoorLock) State() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return map[string]any{
		"locked": d.locked,
	}
}
