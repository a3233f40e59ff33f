package device

import (
	"fmt"
	"sync"
)

// Brightness bounds for lights.
const (
	minBrightness = 0
	maxBrightness = 100
)

// Light is a dimmable lamp. Brightness zero means off; turning the light
// on restores full brightness.
type Light struct {
	mu         sync.Mutex
	id         string
	name       string
	brightness int
}

// NewLight creates a light that starts switched off.
func NewLight(id, name string) *Light {
	return &Light{id: id, name: name}
}

func (l *Light) ID() string   { return l.id }
func (l *Light) Name() string { return l.name }
func (l *Light) Type() Type   { return TypeLight }

// Status reports whether the light emits any light at all.
func (l *Light) Status() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.brightness > minBrightness
}

// TurnOn sets the light to full brightness.
func (l *Light) TurnOn() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.brightness = maxBrightness
	return nil
}

// TurnOff sets brightness to zero.
func (l *Light) TurnOff() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.brightness = minBrightness
	return nil
}

// SetBrightness dims the light to an absolute level between 0 and 100.
func (l *Light) SetBrightness(level int) error {
	if level < minBrightness || level > maxBrightness {
		return fmt.Errorf("brightness %d: %w", level, ErrValueOutOfRange)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.brightness = level
	return nil
}

// Brightness returns the current level.
func (l *Light) Brightness() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.brightness
}

func (l *Light) State() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return map[string]any{
		"on":         l.brightness > minBrightness,
		"brightness": l.brightness,
	}
}
