package auth

import (
	"sync"
	"time"
)

// EventKind identifies what happened inside the auth service.
type EventKind string

const (
	EventRoleAdded              EventKind = "role_added"
	EventRoleAssigned           EventKind = "role_assigned"
	EventRoleRemoved            EventKind = "role_removed"
	EventUserAdded              EventKind = "user_added"
	EventAuthAttempt            EventKind = "auth_attempt"
	EventLogin                  EventKind = "login"
	EventPasswordChanged        EventKind = "password_changed"
	EventPasswordResetInitiated EventKind = "password_reset_initiated"
	EventPasswordReset          EventKind = "password_reset"
	EventMFAEnabled             EventKind = "mfa_enabled"
	EventAccountDeactivated     EventKind = "account_deactivated"
	EventAccountReactivated     EventKind = "account_reactivated"
	EventTokenCleanup           EventKind = "token_cleanup"
)

// Event is an auth lifecycle notification delivered to subscribers.
type Event struct {
	Kind     EventKind      `json:"kind"`
	Username string         `json:"username,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	At       time.Time      `json:"at"`
}

// EventHandler receives auth events. Handlers run synchronously on the
// emitting goroutine; a slow handler slows the emitter.
type EventHandler func(Event)

// eventBus fans events out to subscribers in subscription order. A
// panicking subscriber is isolated so it cannot take down the emitter or
// starve later subscribers.
type eventBus struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

func (b *eventBus) subscribe(h EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *eventBus) emit(ev Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() { _ = recover() }()
			h(ev)
		}()
	}
}
