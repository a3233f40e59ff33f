package automation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ashgrove-labs/hearth-core/internal/auth"
	"github.com/ashgrove-labs/hearth-core/internal/command"
	"github.com/ashgrove-labs/hearth-core/internal/device"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
)

// Sentinel errors for engine operations.
var (
	ErrRuleNotFound = errors.New("rule not found")
	ErrRuleInvalid  = errors.New("rule is invalid")
	ErrForbidden    = errors.New("insufficient permissions")
)

// Rule binds a condition on one device to a sequence of commands. Rules
// belong to the user who created them.
type Rule struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	DeviceID  string    `json:"device_id"`
	Condition Condition `json:"condition"`
	Enabled   bool      `json:"enabled"`

	actions []command.Command
}

// PermissionChecker answers whether a user holds a permission. Satisfied
// by *auth.Store.
type PermissionChecker interface {
	HasPermission(userID string, perm auth.Permission) bool
}

// Engine stores per-user rule lists and sweeps them against the device
// registry. Within one user's list, rules fire in insertion order. Users
// only ever see and sweep their own rules.
type Engine struct {
	mu     sync.RWMutex
	rules  map[string][]*Rule // keyed by owner user ID
	reg    *device.Registry
	perms  PermissionChecker
	logger *logging.Logger
}

// NewEngine creates an empty rule engine over a device registry.
func NewEngine(reg *device.Registry, perms PermissionChecker, logger *logging.Logger) *Engine {
	return &Engine{
		rules:  make(map[string][]*Rule),
		reg:    reg,
		perms:  perms,
		logger: logger,
	}
}

// AddRule registers a rule at the end of the caller's evaluation order.
// Requires create:automation.
func (e *Engine) AddRule(userID, name, deviceID string, cond Condition, actions ...command.Command) (*Rule, error) {
	if !e.perms.HasPermission(userID, auth.PermAutomationCreate) {
		return nil, fmt.Errorf("add rule %q: %w", name, ErrForbidden)
	}
	if err := validateRule(name, deviceID, cond, actions); err != nil {
		return nil, err
	}

	rule := &Rule{
		ID:        "rul-" + uuid.NewString()[:8],
		OwnerID:   userID,
		Name:      name,
		DeviceID:  deviceID,
		Condition: cond,
		Enabled:   true,
		actions:   actions,
	}

	e.mu.Lock()
	e.rules[userID] = append(e.rules[userID], rule)
	e.mu.Unlock()

	e.logger.Info("rule added", "rule_id", rule.ID, "name", name, "device_id", deviceID)

	cpy := *rule
	return &cpy, nil
}

// findLocked returns the caller's rule with the given ID. Callers hold
// the engine lock.
func (e *Engine) findLocked(userID, ruleID string) (*Rule, error) {
	for _, rule := range e.rules[userID] {
		if rule.ID == ruleID {
			return rule, nil
		}
	}
	return nil, fmt.Errorf("rule %q: %w", ruleID, ErrRuleNotFound)
}

// UpdateRule replaces a rule's condition and actions in place, keeping its
// position in the evaluation order. Requires update:automation.
func (e *Engine) UpdateRule(userID, ruleID string, cond Condition, actions ...command.Command) error {
	if !e.perms.HasPermission(userID, auth.PermAutomationUpdate) {
		return fmt.Errorf("update rule: %w", ErrForbidden)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rule, err := e.findLocked(userID, ruleID)
	if err != nil {
		return err
	}
	if err := validateRule(rule.Name, rule.DeviceID, cond, actions); err != nil {
		return err
	}
	rule.Condition = cond
	rule.actions = actions
	e.logger.Info("rule updated", "rule_id", ruleID)
	return nil
}

// SetEnabled toggles a rule without removing it. Requires
// update:automation.
func (e *Engine) SetEnabled(userID, ruleID string, enabled bool) error {
	if !e.perms.HasPermission(userID, auth.PermAutomationUpdate) {
		return fmt.Errorf("toggle rule: %w", ErrForbidden)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rule, err := e.findLocked(userID, ruleID)
	if err != nil {
		return err
	}
	rule.Enabled = enabled
	return nil
}

// RemoveRule deletes one of the caller's rules. Requires
// delete:automation.
func (e *Engine) RemoveRule(userID, ruleID string) error {
	if !e.perms.HasPermission(userID, auth.PermAutomationDelete) {
		return fmt.Errorf("remove rule: %w", ErrForbidden)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rules := e.rules[userID]
	for i, rule := range rules {
		if rule.ID == ruleID {
			e.rules[userID] = append(rules[:i], rules[i+1:]...)
			e.logger.Info("rule removed", "rule_id", ruleID)
			return nil
		}
	}
	return fmt.Errorf("rule %q: %w", ruleID, ErrRuleNotFound)
}

// Rules returns the caller's rules in evaluation order. Requires
// read:automation.
func (e *Engine) Rules(userID string) ([]*Rule, error) {
	if !e.perms.HasPermission(userID, auth.PermAutomationRead) {
		return nil, fmt.Errorf("list rules: %w", ErrForbidden)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := e.rules[userID]
	out := make([]*Rule, 0, len(rules))
	for _, rule := range rules {
		cpy := *rule
		out = append(out, &cpy)
	}
	return out, nil
}

// Rule returns a single rule of the caller's by ID. Requires
// read:automation.
func (e *Engine) Rule(userID, ruleID string) (*Rule, error) {
	if !e.perms.HasPermission(userID, auth.PermAutomationRead) {
		return nil, fmt.Errorf("get rule: %w", ErrForbidden)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	rule, err := e.findLocked(userID, ruleID)
	if err != nil {
		return nil, err
	}
	cpy := *rule
	return &cpy, nil
}

// ClearAll removes every rule of the caller's and returns how many were
// dropped. Requires delete:automation.
func (e *Engine) ClearAll(userID string) (int, error) {
	if !e.perms.HasPermission(userID, auth.PermAutomationDelete) {
		return 0, fmt.Errorf("clear rules: %w", ErrForbidden)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.rules[userID])
	delete(e.rules, userID)
	if n > 0 {
		e.logger.Info("rules cleared", "count", n)
	}
	return n, nil
}

// Count returns the number of rules the caller owns. Requires
// read:automation.
func (e *Engine) Count(userID string) (int, error) {
	if !e.perms.HasPermission(userID, auth.PermAutomationRead) {
		return 0, fmt.Errorf("count rules: %w", ErrForbidden)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules[userID]), nil
}

// Sweep evaluates each of the caller's enabled rules against its device's
// current state and executes the actions of each rule whose condition
// holds. A missing device, a broken condition, or a failed action is
// logged and the sweep moves on. Returns the IDs of rules that fired.
// Requires execute:automation.
func (e *Engine) Sweep(userID string) ([]string, error) {
	if !e.perms.HasPermission(userID, auth.PermAutomationExecute) {
		return nil, fmt.Errorf("sweep rules: %w", ErrForbidden)
	}

	e.mu.RLock()
	rules := make([]*Rule, len(e.rules[userID]))
	copy(rules, e.rules[userID])
	e.mu.RUnlock()

	var fired []string
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}

		dev, err := e.reg.Get(rule.DeviceID)
		if err != nil {
			e.logger.Warn("rule references missing device",
				"rule_id", rule.ID, "device_id", rule.DeviceID)
			continue
		}

		hold, err := rule.Condition.Evaluate(dev.State())
		if err != nil {
			e.logger.Error("rule condition failed",
				"rule_id", rule.ID, "error", err)
			continue
		}
		if !hold {
			continue
		}

		for _, act := range rule.actions {
			if err := act.Execute(); err != nil {
				e.logger.Error("rule action failed",
					"rule_id", rule.ID, "action", act.Name(), "error", err)
			}
		}
		fired = append(fired, rule.ID)
		e.logger.Info("rule fired", "rule_id", rule.ID, "name", rule.Name)
	}
	return fired, nil
}

func validateRule(name, deviceID string, cond Condition, actions []command.Command) error {
	if name == "" {
		return fmt.Errorf("empty name: %w", ErrRuleInvalid)
	}
	if deviceID == "" {
		return fmt.Errorf("rule %q: empty device id: %w", name, ErrRuleInvalid)
	}
	if cond.Property == "" {
		return fmt.Errorf("rule %q: empty condition property: %w", name, ErrRuleInvalid)
	}
	if !cond.Op.Valid() {
		return fmt.Errorf("rule %q: %q: %w", name, cond.Op, ErrUnknownOperator)
	}
	if len(actions) == 0 {
		return fmt.Errorf("rule %q: no actions: %w", name, ErrRuleInvalid)
	}
	return nil
}
