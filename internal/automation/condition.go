package automation

import (
	"errors"
	"fmt"
)

// Operator compares a device state property against a literal.
type Operator string

const (
	OpEqual          Operator = "eq"
	OpNotEqual       Operator = "ne"
	OpLess           Operator = "lt"
	OpLessOrEqual    Operator = "lte"
	OpGreater        Operator = "gt"
	OpGreaterOrEqual Operator = "gte"
)

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		return true
	}
	return false
}

// Condition is a single comparison against one property of a device's
// state snapshot.
type Condition struct {
	Property string   `json:"property"`
	Op       Operator `json:"op"`
	Value    any      `json:"value"`
}

// Sentinel errors for condition evaluation.
var (
	ErrUnknownProperty = errors.New("state has no such property")
	ErrUnknownOperator = errors.New("unknown operator")
	ErrNotComparable   = errors.New("values are not comparable")
)

// Evaluate applies the condition to a state snapshot. A missing property
// or a type mismatch is an error, not a silent false, so a broken rule is
// visible in logs.
func (c Condition) Evaluate(state map[string]any) (bool, error) {
	actual, ok := state[c.Property]
	if !ok {
		return false, fmt.Errorf("property %q: %w", c.Property, ErrUnknownProperty)
	}

	switch c.Op {
	case OpEqual, OpNotEqual:
		eq, err := equal(actual, c.Value)
		if err != nil {
			return false, fmt.Errorf("property %q: %w", c.Property, err)
		}
		if c.Op == OpNotEqual {
			return !eq, nil
		}
		return eq, nil
	case OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		a, aok := toFloat(actual)
		b, bok := toFloat(c.Value)
		if !aok || !bok {
			return false, fmt.Errorf("property %q: ordering needs numbers: %w", c.Property, ErrNotComparable)
		}
		switch c.Op {
		case OpLess:
			return a < b, nil
		case OpLessOrEqual:
			return a <= b, nil
		case OpGreater:
			return a > b, nil
		default:
			return a >= b, nil
		}
	default:
		return false, fmt.Errorf("%q: %w", c.Op, ErrUnknownOperator)
	}
}

// equal compares two values, treating any numeric pair numerically.
func equal(a, b any) (bool, error) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return false, ErrNotComparable
		}
		return af == bf, nil
	}

	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return false, ErrNotComparable
		}
		return av == bv, nil
	case string:
		bv, ok := b.(string)
		if !ok {
			return false, ErrNotComparable
		}
		return av == bv, nil
	default:
		return false, ErrNotComparable
	}
}

// toFloat widens any numeric type to float64. JSON decoding yields
// float64; device snapshots carry int and float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
