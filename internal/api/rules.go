package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashgrove-labs/hearth-core/internal/automation"
	"github.com/ashgrove-labs/hearth-core/internal/command"
	"github.com/ashgrove-labs/hearth-core/internal/device"
)

// ruleActionSpec describes one command a rule fires. Level applies to
// set_brightness, Celsius to set_temperature.
type ruleActionSpec struct {
	DeviceID string  `json:"device_id"`
	Command  string  `json:"command"`
	Level    int     `json:"level,omitempty"`
	Celsius  float64 `json:"celsius,omitempty"`
}

// ruleRequest is the request body for POST /rules.
type ruleRequest struct {
	Name      string               `json:"name"`
	DeviceID  string               `json:"device_id"`
	Condition automation.Condition `json:"condition"`
	Actions   []ruleActionSpec     `json:"actions"`
}

// handleListRules returns all rules in evaluation order.
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	rules, err := s.rules.Rules(claims.UserID)
	if err != nil {
		writeForbidden(w, "insufficient permissions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rules": rules, "count": len(rules)})
}

// handleCreateRule registers an automation rule at the end of the
// evaluation order.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	actions, err := s.buildActions(claims.UserID, req.Actions)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	rule, err := s.rules.AddRule(claims.UserID, req.Name, req.DeviceID, req.Condition, actions...)
	switch {
	case errors.Is(err, automation.ErrRuleInvalid):
		writeBadRequest(w, "rule is invalid")
		return
	case errors.Is(err, automation.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
		return
	case err != nil:
		writeInternalError(w, "failed to create rule")
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

// handleSetRuleEnabled toggles a rule on or off without removing it.
func (s *Server) handleSetRuleEnabled(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	err := s.rules.SetEnabled(claims.UserID, id, req.Enabled)
	switch {
	case errors.Is(err, automation.ErrRuleNotFound):
		writeNotFound(w, "rule not found")
		return
	case errors.Is(err, automation.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
		return
	case err != nil:
		writeInternalError(w, "failed to update rule")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"enabled": req.Enabled})
}

// handleGetRule returns a single rule by ID.
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	rule, err := s.rules.Rule(claims.UserID, id)
	switch {
	case errors.Is(err, automation.ErrRuleNotFound):
		writeNotFound(w, "rule not found")
		return
	case errors.Is(err, automation.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
		return
	case err != nil:
		writeInternalError(w, "failed to load rule")
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

// handleClearRules removes every rule.
func (s *Server) handleClearRules(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	removed, err := s.rules.ClearAll(claims.UserID)
	if err != nil {
		writeForbidden(w, "insufficient permissions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// handleDeleteRule removes a rule from the evaluation order.
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	err := s.rules.RemoveRule(claims.UserID, id)
	switch {
	case errors.Is(err, automation.ErrRuleNotFound):
		writeNotFound(w, "rule not found")
		return
	case errors.Is(err, automation.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
		return
	case err != nil:
		writeInternalError(w, "failed to delete rule")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSweepRules evaluates every enabled rule once and fires matches.
func (s *Server) handleSweepRules(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	fired, err := s.rules.Sweep(claims.UserID)
	if err != nil {
		writeForbidden(w, "insufficient permissions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"fired": fired, "count": len(fired)})
}

// buildActions translates action specs into concrete commands bound to
// registered devices.
func (s *Server) buildActions(userID string, specs []ruleActionSpec) ([]command.Command, error) {
	actions := make([]command.Command, 0, len(specs))
	for _, spec := range specs {
		cmd, err := s.buildAction(userID, spec)
		if err != nil {
			return nil, err
		}
		actions = append(actions, cmd)
	}
	return actions, nil
}

func (s *Server) buildAction(userID string, spec ruleActionSpec) (command.Command, error) {
	dev, err := s.hub.Device(userID, spec.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("action device %q not found", spec.DeviceID)
	}

	switch spec.Command {
	case "turn_on":
		return command.NewTurnOn(dev), nil
	case "turn_off":
		return command.NewTurnOff(dev), nil
	case "set_brightness":
		light, ok := concreteDevice[*device.Light](s, userID, spec.DeviceID)
		if !ok {
			return nil, fmt.Errorf("device %q is not a light", spec.DeviceID)
		}
		return command.NewSetBrightness(light, spec.Level), nil
	case "set_temperature":
		thermostat, ok := concreteDevice[*device.Thermostat](s, userID, spec.DeviceID)
		if !ok {
			return nil, fmt.Errorf("device %q is not a thermostat", spec.DeviceID)
		}
		return command.NewSetTemperature(thermostat, spec.Celsius), nil
	case "lock":
		lock, ok := concreteDevice[*device.DoorLock](s, userID, spec.DeviceID)
		if !ok {
			return nil, fmt.Errorf("device %q is not a door lock", spec.DeviceID)
		}
		return command.NewLock(lock), nil
	case "unlock":
		lock, ok := concreteDevice[*device.DoorLock](s, userID, spec.DeviceID)
		if !ok {
			return nil, fmt.Errorf("device %q is not a door lock", spec.DeviceID)
		}
		return command.NewUnlock(lock), nil
	default:
		return nil, fmt.Errorf("unknown command %q", spec.Command)
	}
}
