package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashgrove-labs/hearth-core/internal/command"
	"github.com/ashgrove-labs/hearth-core/internal/device"
	"github.com/ashgrove-labs/hearth-core/internal/hub"
)

// deviceView is the JSON representation of a registered device.
type deviceView struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Type  string         `json:"type"`
	On    bool           `json:"on"`
	State map[string]any `json:"state"`
}

func viewOf(d device.Device) deviceView {
	return deviceView{
		ID:    d.ID(),
		Name:  d.Name(),
		Type:  string(d.Type()),
		On:    d.Status(),
		State: d.State(),
	}
}

// handleListDevices returns all devices visible to the caller.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	devices, err := s.hub.Devices(claims.UserID)
	if err != nil {
		writeForbidden(w, "insufficient permissions")
		return
	}

	views := make([]deviceView, 0, len(devices))
	for _, d := range devices {
		views = append(views, viewOf(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": views, "count": len(views)})
}

// handleCreateDevice registers a new device of the requested type.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)

	var req struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "device name is required")
		return
	}

	dev, err := s.hub.AddDevice(claims.UserID, device.Type(req.Type), req.Name)
	switch {
	case errors.Is(err, device.ErrUnsupportedType):
		writeBadRequest(w, "unsupported device type")
		return
	case errors.Is(err, hub.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
		return
	case err != nil:
		writeInternalError(w, "failed to create device")
		return
	}

	writeJSON(w, http.StatusCreated, viewOf(dev))
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	dev, err := s.hub.Device(claims.UserID, id)
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
		return
	case errors.Is(err, hub.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
		return
	case err != nil:
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, viewOf(dev))
}

// handleDeleteDevice removes a device from the registry.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	err := s.hub.RemoveDevice(claims.UserID, id)
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
		return
	case errors.Is(err, hub.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
		return
	case err != nil:
		writeInternalError(w, "failed to delete device")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeviceOn switches a device on.
func (s *Server) handleDeviceOn(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")
	s.respondCommand(w, claims.UserID, id, s.hub.TurnOn(claims.UserID, id))
}

// handleDeviceOff switches a device off.
func (s *Server) handleDeviceOff(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")
	s.respondCommand(w, claims.UserID, id, s.hub.TurnOff(claims.UserID, id))
}

// handleSetBrightness dims or brightens a light.
func (s *Server) handleSetBrightness(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	var req struct {
		Level int `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	light, ok := concreteDevice[*device.Light](s, claims.UserID, id)
	if !ok {
		writeNotFound(w, "light not found")
		return
	}

	err := s.hub.Execute(claims.UserID, id, command.NewSetBrightness(light, req.Level))
	s.respondCommand(w, claims.UserID, id, err)
}

// handleSetTemperature sets a thermostat target.
func (s *Server) handleSetTemperature(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	var req struct {
		Celsius float64 `json:"celsius"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	thermostat, ok := concreteDevice[*device.Thermostat](s, claims.UserID, id)
	if !ok {
		writeNotFound(w, "thermostat not found")
		return
	}

	err := s.hub.Execute(claims.UserID, id, command.NewSetTemperature(thermostat, req.Celsius))
	s.respondCommand(w, claims.UserID, id, err)
}

// handleLockDevice engages a door lock.
func (s *Server) handleLockDevice(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	lock, ok := concreteDevice[*device.DoorLock](s, claims.UserID, id)
	if !ok {
		writeNotFound(w, "door lock not found")
		return
	}

	err := s.hub.Execute(claims.UserID, id, command.NewLock(lock))
	s.respondCommand(w, claims.UserID, id, err)
}

// handleUnlockDevice releases a door lock.
func (s *Server) handleUnlockDevice(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	id := chi.URLParam(r, "id")

	lock, ok := concreteDevice[*device.DoorLock](s, claims.UserID, id)
	if !ok {
		writeNotFound(w, "door lock not found")
		return
	}

	err := s.hub.Execute(claims.UserID, id, command.NewUnlock(lock))
	s.respondCommand(w, claims.UserID, id, err)
}

// concreteDevice fetches a device and unwraps any logging decorator to reach
// the concrete type T needed by typed commands.
func concreteDevice[T device.Device](s *Server, userID, deviceID string) (T, bool) {
	var zero T

	dev, err := s.hub.Device(userID, deviceID)
	if err != nil {
		return zero, false
	}
	if wrapped, ok := dev.(*device.LoggingDecorator); ok {
		dev = wrapped.Unwrap()
	}

	concrete, ok := dev.(T)
	return concrete, ok
}

// respondCommand translates a hub command outcome into an HTTP response.
func (s *Server) respondCommand(w http.ResponseWriter, userID, deviceID string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
		return
	case errors.Is(err, hub.ErrForbidden):
		writeForbidden(w, "insufficient permissions")
		return
	case errors.Is(err, hub.ErrCommandFailed):
		writeError(w, http.StatusBadGateway, ErrCodeInternal, "device command failed")
		return
	default:
		writeInternalError(w, "command failed")
		return
	}

	dev, getErr := s.hub.Device(userID, deviceID)
	if getErr != nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if s.events != nil {
		s.events.Broadcast("device.state_changed", viewOf(dev))
	}
	writeJSON(w, http.StatusOK, viewOf(dev))
}
