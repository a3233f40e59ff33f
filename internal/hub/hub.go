package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ashgrove-labs/hearth-core/internal/auth"
	"github.com/ashgrove-labs/hearth-core/internal/command"
	"github.com/ashgrove-labs/hearth-core/internal/device"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/mqtt"
	"github.com/ashgrove-labs/hearth-core/internal/notify"
)

// Sentinel errors for hub operations.
var (
	ErrForbidden     = errors.New("insufficient permissions")
	ErrCommandFailed = errors.New("device command failed")
)

// notifyTimeout bounds the failure-notification write.
const notifyTimeout = 5 * time.Second

// PermissionChecker answers whether a user holds a permission. Satisfied
// by *auth.Store.
type PermissionChecker interface {
	HasPermission(userID string, perm auth.Permission) bool
}

// Directory resolves user IDs to accounts for failure notifications.
// Satisfied by *auth.Store.
type Directory interface {
	UserByID(id string) (*auth.User, error)
}

// Notifier records user-facing messages. Satisfied by *notify.Service.
type Notifier interface {
	System(ctx context.Context, username, message string) (*notify.Notification, error)
}

// StatePublisher is the subset of the MQTT client the hub needs.
// Satisfied by *mqtt.Client.
type StatePublisher interface {
	PublishRetained(topic string, payload []byte) error
}

// HistoryWriter is the subset of the InfluxDB client the hub needs.
// Satisfied by *influxdb.Client.
type HistoryWriter interface {
	WriteDeviceState(deviceID, deviceType string, state map[string]any)
}

// Hub orchestrates device operations.
type Hub struct {
	reg    *device.Registry
	perms  PermissionChecker
	users  Directory
	notes  Notifier
	logger *logging.Logger

	publisher StatePublisher
	history   HistoryWriter
}

// Options carries the hub's optional collaborators. A nil field disables
// that integration.
type Options struct {
	MQTT     StatePublisher
	InfluxDB HistoryWriter
	Notifier Notifier
}

// New wires the hub.
func New(reg *device.Registry, perms PermissionChecker, users Directory, logger *logging.Logger, opts Options) *Hub {
	return &Hub{
		reg:       reg,
		perms:     perms,
		users:     users,
		notes:     opts.Notifier,
		logger:    logger,
		publisher: opts.MQTT,
		history:   opts.InfluxDB,
	}
}

// AddDevice creates and registers a device of the given type. Requires
// create:device.
func (h *Hub) AddDevice(userID string, deviceType device.Type, name string) (device.Device, error) {
	if !h.perms.HasPermission(userID, auth.PermDeviceCreate) {
		return nil, fmt.Errorf("add device: %w", ErrForbidden)
	}

	dev, err := device.New(deviceType, name)
	if err != nil {
		return nil, err
	}
	wrapped := device.WithLogging(dev, h.logger)
	if err := h.reg.Add(wrapped); err != nil {
		return nil, err
	}

	h.logger.Info("device added", "device_id", dev.ID(), "type", string(deviceType), "name", name)
	h.publishState(wrapped)
	return wrapped, nil
}

// RemoveDevice deregisters a device. Requires delete:device.
func (h *Hub) RemoveDevice(userID, deviceID string) error {
	if !h.perms.HasPermission(userID, auth.PermDeviceDelete) {
		return fmt.Errorf("remove device: %w", ErrForbidden)
	}
	if err := h.reg.Remove(deviceID); err != nil {
		return err
	}
	h.logger.Info("device removed", "device_id", deviceID)
	return nil
}

// Device returns one device. Requires read:device.
func (h *Hub) Device(userID, deviceID string) (device.Device, error) {
	if !h.perms.HasPermission(userID, auth.PermDeviceRead) {
		return nil, fmt.Errorf("get device: %w", ErrForbidden)
	}
	return h.reg.Get(deviceID)
}

// Devices lists all devices. Requires read:device.
func (h *Hub) Devices(userID string) ([]device.Device, error) {
	if !h.perms.HasPermission(userID, auth.PermDeviceRead) {
		return nil, fmt.Errorf("list devices: %w", ErrForbidden)
	}
	return h.reg.List(), nil
}

// Execute runs a command against a device. A failing command is reported
// as a notification to the acting user and returned as ErrCommandFailed;
// the hub itself keeps running. Requires execute:command.
func (h *Hub) Execute(userID, deviceID string, cmd command.Command) error {
	if !h.perms.HasPermission(userID, auth.PermCommandExecute) {
		return fmt.Errorf("execute command: %w", ErrForbidden)
	}

	dev, err := h.reg.Get(deviceID)
	if err != nil {
		return err
	}

	if err := cmd.Execute(); err != nil {
		h.reportFailure(userID, dev, cmd, err)
		return fmt.Errorf("%w: %s: %w", ErrCommandFailed, cmd.Name(), err)
	}

	h.publishState(dev)
	return nil
}

// TurnOn switches a device on through the command path. The permission
// check runs before the registry lookup so callers without
// execute:command cannot learn which device IDs exist.
func (h *Hub) TurnOn(userID, deviceID string) error {
	if !h.perms.HasPermission(userID, auth.PermCommandExecute) {
		return fmt.Errorf("turn on: %w", ErrForbidden)
	}
	dev, err := h.reg.Get(deviceID)
	if err != nil {
		return err
	}
	return h.Execute(userID, deviceID, command.NewTurnOn(dev))
}

// TurnOff switches a device off through the command path. Permission is
// checked before the lookup, as in TurnOn.
func (h *Hub) TurnOff(userID, deviceID string) error {
	if !h.perms.HasPermission(userID, auth.PermCommandExecute) {
		return fmt.Errorf("turn off: %w", ErrForbidden)
	}
	dev, err := h.reg.Get(deviceID)
	if err != nil {
		return err
	}
	return h.Execute(userID, deviceID, command.NewTurnOff(dev))
}

// reportFailure logs the failed command and records a notification for
// the acting user. Notification errors are logged and swallowed.
func (h *Hub) reportFailure(userID string, dev device.Device, cmd command.Command, cmdErr error) {
	h.logger.Error("device command failed",
		"device_id", dev.ID(), "command", cmd.Name(), "error", cmdErr)

	if h.notes == nil {
		return
	}
	user, err := h.users.UserByID(userID)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	msg := fmt.Sprintf("Command failed on %s (%s): %v", dev.Name(), dev.ID(), cmdErr)
	if _, err := h.notes.System(ctx, user.Username, msg); err != nil {
		h.logger.Error("recording failure notification", "error", err)
	}
}

// publishState pushes a device's state snapshot to the optional MQTT and
// InfluxDB integrations. Publish failures are logged, never returned.
func (h *Hub) publishState(dev device.Device) {
	state := dev.State()

	if h.publisher != nil {
		payload, err := json.Marshal(state)
		if err == nil {
			if err := h.publisher.PublishRetained(mqtt.Topics{}.DeviceState(dev.ID()), payload); err != nil {
				h.logger.Warn("publishing device state", "device_id", dev.ID(), "error", err)
			}
		}
	}

	if h.history != nil {
		h.history.WriteDeviceState(dev.ID(), string(dev.Type()), state)
	}
}
