package hub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ashgrove-labs/hearth-core/internal/auth"
	"github.com/ashgrove-labs/hearth-core/internal/device"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
	"github.com/ashgrove-labs/hearth-core/internal/notify"
)

type allowAll struct{}

func (allowAll) HasPermission(string, auth.Permission) bool { return true }

type denyAll struct{}

func (denyAll) HasPermission(string, auth.Permission) bool { return false }

// fakeDirectory maps any user ID to a fixed username.
type fakeDirectory struct{}

func (fakeDirectory) UserByID(id string) (*auth.User, error) {
	return &auth.User{ID: id, Username: "alice"}, nil
}

// recordingNotifier captures system notifications.
type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) System(_ context.Context, _, message string) (*notify.Notification, error) {
	n.messages = append(n.messages, message)
	return &notify.Notification{ID: "not-test"}, nil
}

// recordingPublisher captures MQTT publishes.
type recordingPublisher struct {
	topics   []string
	payloads [][]byte
}

func (p *recordingPublisher) PublishRetained(topic string, payload []byte) error {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

// recordingHistory captures InfluxDB state writes.
type recordingHistory struct {
	deviceIDs []string
}

func (h *recordingHistory) WriteDeviceState(deviceID, _ string, _ map[string]any) {
	h.deviceIDs = append(h.deviceIDs, deviceID)
}

// brokenCommand always fails.
type brokenCommand struct{}

func (brokenCommand) Name() string   { return "broken" }
func (brokenCommand) Execute() error { return errors.New("actuator jammed") }
func (brokenCommand) Undo() error    { return nil }

func quietLogger() *logging.Logger {
	return &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func testHub(t *testing.T, opts Options) *Hub {
	t.Helper()
	return New(device.NewRegistry(), allowAll{}, fakeDirectory{}, quietLogger(), opts)
}

func TestHub_AddAndControlDevice(t *testing.T) {
	pub := &recordingPublisher{}
	hist := &recordingHistory{}
	h := testHub(t, Options{MQTT: pub, InfluxDB: hist})

	dev, err := h.AddDevice("usr-1", device.TypeLight, "hall light")
	if err != nil {
		t.Fatalf("AddDevice: %v", err)
	}

	if err := h.TurnOn("usr-1", dev.ID()); err != nil {
		t.Fatalf("TurnOn: %v", err)
	}
	got, err := h.Device("usr-1", dev.ID())
	if err != nil {
		t.Fatalf("Device: %v", err)
	}
	if !got.Status() {
		t.Error("device off after TurnOn")
	}

	if err := h.TurnOff("usr-1", dev.ID()); err != nil {
		t.Fatalf("TurnOff: %v", err)
	}

	// One publish on add, one per successful command.
	if len(pub.topics) != 3 {
		t.Errorf("publishes = %d, want 3", len(pub.topics))
	}
	wantTopic := "hearth/device/" + dev.ID() + "/state"
	for _, topic := range pub.topics {
		if topic != wantTopic {
			t.Errorf("topic = %q, want %q", topic, wantTopic)
		}
	}
	if len(hist.deviceIDs) != 3 {
		t.Errorf("history writes = %d, want 3", len(hist.deviceIDs))
	}
}

func TestHub_FailedCommandReportsAndReturns(t *testing.T) {
	notes := &recordingNotifier{}
	h := testHub(t, Options{Notifier: notes})

	dev, err := h.AddDevice("usr-1", device.TypeLight, "hall light")
	if err != nil {
		t.Fatalf("AddDevice: %v", err)
	}

	err = h.Execute("usr-1", dev.ID(), brokenCommand{})
	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("Execute: err = %v, want ErrCommandFailed", err)
	}

	if len(notes.messages) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notes.messages))
	}
	if !strings.Contains(notes.messages[0], "hall light") {
		t.Errorf("notification does not name the device: %q", notes.messages[0])
	}
}

func TestHub_UnknownDevice(t *testing.T) {
	h := testHub(t, Options{})

	if err := h.TurnOn("usr-1", "dev-missing"); !errors.Is(err, device.ErrDeviceNotFound) {
		t.Errorf("TurnOn: err = %v, want ErrDeviceNotFound", err)
	}
}

func TestHub_RemoveDevice(t *testing.T) {
	h := testHub(t, Options{})

	dev, err := h.AddDevice("usr-1", device.TypeDoorLock, "front door")
	if err != nil {
		t.Fatalf("AddDevice: %v", err)
	}

	if err := h.RemoveDevice("usr-1", dev.ID()); err != nil {
		t.Fatalf("RemoveDevice: %v", err)
	}
	if _, err := h.Device("usr-1", dev.ID()); !errors.Is(err, device.ErrDeviceNotFound) {
		t.Errorf("Device after remove: err = %v, want ErrDeviceNotFound", err)
	}
}

func TestHub_NilIntegrationsAreSafe(t *testing.T) {
	h := testHub(t, Options{})

	dev, err := h.AddDevice("usr-1", device.TypeThermostat, "bedroom")
	if err != nil {
		t.Fatalf("AddDevice: %v", err)
	}
	if err := h.TurnOn("usr-1", dev.ID()); err != nil {
		t.Fatalf("TurnOn with no integrations: %v", err)
	}
	// A failing command with no notifier must not panic either.
	if err := h.Execute("usr-1", dev.ID(), brokenCommand{}); !errors.Is(err, ErrCommandFailed) {
		t.Errorf("Execute: err = %v, want ErrCommandFailed", err)
	}
}

func TestHub_PermissionDenied(t *testing.T) {
	h := New(device.NewRegistry(), denyAll{}, fakeDirectory{}, quietLogger(), Options{})

	if _, err := h.AddDevice("usr-1", device.TypeLight, "x"); !errors.Is(err, ErrForbidden) {
		t.Errorf("AddDevice: err = %v, want ErrForbidden", err)
	}
	if _, err := h.Devices("usr-1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Devices: err = %v, want ErrForbidden", err)
	}
	if err := h.RemoveDevice("usr-1", "dev-x"); !errors.Is(err, ErrForbidden) {
		t.Errorf("RemoveDevice: err = %v, want ErrForbidden", err)
	}
}

// A caller without execute:command must get the same answer for existing
// and nonexistent device IDs, so the error does not reveal registry
// contents.
func TestHub_TurnOnDenied_NoExistenceOracle(t *testing.T) {
	reg := device.NewRegistry()
	if err := reg.Add(device.NewLight("dev-real", "lamp")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	h := New(reg, denyAll{}, fakeDirectory{}, quietLogger(), Options{})

	if err := h.TurnOn("usr-1", "dev-real"); !errors.Is(err, ErrForbidden) {
		t.Errorf("TurnOn(existing): err = %v, want ErrForbidden", err)
	}
	if err := h.TurnOn("usr-1", "dev-fake"); !errors.Is(err, ErrForbidden) {
		t.Errorf("TurnOn(missing): err = %v, want ErrForbidden", err)
	}
	if err := h.TurnOff("usr-1", "dev-real"); !errors.Is(err, ErrForbidden) {
		t.Errorf("TurnOff(existing): err = %v, want ErrForbidden", err)
	}
	if err := h.TurnOff("usr-1", "dev-fake"); !errors.Is(err, ErrForbidden) {
		t.Errorf("TurnOff(missing): err = %v, want ErrForbidden", err)
	}
}
