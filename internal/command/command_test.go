package command

import (
	"testing"

	"github.com/ashgrove-labs/hearth-core/internal/device"
)

func TestTurnOn_UndoRestoresOffState(t *testing.T) {
	light := device.NewLight("dev-1", "lamp")
	cmd := NewTurnOn(light)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !light.Status() {
		t.Fatal("light off after Execute")
	}

	if err := cmd.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if light.Status() {
		t.Error("light on after Undo; it started off")
	}
}

func TestTurnOn_UndoKeepsAlreadyOnDevice(t *testing.T) {
	light := device.NewLight("dev-1", "lamp")
	if err := light.TurnOn(); err != nil {
		t.Fatalf("TurnOn: %v", err)
	}

	cmd := NewTurnOn(light)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := cmd.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !light.Status() {
		t.Error("Undo turned off a device that was already on before Execute")
	}
}

func TestUndoBeforeExecuteIsNoOp(t *testing.T) {
	light := device.NewLight("dev-1", "lamp")
	if err := light.TurnOn(); err != nil {
		t.Fatalf("TurnOn: %v", err)
	}

	if err := NewTurnOff(light).Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !light.Status() {
		t.Error("Undo without Execute changed device state")
	}
}

func TestSetBrightness_UndoRestoresLevel(t *testing.T) {
	light := device.NewLight("dev-1", "lamp")
	if err := light.SetBrightness(60); err != nil {
		t.Fatalf("SetBrightness: %v", err)
	}

	cmd := NewSetBrightness(light, 10)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if light.Brightness() != 10 {
		t.Fatalf("brightness = %d, want 10", light.Brightness())
	}

	if err := cmd.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if light.Brightness() != 60 {
		t.Errorf("brightness after Undo = %d, want 60", light.Brightness())
	}
}

func TestSetBrightness_FailedExecuteLeavesNoUndoState(t *testing.T) {
	light := device.NewLight("dev-1", "lamp")
	if err := light.SetBrightness(60); err != nil {
		t.Fatalf("SetBrightness: %v", err)
	}

	cmd := NewSetBrightness(light, 150)
	if err := cmd.Execute(); err == nil {
		t.Fatal("out-of-range Execute succeeded")
	}
	if err := cmd.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if light.Brightness() != 60 {
		t.Errorf("brightness = %d, want untouched 60", light.Brightness())
	}
}

func TestSetTemperature_UndoRestoresTargetAndPower(t *testing.T) {
	th := device.NewThermostat("dev-2", "living room")

	cmd := NewSetTemperature(th, 25)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !th.Status() || th.Temperature() != 25 {
		t.Fatalf("after Execute: on=%v target=%.1f", th.Status(), th.Temperature())
	}

	// The thermostat was off before; Undo restores both target and power.
	if err := cmd.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if th.Status() {
		t.Error("thermostat on after Undo; it started off")
	}
	if th.Temperature() != 20 {
		t.Errorf("target after Undo = %.1f, want 20", th.Temperature())
	}
}

func TestLockUnlock_RoundTrip(t *testing.T) {
	lock := device.NewDoorLock("dev-3", "front door")

	unlock := NewUnlock(lock)
	if err := unlock.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if lock.Locked() {
		t.Fatal("still locked after Unlock command")
	}

	if err := unlock.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !lock.Locked() {
		t.Error("not locked after Undo; it started locked")
	}

	// Locking an already-locked door: Undo must not release it.
	relock := NewLock(lock)
	if err := relock.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := relock.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !lock.Locked() {
		t.Error("Undo released a door that was locked before Execute")
	}
}
