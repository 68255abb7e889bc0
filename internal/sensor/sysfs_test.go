package sensor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"battwatch/internal/models"
)

func writeAttr(t *testing.T, dir, name, value string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(value+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func fakeSysfs(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	battery := filepath.Join(root, "battery")
	if err := os.Mkdir(battery, 0o755); err != nil {
		t.Fatalf("mkdir battery: %v", err)
	}
	writeAttr(t, battery, "type", "Battery")
	return root, battery
}

func TestSysfsReaderSnapshot(t *testing.T) {
	root, battery := fakeSysfs(t)
	writeAttr(t, battery, "capacity", "57")
	writeAttr(t, battery, "charge_counter", "2100000")
	writeAttr(t, battery, "temp", "321")
	writeAttr(t, battery, "voltage_now", "3985000")
	writeAttr(t, battery, "current_now", "-450000")
	writeAttr(t, battery, "status", "Discharging")

	reader, err := NewSysfsReader(root)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}

	now := time.Now()
	snap, err := TakeSnapshot(reader, now)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if snap.Percentage != 57 {
		t.Fatalf("expected 57%%, got %d", snap.Percentage)
	}
	if snap.ChargeCounterUAH == nil || *snap.ChargeCounterUAH != 2100000 {
		t.Fatalf("unexpected charge counter: %v", snap.ChargeCounterUAH)
	}
	if snap.TemperatureC != 32.1 {
		t.Fatalf("expected 32.1°C, got %.1f", snap.TemperatureC)
	}
	if snap.VoltageMV != 3985 {
		t.Fatalf("expected 3985 mV, got %d", snap.VoltageMV)
	}
	if snap.CurrentUA == nil || *snap.CurrentUA != -450000 {
		t.Fatalf("unexpected current: %v", snap.CurrentUA)
	}

	charging, err := reader.Charging()
	if err != nil {
		t.Fatalf("charging: %v", err)
	}
	if charging {
		t.Fatalf("expected not charging while discharging")
	}
}

func TestSysfsReaderMissingOptionalAttributes(t *testing.T) {
	root, battery := fakeSysfs(t)
	writeAttr(t, battery, "capacity", "80")
	writeAttr(t, battery, "status", "Charging")

	reader, err := NewSysfsReader(root)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}

	if reader.ChargeCounterUAH() != nil {
		t.Fatalf("expected nil charge counter")
	}
	if reader.TemperatureC() != nil {
		t.Fatalf("expected nil temperature")
	}
	if reader.DesignCapacityMAH() != nil {
		t.Fatalf("expected nil design capacity")
	}

	charging, err := reader.Charging()
	if err != nil {
		t.Fatalf("charging: %v", err)
	}
	if !charging {
		t.Fatalf("expected charging")
	}
}

func TestSysfsReaderChargeNowFallback(t *testing.T) {
	root, battery := fakeSysfs(t)
	writeAttr(t, battery, "capacity", "50")
	writeAttr(t, battery, "charge_now", "1500000")

	reader, err := NewSysfsReader(root)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	counter := reader.ChargeCounterUAH()
	if counter == nil || *counter != 1500000 {
		t.Fatalf("expected charge_now fallback, got %v", counter)
	}
}

func TestSysfsReaderChargerType(t *testing.T) {
	root, battery := fakeSysfs(t)
	writeAttr(t, battery, "capacity", "50")

	usb := filepath.Join(root, "usb")
	if err := os.Mkdir(usb, 0o755); err != nil {
		t.Fatalf("mkdir usb: %v", err)
	}
	writeAttr(t, usb, "type", "USB")
	writeAttr(t, usb, "online", "1")

	reader, err := NewSysfsReader(root)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	if got := reader.ChargerType(); got != models.ChargerUSB {
		t.Fatalf("expected usb charger, got %s", got)
	}

	writeAttr(t, usb, "online", "0")
	if got := reader.ChargerType(); got != models.ChargerUnknown {
		t.Fatalf("expected unknown charger, got %s", got)
	}
}

func TestSysfsReaderDesignCapacity(t *testing.T) {
	root, battery := fakeSysfs(t)
	writeAttr(t, battery, "capacity", "50")
	writeAttr(t, battery, "charge_full_design", "4575000")

	reader, err := NewSysfsReader(root)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	mah := reader.DesignCapacityMAH()
	if mah == nil || *mah != 4575 {
		t.Fatalf("expected 4575 mAh design capacity, got %v", mah)
	}
}

func TestNewSysfsReaderNoBattery(t *testing.T) {
	root := t.TempDir()
	if _, err := NewSysfsReader(root); err == nil {
		t.Fatalf("expected error when no battery device exists")
	}
}
