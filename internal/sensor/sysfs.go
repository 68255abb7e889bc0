package sensor

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"battwatch/internal/models"
)

// DefaultSysfsRoot is where the kernel exposes power supply devices.
const DefaultSysfsRoot = "/sys/class/power_supply"

// SysfsReader reads battery telemetry from the Linux power_supply class.
// The root is injectable so tests can point it at a fabricated tree.
type SysfsReader struct {
	root       string
	batteryDir string
}

// NewSysfsReader locates the first battery device under root.
func NewSysfsReader(root string) (*SysfsReader, error) {
	if root == "" {
		root = DefaultSysfsRoot
	}

	ents, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	for _, ent := range ents {
		dir := filepath.Join(root, ent.Name())
		typ, err := readTrimmed(filepath.Join(dir, "type"))
		if err != nil {
			continue
		}
		if strings.EqualFold(typ, "Battery") {
			return &SysfsReader{root: root, batteryDir: dir}, nil
		}
	}
	return nil, errors.New("sensor: no battery device found")
}

// Percentage returns the charge level reported by the kernel, clamped to [0,100].
func (r *SysfsReader) Percentage() (int, error) {
	v, err := readInt(filepath.Join(r.batteryDir, "capacity"))
	if err != nil {
		return 0, err
	}
	pct := int(v)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, nil
}

// ChargeCounterUAH returns the cumulative charge accumulator in µAh, or nil
// when the platform exposes neither charge_counter nor charge_now.
func (r *SysfsReader) ChargeCounterUAH() *int64 {
	for _, attr := range []string{"charge_counter", "charge_now"} {
		if v, err := readInt(filepath.Join(r.batteryDir, attr)); err == nil {
			return &v
		}
	}
	return nil
}

// TemperatureC returns the battery temperature in °C, or nil when unsupported.
// The kernel reports tenths of a degree; some drivers use milli-degrees.
func (r *SysfsReader) TemperatureC() *float64 {
	raw, err := readInt(filepath.Join(r.batteryDir, "temp"))
	if err != nil {
		return nil
	}
	var temp float64
	switch {
	case raw >= 10000 || raw <= -10000:
		temp = float64(raw) / 1000.0
	default:
		temp = float64(raw) / 10.0
	}
	return &temp
}

// VoltageMV returns the battery voltage in mV (kernel reports µV), or nil.
func (r *SysfsReader) VoltageMV() *int {
	raw, err := readInt(filepath.Join(r.batteryDir, "voltage_now"))
	if err != nil {
		return nil
	}
	mv := int(raw / 1000)
	return &mv
}

// CurrentUA returns the instantaneous current in µA, or nil when unsupported.
func (r *SysfsReader) CurrentUA() *int64 {
	raw, err := readInt(filepath.Join(r.batteryDir, "current_now"))
	if err != nil {
		return nil
	}
	return &raw
}

// Charging reports whether the battery is filling. "Not charging" means a
// charger is attached but the battery is not accepting charge, so it does
// not count.
func (r *SysfsReader) Charging() (bool, error) {
	status, err := readTrimmed(filepath.Join(r.batteryDir, "status"))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(status) {
	case "charging", "full":
		return true, nil
	default:
		return false, nil
	}
}

// ChargerType classifies the attached power source by scanning sibling
// power_supply devices that report online=1.
func (r *SysfsReader) ChargerType() string {
	ents, err := os.ReadDir(r.root)
	if err != nil {
		return models.ChargerUnknown
	}
	for _, ent := range ents {
		dir := filepath.Join(r.root, ent.Name())
		if dir == r.batteryDir {
			continue
		}
		online, err := readInt(filepath.Join(dir, "online"))
		if err != nil || online != 1 {
			continue
		}
		typ, err := readTrimmed(filepath.Join(dir, "type"))
		if err != nil {
			continue
		}
		switch strings.ToLower(typ) {
		case "mains":
			return models.ChargerAC
		case "usb", "usb_pd", "usb_dcp", "usb_cdp":
			return models.ChargerUSB
		case "wireless":
			return models.ChargerWireless
		}
	}
	return models.ChargerUnknown
}

// DesignCapacityMAH returns the manufacturer design capacity in mAh if the
// kernel exposes charge_full_design, or nil. Used by the platform spec probe.
func (r *SysfsReader) DesignCapacityMAH() *int {
	raw, err := readInt(filepath.Join(r.batteryDir, "charge_full_design"))
	if err != nil || raw <= 0 {
		return nil
	}
	mah := int(raw / 1000)
	return &mah
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readInt(path string) (int64, error) {
	s, err := readTrimmed(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(s, 10, 64)
}
