package sampler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const DefaultSysfsRoot = "/sys/class/power_supply"

// SysfsSource reads the first BAT* supply under Root and shapes it like the
// AppleSmartBattery record so both platforms share ParseBattery.
type SysfsSource struct {
	Root string
}

func NewSysfsSource(root string) *SysfsSource {
	return &SysfsSource{Root: root}
}

func (s *SysfsSource) Name() string { return "sysfs" }

func (s *SysfsSource) Read(ctx context.Context) (BatteryRecord, error) {
	if err := ctx.Err(); err != nil {
		return BatteryRecord{}, err
	}
	dirs, _ := filepath.Glob(filepath.Join(s.Root, "BAT*"))
	if len(dirs) == 0 {
		return BatteryRecord{}, fmt.Errorf("no battery under %s", s.Root)
	}
	bat := dirs[0]

	capacity, ok := readInt(bat, "capacity")
	if !ok {
		return BatteryRecord{}, fmt.Errorf("read %s/capacity", bat)
	}
	voltageUV, ok := readInt(bat, "voltage_now")
	if !ok {
		return BatteryRecord{}, fmt.Errorf("read %s/voltage_now", bat)
	}
	status := readString(bat, "status")

	// Drivers disagree on the sign of current_now; take the magnitude and
	// let status decide the direction.
	currentUA, ok := readInt(bat, "current_now")
	if !ok {
		if powerUW, ok := readInt(bat, "power_now"); ok && voltageUV != 0 {
			currentUA = abs(powerUW) * 1_000_000 / abs(voltageUV)
		}
	}
	currentUA = abs(currentUA)

	connected := s.externalConnected(status)

	rec := BatteryRecord{
		Voltage:           voltageUV / 1000,
		ExternalConnected: connected,
		CurrentCapacity:   capacity,
		TimeRemaining:     unknownTimeRemaining,
	}
	switch status {
	case "Charging":
		rec.Amperage = currentUA / 1000
	case "Discharging":
		rec.Amperage = -currentUA / 1000
	}
	if rec.Amperage != 0 {
		rec.TimeRemaining = timeRemaining(bat, status, currentUA, voltageUV)
	}

	if deci, ok := readInt(bat, "temp"); ok {
		centi := deci * 10
		rec.Temperature = &centi
	}
	return rec, nil
}

// externalConnected reports true when any non-battery supply (Mains, USB,
// USB_C, USB_PD, ...) is online. Laptops charging over USB-C often keep an
// offline ACPI Mains entry, so one offline adapter is not conclusive and the
// battery status decides.
func (s *SysfsSource) externalConnected(status string) bool {
	supplies, _ := filepath.Glob(filepath.Join(s.Root, "*"))
	for _, dir := range supplies {
		if typ := readString(dir, "type"); typ == "" || typ == "Battery" {
			continue
		}
		if online, ok := readInt(dir, "online"); ok && online == 1 {
			return true
		}
	}
	return status != "Discharging"
}

// timeRemaining estimates minutes to empty (discharging) or full (charging)
// from charge counters (µAh) or energy counters (µWh). Returns the unknown
// sentinel when no estimate is possible.
func timeRemaining(bat, status string, currentUA, voltageUV int64) int64 {
	if currentUA == 0 {
		return unknownTimeRemaining
	}
	now, full, ok := readPair(bat, "charge_now", "charge_full")
	rate := currentUA
	if !ok {
		now, full, ok = readPair(bat, "energy_now", "energy_full")
		if !ok || voltageUV == 0 {
			return unknownTimeRemaining
		}
		// µW = µA * µV / 1e6
		rate = currentUA * (voltageUV / 1000) / 1000
		if rate == 0 {
			return unknownTimeRemaining
		}
	}

	remaining := now
	if status == "Charging" {
		remaining = full - now
	}
	if remaining < 0 {
		return unknownTimeRemaining
	}
	minutes := remaining * 60 / rate
	if minutes >= unknownTimeRemaining {
		return unknownTimeRemaining - 1
	}
	return minutes
}

func readPair(dir, a, b string) (int64, int64, bool) {
	x, ok := readInt(dir, a)
	if !ok {
		return 0, 0, false
	}
	y, ok := readInt(dir, b)
	if !ok {
		return 0, 0, false
	}
	return x, y, true
}

func readInt(dir, name string) (int64, bool) {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func readString(dir, name string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
