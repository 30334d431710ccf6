package sampler

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"howett.net/plist"
)

// IORegSource reads the AppleSmartBattery registry entry through ioreg.
type IORegSource struct {
	Timeout time.Duration
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewIORegSource() *IORegSource {
	return &IORegSource{Timeout: 2 * time.Second, run: runCmd}
}

func (s *IORegSource) Name() string { return "ioreg" }

func (s *IORegSource) Read(ctx context.Context) (BatteryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	out, err := s.run(ctx, "ioreg", "-arn", "AppleSmartBattery")
	if err != nil {
		return BatteryRecord{}, err
	}
	return parseIORegPlist(out)
}

// parseIORegPlist decodes `ioreg -a` output: an array holding one dictionary
// per matching registry entry.
func parseIORegPlist(data []byte) (BatteryRecord, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return BatteryRecord{}, fmt.Errorf("no AppleSmartBattery entry")
	}
	var entries []map[string]any
	if _, err := plist.Unmarshal(data, &entries); err != nil {
		return BatteryRecord{}, fmt.Errorf("decode ioreg plist: %w", err)
	}
	if len(entries) == 0 {
		return BatteryRecord{}, fmt.Errorf("no AppleSmartBattery entry")
	}
	e := entries[0]

	var rec BatteryRecord
	var ok bool
	if rec.Voltage, ok = plistInt(e["Voltage"]); !ok {
		return BatteryRecord{}, fmt.Errorf("missing Voltage")
	}
	if rec.Amperage, ok = plistInt(e["Amperage"]); !ok {
		return BatteryRecord{}, fmt.Errorf("missing Amperage")
	}
	if rec.CurrentCapacity, ok = plistInt(e["CurrentCapacity"]); !ok {
		return BatteryRecord{}, fmt.Errorf("missing CurrentCapacity")
	}
	// Intel machines report mAh here; scale to percent against MaxCapacity.
	if maxCap, ok := plistInt(e["MaxCapacity"]); ok && maxCap > 100 {
		rec.CurrentCapacity = rec.CurrentCapacity * 100 / maxCap
	}
	if rec.TimeRemaining, ok = plistInt(e["TimeRemaining"]); !ok {
		rec.TimeRemaining = unknownTimeRemaining
	}
	rec.ExternalConnected, _ = e["ExternalConnected"].(bool)
	if t, ok := plistInt(e["Temperature"]); ok {
		rec.Temperature = &t
	}
	return rec, nil
}

// plistInt converts a decoded plist integer. ioreg writes signed registry
// values as their unsigned 64-bit pattern, so uint64 wraps into int64.
func plistInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func runCmd(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, ctx.Err()
	}
	return out, err
}
