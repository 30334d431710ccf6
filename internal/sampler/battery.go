package sampler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/Dicklesworthstone/battmon/internal/model"
)

// unknownTimeRemaining is what the power subsystem reports while it is still
// estimating. It never leaves this package.
const unknownTimeRemaining = 65535

// ErrSourceUnavailable marks a tick whose OS read failed or could not be parsed.
var ErrSourceUnavailable = errors.New("source unavailable")

// BatteryRecord is the raw power-management record, in the units the
// AppleSmartBattery registry entry uses.
type BatteryRecord struct {
	Voltage           int64  // mV
	Amperage          int64  // mA, negative while discharging
	ExternalConnected bool   //
	CurrentCapacity   int64  // percent
	TimeRemaining     int64  // minutes, 65535 while unknown
	Temperature       *int64 // centi-degrees Celsius
}

// BatterySource reads one raw record from the OS.
type BatterySource interface {
	Name() string
	Read(ctx context.Context) (BatteryRecord, error)
}

// NewBatterySource returns the source for kind: "ioreg", "sysfs" or "auto".
func NewBatterySource(kind string) (BatterySource, error) {
	switch kind {
	case "ioreg":
		return NewIORegSource(), nil
	case "sysfs":
		return NewSysfsSource(DefaultSysfsRoot), nil
	case "", "auto":
		if runtime.GOOS == "darwin" {
			return NewIORegSource(), nil
		}
		return NewSysfsSource(DefaultSysfsRoot), nil
	}
	return nil, fmt.Errorf("unknown battery source %q", kind)
}

// BatterySampler turns raw records into model.Battery readings.
type BatterySampler struct {
	Source BatterySource
}

// Sample reads the source once. Any failure is reported as ErrSourceUnavailable.
func (b *BatterySampler) Sample(ctx context.Context, now time.Time) (model.Battery, error) {
	rec, err := b.Source.Read(ctx)
	if err != nil {
		return model.Battery{}, fmt.Errorf("%w: %s battery: %v", ErrSourceUnavailable, b.Source.Name(), err)
	}
	return ParseBattery(rec, now), nil
}

// ParseBattery derives a reading from rec. Watts and TimeRemaining are only
// set while the current flows in the direction the power state implies.
// Watts is nil whenever TimeRemaining is, but not the other way round: a zero
// voltage reading keeps TimeRemaining and leaves Watts nil.
func ParseBattery(rec BatteryRecord, now time.Time) model.Battery {
	out := model.Battery{
		Time:       now,
		Capacity:   clamp01(float64(rec.CurrentCapacity) / 100),
		VoltageMV:  rec.Voltage,
		AmperageMA: rec.Amperage,
		Connected:  rec.ExternalConnected,
	}

	validDirection := rec.Amperage < 0
	if rec.ExternalConnected {
		validDirection = rec.Amperage > 0
	}
	if validDirection && rec.TimeRemaining >= 0 && rec.TimeRemaining < unknownTimeRemaining {
		minutes := int(rec.TimeRemaining)
		out.TimeRemaining = &minutes
	}

	if out.TimeRemaining != nil && rec.Voltage != 0 && rec.Amperage != 0 {
		watts := (float64(rec.Voltage) / 1000) * (float64(rec.Amperage) / 1000)
		out.Watts = &watts
	}

	if rec.Temperature != nil {
		c := float64(*rec.Temperature) / 100
		out.TempC = &c
	}
	return out
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
