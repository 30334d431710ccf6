package sampler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSupply(t *testing.T, root, name string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for k, v := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, k), []byte(v+"\n"), 0o644))
	}
}

func TestSysfsDischargingChargeCounters(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "AC", map[string]string{"type": "Mains", "online": "0"})
	writeSupply(t, root, "BAT0", map[string]string{
		"status":      "Discharging",
		"capacity":    "64",
		"voltage_now": "11800000",
		"current_now": "1500000",
		"charge_now":  "3000000",
		"charge_full": "5000000",
		"temp":        "312",
	})

	rec, err := NewSysfsSource(root).Read(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(11800), rec.Voltage)
	assert.Equal(t, int64(-1500), rec.Amperage)
	assert.False(t, rec.ExternalConnected)
	assert.Equal(t, int64(64), rec.CurrentCapacity)
	assert.Equal(t, int64(120), rec.TimeRemaining) // 3000 mAh / 1500 mA
	require.NotNil(t, rec.Temperature)
	assert.Equal(t, int64(3120), *rec.Temperature)

	b := ParseBattery(rec, now)
	require.NotNil(t, b.Watts)
	assert.InDelta(t, -17.7, *b.Watts, 1e-9)
}

func TestSysfsChargingEnergyCounters(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "ADP1", map[string]string{"type": "Mains", "online": "1"})
	writeSupply(t, root, "BAT1", map[string]string{
		"status":      "Charging",
		"capacity":    "50",
		"voltage_now": "12000000",
		"power_now":   "24000000",
		"energy_now":  "30000000",
		"energy_full": "60000000",
	})

	rec, err := NewSysfsSource(root).Read(context.Background())
	require.NoError(t, err)

	assert.True(t, rec.ExternalConnected)
	assert.Equal(t, int64(2000), rec.Amperage)
	// 30 Wh to go at 24 W
	assert.Equal(t, int64(75), rec.TimeRemaining)
	assert.Nil(t, rec.Temperature)
}

func TestSysfsChargingOverUSB(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "AC", map[string]string{"type": "Mains", "online": "0"})
	writeSupply(t, root, "ucsi-source-psy-USBC000:001", map[string]string{"type": "USB", "online": "1"})
	writeSupply(t, root, "BAT0", map[string]string{
		"type":        "Battery",
		"status":      "Charging",
		"capacity":    "40",
		"voltage_now": "12000000",
		"current_now": "2000000",
		"charge_now":  "2000000",
		"charge_full": "5000000",
	})

	rec, err := NewSysfsSource(root).Read(context.Background())
	require.NoError(t, err)
	assert.True(t, rec.ExternalConnected)
	assert.Equal(t, int64(2000), rec.Amperage)

	b := ParseBattery(rec, now)
	require.NotNil(t, b.TimeRemaining)
	assert.Equal(t, 90, *b.TimeRemaining) // 3000 mAh to go at 2000 mA
	require.NotNil(t, b.Watts)
	assert.InDelta(t, 24.0, *b.Watts, 1e-9)
}

func TestSysfsExternalConnected(t *testing.T) {
	tests := []struct {
		name     string
		supplies map[string]map[string]string
		status   string
		want     bool
	}{
		{
			name:     "mains offline, discharging",
			supplies: map[string]map[string]string{"AC": {"type": "Mains", "online": "0"}},
			status:   "Discharging",
			want:     false,
		},
		{
			name:     "mains offline, charging",
			supplies: map[string]map[string]string{"AC": {"type": "Mains", "online": "0"}},
			status:   "Charging",
			want:     true,
		},
		{
			name:     "usb_pd online",
			supplies: map[string]map[string]string{"pd0": {"type": "USB_PD", "online": "1"}},
			status:   "Discharging",
			want:     true,
		},
		{
			name:     "battery online flag ignored",
			supplies: map[string]map[string]string{"BAT1": {"type": "Battery", "online": "1"}},
			status:   "Discharging",
			want:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for name, files := range tt.supplies {
				writeSupply(t, root, name, files)
			}
			assert.Equal(t, tt.want, NewSysfsSource(root).externalConnected(tt.status))
		})
	}
}

func TestSysfsFullReportsUnknownTime(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "BAT0", map[string]string{
		"status":      "Full",
		"capacity":    "100",
		"voltage_now": "12900000",
		"current_now": "0",
	})

	rec, err := NewSysfsSource(root).Read(context.Background())
	require.NoError(t, err)

	assert.True(t, rec.ExternalConnected, "falls back to status without a mains supply")
	assert.Equal(t, int64(0), rec.Amperage)
	assert.Equal(t, int64(unknownTimeRemaining), rec.TimeRemaining)
	assert.Nil(t, ParseBattery(rec, now).TimeRemaining)
}

func TestSysfsNegativeCurrentNormalised(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "BAT0", map[string]string{
		"status":      "Discharging",
		"capacity":    "30",
		"voltage_now": "11000000",
		"current_now": "-800000",
	})

	rec, err := NewSysfsSource(root).Read(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(-800), rec.Amperage)
	assert.Equal(t, int64(unknownTimeRemaining), rec.TimeRemaining, "no counters to estimate from")
}

func TestSysfsErrors(t *testing.T) {
	t.Run("no battery", func(t *testing.T) {
		root := t.TempDir()
		writeSupply(t, root, "AC", map[string]string{"type": "Mains", "online": "1"})
		_, err := NewSysfsSource(root).Read(context.Background())
		assert.Error(t, err)
	})

	t.Run("missing voltage", func(t *testing.T) {
		root := t.TempDir()
		writeSupply(t, root, "BAT0", map[string]string{"status": "Discharging", "capacity": "30"})
		_, err := NewSysfsSource(root).Read(context.Background())
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewSysfsSource(t.TempDir()).Read(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
