package window

import (
	"math"

	"github.com/Dicklesworthstone/battmon/internal/model"
)

// bootSkew tolerates rounding in the reported boot time.
const bootSkew = 2 // seconds

// CPUUsage returns the busy fraction between two counter samples. It reports
// false when the counters went backwards, idle outgrew total, nothing elapsed,
// or the samples come from different boots.
func CPUUsage(prev, latest model.CPU) (float64, bool) {
	if !prev.BootTime.IsZero() && !latest.BootTime.IsZero() {
		if d := latest.BootTime.Unix() - prev.BootTime.Unix(); d > bootSkew || d < -bootSkew {
			return 0, false
		}
	}
	idle := latest.Idle - prev.Idle
	total := latest.Total - prev.Total
	if total <= 0 || idle < 0 || idle > total {
		return 0, false
	}
	return 1 - idle/total, true
}

// WattsDelta returns latest minus prev watts, rounded half-up to 0.1 W. A
// change of power source in between makes the delta meaningless.
func WattsDelta(prev, latest model.Sample) (float64, bool) {
	pw, lw := prev.Watts(), latest.Watts()
	if pw == nil || lw == nil {
		return 0, false
	}
	if prev.Charging() != latest.Charging() {
		return 0, false
	}
	return math.Floor((*lw-*pw)*10+0.5) / 10, true
}

// Derive computes both metrics between w.Previous and w.Latest.
func Derive(w *model.Window) model.Derived {
	var d model.Derived
	if w == nil || w.Previous == nil || w.Latest == nil {
		return d
	}
	if u, ok := CPUUsage(w.Previous.CPU, w.Latest.CPU); ok {
		d.CPUUsage = &u
	}
	if dw, ok := WattsDelta(*w.Previous, *w.Latest); ok {
		d.WattsDelta = &dw
	}
	return d
}
