// Package window keeps the rolling three-slot sample history and derives
// CPU usage and power-draw change from it.
//
// Previous is the delta baseline. It is held back until Next is older than
// RollAfter or the power reading changes, and the whole window is dropped once
// Previous is older than StaleAfter.
package window

import (
	"time"

	"github.com/Dicklesworthstone/battmon/internal/model"
)

const (
	StaleAfter = 5 * time.Minute
	RollAfter  = 60 * time.Second
)

// Update returns the window after adding s at now. w is never modified; in the
// hold case the returned window shares w's Previous and Next pointers.
func Update(w *model.Window, s model.Sample, now time.Time) *model.Window {
	latest := &s

	if shouldReset(w, s, now) {
		return &model.Window{Next: latest, Latest: latest}
	}
	if now.Sub(w.Next.Time) > RollAfter || !sameWatts(w.Next.Watts(), s.Watts()) {
		return &model.Window{Previous: w.Next, Next: latest, Latest: latest}
	}
	return &model.Window{Previous: w.Previous, Next: w.Next, Latest: latest}
}

func shouldReset(w *model.Window, s model.Sample, now time.Time) bool {
	if w == nil || w.Next == nil || w.Latest == nil {
		return true
	}
	if w.Previous != nil && now.Sub(w.Previous.Time) > StaleAfter {
		return true
	}
	// wall clock stepped back
	return s.Time.Before(w.Latest.Time)
}

func sameWatts(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
