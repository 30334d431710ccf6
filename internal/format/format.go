// Package format renders snapshot values for the menu-bar title, the TUI
// and the JSON title field. Unavailable values render as Placeholder.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/Dicklesworthstone/battmon/internal/model"
)

const Placeholder = "–"

// Title is the one-line menu-bar text, e.g. "⚡ 12.3W +0.4 · 87% · CPU 23%".
func Title(s model.Snapshot) string {
	l := s.Latest()
	if l == nil {
		return Placeholder
	}
	icon := "🔋"
	if l.Battery.Connected {
		icon = "⚡"
	}

	parts := []string{icon + " " + Watts(l.Battery.Watts)}
	if s.Derived.WattsDelta != nil {
		parts[0] += " " + Delta(s.Derived.WattsDelta)
	}
	capacity := l.Battery.Capacity
	parts = append(parts, Percent(&capacity), "CPU "+Percent(s.Derived.CPUUsage))
	return strings.Join(parts, " · ")
}

// Watts renders the power magnitude; direction is shown by the icon.
func Watts(w *float64) string {
	if w == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.1fW", math.Abs(*w))
}

func Delta(d *float64) string {
	if d == nil {
		return Placeholder
	}
	if *d == 0 {
		return "±0.0"
	}
	return fmt.Sprintf("%+.1f", *d)
}

// Percent renders a 0-1 fraction.
func Percent(f *float64) string {
	if f == nil || math.IsNaN(*f) {
		return Placeholder
	}
	return fmt.Sprintf("%.0f%%", *f*100)
}

// Duration renders minutes as h:mm.
func Duration(minutes *int) string {
	if minutes == nil || *minutes < 0 {
		return Placeholder
	}
	return fmt.Sprintf("%d:%02d", *minutes/60, *minutes%60)
}

func Temp(c *float64) string {
	if c == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.1f°C", *c)
}
