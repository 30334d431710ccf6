package model

import "time"

// Battery is a point-in-time power reading. Optional values are nil when the
// OS could not produce a meaningful figure.
type Battery struct {
	Time          time.Time `json:"time"`
	Capacity      float64   `json:"capacity"` // fraction 0-1
	VoltageMV     int64     `json:"voltage_mv"`
	AmperageMA    int64     `json:"amperage_ma"` // negative while discharging
	Connected     bool      `json:"connected"`
	TimeRemaining *int      `json:"time_remaining,omitempty"` // minutes to empty or full
	Watts         *float64  `json:"watts,omitempty"`
	TempC         *float64  `json:"temp_c,omitempty"`
}

// CPU holds cumulative time-in-state counters summed across logical cores.
type CPU struct {
	Idle     float64   `json:"idle"`
	Total    float64   `json:"total"`
	BootTime time.Time `json:"boot_time"`
}

// Sample is one tick's combined battery and CPU reading.
type Sample struct {
	Time    time.Time `json:"time"`
	Battery Battery   `json:"battery"`
	CPU     CPU       `json:"cpu"`
}

// Charging reports whether external power was present for the sample.
func (s *Sample) Charging() bool { return s.Battery.Connected }

// Watts is a shortcut to the battery power figure.
func (s *Sample) Watts() *float64 { return s.Battery.Watts }

// Window retains the two anchors used for deltas plus the newest sample.
// Previous is nil right after a reset.
type Window struct {
	Previous *Sample `json:"previous"`
	Next     *Sample `json:"next"`
	Latest   *Sample `json:"latest"`
}

// Derived carries the metrics computed between Previous and Latest.
type Derived struct {
	CPUUsage   *float64 `json:"cpu_usage,omitempty"`   // fraction 0-1
	WattsDelta *float64 `json:"watts_delta,omitempty"` // watts, 0.1 resolution
}

// Snapshot is what a tick hands to the UI and the JSON exporter.
type Snapshot struct {
	Timestamp time.Time     `json:"timestamp"`
	Interval  time.Duration `json:"interval"`
	Window    Window        `json:"window"`
	Derived   Derived       `json:"derived"`
}

// Latest returns the newest sample in the snapshot, or nil before the first tick.
func (s Snapshot) Latest() *Sample { return s.Window.Latest }

// Zero returns an empty snapshot for initialization.
func Zero() Snapshot { return Snapshot{Timestamp: time.Now()} }
