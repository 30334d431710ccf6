// Package export writes snapshots as JSON for scripts and status bars.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Dicklesworthstone/battmon/internal/format"
	"github.com/Dicklesworthstone/battmon/internal/model"
)

// Record is the flattened view written per snapshot.
type Record struct {
	Timestamp     string   `json:"timestamp"`
	Capacity      *float64 `json:"capacity"`
	Connected     *bool    `json:"connected"`
	TimeRemaining *int     `json:"time_remaining_min"`
	Watts         *float64 `json:"watts"`
	WattsDelta    *float64 `json:"watts_delta"`
	CPUUsage      *float64 `json:"cpu_usage"`
	TempC         *float64 `json:"temp_c"`
	Anchored      bool     `json:"anchored"`
	Title         string   `json:"title"`

	Window model.Window `json:"window"`
}

func NewRecord(s model.Snapshot) Record {
	r := Record{
		Timestamp:  s.Timestamp.UTC().Format(time.RFC3339),
		WattsDelta: s.Derived.WattsDelta,
		CPUUsage:   s.Derived.CPUUsage,
		Anchored:   s.Window.Previous != nil,
		Title:      format.Title(s),
		Window:     s.Window,
	}
	if l := s.Latest(); l != nil {
		capacity, connected := l.Battery.Capacity, l.Battery.Connected
		r.Capacity = &capacity
		r.Connected = &connected
		r.TimeRemaining = l.Battery.TimeRemaining
		r.Watts = l.Battery.Watts
		r.TempC = l.Battery.TempC
	}
	return r
}

// WriteOne writes a single indented record.
func WriteOne(w io.Writer, s model.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewRecord(s)); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Stream writes one compact record per line until the channel closes or ctx
// is done.
func Stream(ctx context.Context, w io.Writer, snaps <-chan model.Snapshot) error {
	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-snaps:
			if !ok {
				return nil
			}
			if err := enc.Encode(NewRecord(s)); err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}
		}
	}
}
