package sampler

import (
	"context"
	"time"

	"github.com/Dicklesworthstone/battmon/internal/logger"
	"github.com/Dicklesworthstone/battmon/internal/model"
	"github.com/Dicklesworthstone/battmon/internal/store"
	"github.com/Dicklesworthstone/battmon/internal/window"
)

// Sampler polls battery and CPU on a fixed interval and owns the rolling
// window. Ticks run one at a time, so the window needs no lock.
type Sampler struct {
	Interval time.Duration
	Battery  *BatterySampler
	CPU      *CPUSampler

	store  store.Store
	log    logger.Logger
	window *model.Window
	now    func() time.Time
}

func New(interval time.Duration, battery BatterySource, st store.Store, log logger.Logger) *Sampler {
	if st == nil {
		st = store.Nop{}
	}
	return &Sampler{
		Interval: interval,
		Battery:  &BatterySampler{Source: battery},
		CPU:      NewCPUSampler(),
		store:    st,
		log:      log,
		now:      time.Now,
	}
}

// Restore loads a persisted window. A missing, unreadable or stale entry
// starts the window fresh.
func (s *Sampler) Restore(ctx context.Context) {
	w, err := window.Load(ctx, s.store)
	if err != nil {
		s.log.Warn("window restore failed, starting fresh", "error", err)
		return
	}
	if w != nil && s.now().Sub(w.Latest.Time) > window.StaleAfter {
		s.log.Debug("stored window is stale, starting fresh", "latest", w.Latest.Time)
		w = nil
	}
	if w != nil {
		s.log.Debug("window restored", "latest", w.Latest.Time)
	}
	s.window = w
}

// Tick takes one combined sample and folds it into the window. When either
// source is unavailable the window is left as it was.
func (s *Sampler) Tick(ctx context.Context, now time.Time) (model.Snapshot, error) {
	batt, err := s.Battery.Sample(ctx, now)
	if err != nil {
		s.log.Warn("tick skipped", "error", err)
		return model.Snapshot{}, err
	}
	cpu, err := s.CPU.Sample(ctx)
	if err != nil {
		s.log.Warn("tick skipped", "error", err)
		return model.Snapshot{}, err
	}

	s.window = window.Update(s.window, model.Sample{Time: now, Battery: batt, CPU: cpu}, now)
	if err := window.Save(ctx, s.store, s.window); err != nil {
		s.log.Warn("window persist failed", "error", err)
	}

	snap := s.Snapshot(now)
	s.log.Debug("tick",
		"capacity", batt.Capacity,
		"connected", batt.Connected,
		"anchored", s.window.Previous != nil)
	return snap, nil
}

// Snapshot reports the current window and its derived metrics.
func (s *Sampler) Snapshot(now time.Time) model.Snapshot {
	snap := model.Snapshot{Timestamp: now, Interval: s.Interval}
	if s.window != nil {
		snap.Window = *s.window
	}
	snap.Derived = window.Derive(s.window)
	return snap
}

// Stream returns a channel that receives a snapshot after every successful
// tick until ctx is done. The first tick runs immediately.
func (s *Sampler) Stream(ctx context.Context) <-chan model.Snapshot {
	ch := make(chan model.Snapshot)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		s.Restore(ctx)
		s.emit(ctx, ch)
		for {
			select {
			case <-ticker.C:
				s.emit(ctx, ch)
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (s *Sampler) emit(ctx context.Context, ch chan<- model.Snapshot) {
	snap, err := s.Tick(ctx, s.now())
	if err != nil {
		return
	}
	select {
	case ch <- snap:
	case <-ctx.Done():
	}
}
