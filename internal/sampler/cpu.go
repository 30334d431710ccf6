package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/Dicklesworthstone/battmon/internal/model"
)

// CPUSampler sums per-core time-in-state counters. Times and BootTime default
// to gopsutil and are swappable in tests.
type CPUSampler struct {
	Times    func(ctx context.Context, percpu bool) ([]cpu.TimesStat, error)
	BootTime func(ctx context.Context) (uint64, error)

	boot time.Time
}

func NewCPUSampler() *CPUSampler {
	return &CPUSampler{
		Times:    cpu.TimesWithContext,
		BootTime: host.BootTimeWithContext,
	}
}

// Sample returns idle and total counters across all logical cores.
func (c *CPUSampler) Sample(ctx context.Context) (model.CPU, error) {
	times, err := c.Times(ctx, true)
	if err != nil || len(times) == 0 {
		// Some platforms only expose the aggregate; the sum is the same.
		times, err = c.Times(ctx, false)
	}
	if err != nil {
		return model.CPU{}, fmt.Errorf("%w: cpu times: %v", ErrSourceUnavailable, err)
	}
	if len(times) == 0 {
		return model.CPU{}, fmt.Errorf("%w: cpu times: empty", ErrSourceUnavailable)
	}

	var out model.CPU
	for _, t := range times {
		out.Idle += t.Idle
		out.Total += t.User + t.Nice + t.System + t.Idle + t.Irq
	}
	out.BootTime = c.bootTime(ctx)
	return out, nil
}

// bootTime is looked up once; a failed lookup leaves it zero and is retried.
func (c *CPUSampler) bootTime(ctx context.Context) time.Time {
	if !c.boot.IsZero() || c.BootTime == nil {
		return c.boot
	}
	if secs, err := c.BootTime(ctx); err == nil && secs > 0 {
		c.boot = time.Unix(int64(secs), 0).UTC()
	}
	return c.boot
}
