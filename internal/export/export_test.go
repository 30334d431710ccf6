package export

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/battmon/internal/model"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func snapshot() model.Snapshot {
	prev := &model.Sample{Time: t0.Add(-time.Minute), Battery: model.Battery{Capacity: 0.81, Watts: ptr(-11.0)}}
	latest := &model.Sample{Time: t0, Battery: model.Battery{
		Capacity:      0.8,
		Watts:         ptr(-11.5),
		TimeRemaining: ptr(190),
	}}
	return model.Snapshot{
		Timestamp: t0,
		Interval:  30 * time.Second,
		Window:    model.Window{Previous: prev, Next: latest, Latest: latest},
		Derived:   model.Derived{CPUUsage: ptr(0.25), WattsDelta: ptr(-0.5)},
	}
}

func TestNewRecord(t *testing.T) {
	r := NewRecord(snapshot())

	assert.Equal(t, "2026-03-01T12:00:00Z", r.Timestamp)
	require.NotNil(t, r.Capacity)
	assert.Equal(t, 0.8, *r.Capacity)
	assert.Equal(t, 190, *r.TimeRemaining)
	assert.Equal(t, -11.5, *r.Watts)
	assert.Equal(t, -0.5, *r.WattsDelta)
	assert.True(t, r.Anchored)
	assert.Equal(t, "🔋 11.5W -0.5 · 80% · CPU 25%", r.Title)
}

func TestNewRecordEmpty(t *testing.T) {
	r := NewRecord(model.Snapshot{Timestamp: t0})
	assert.Nil(t, r.Capacity)
	assert.Nil(t, r.Watts)
	assert.False(t, r.Anchored)
}

func TestWriteOneUnavailableIsNull(t *testing.T) {
	s := snapshot()
	s.Derived = model.Derived{}

	var buf bytes.Buffer
	require.NoError(t, WriteOne(&buf, s))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Contains(t, out, "cpu_usage")
	assert.Nil(t, out["cpu_usage"])
	assert.Nil(t, out["watts_delta"])
	assert.NotContains(t, buf.String(), "NaN")
}

func TestStream(t *testing.T) {
	ch := make(chan model.Snapshot, 2)
	ch <- snapshot()
	ch <- snapshot()
	close(ch)

	var buf bytes.Buffer
	require.NoError(t, Stream(context.Background(), &buf, ch))

	sc := bufio.NewScanner(&buf)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lines := 0
	for sc.Scan() {
		var r Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestStreamStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	assert.NoError(t, Stream(ctx, &buf, make(chan model.Snapshot)))
	assert.Zero(t, buf.Len())
}
