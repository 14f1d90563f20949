// Package monitoring records the cost of each stage of a table pipeline.
package monitoring

import (
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/paveg/colframe/internal/logging"
	cfmemory "github.com/paveg/colframe/internal/memory"
	"github.com/paveg/colframe/internal/table"
)

// StageMetrics describes one finished stage and the table it produced or
// consumed.
type StageMetrics struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
	Rows     int           `json:"rows"`
	Columns  int           `json:"columns"`
	Bytes    int64         `json:"bytes"`
	Failed   bool          `json:"failed"`
}

// Collector accumulates StageMetrics. A disabled collector still runs
// every stage but records nothing.
type Collector struct {
	mu      sync.RWMutex
	stages  []StageMetrics
	enabled bool
	now     func() time.Time
}

// NewCollector creates a collector.
func NewCollector(enabled bool) *Collector {
	return &Collector{enabled: enabled, now: time.Now}
}

// IsEnabled returns whether stages are being recorded.
func (c *Collector) IsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// Record runs fn and records how long it took along with the shape of the
// table it returned.
func (c *Collector) Record(stage string, fn func() (*table.Table, error)) (*table.Table, error) {
	if !c.IsEnabled() {
		return fn()
	}
	start := c.now()
	t, err := fn()
	c.add(stage, c.now().Sub(start), t, err)
	return t, err
}

// Observe runs fn, which consumes t, and records it like Record.
func (c *Collector) Observe(stage string, t *table.Table, fn func() error) error {
	if !c.IsEnabled() {
		return fn()
	}
	start := c.now()
	err := fn()
	c.add(stage, c.now().Sub(start), t, err)
	return err
}

func (c *Collector) add(stage string, d time.Duration, t *table.Table, err error) {
	m := StageMetrics{Stage: stage, Duration: d, Failed: err != nil}
	if t != nil && err == nil {
		m.Rows, m.Columns, m.Bytes = t.Len(), t.Width(), Footprint(t)
	}
	c.mu.Lock()
	c.stages = append(c.stages, m)
	c.mu.Unlock()
}

// Footprint returns the bytes held by t's buffers. Buffers shared between
// columns are counted once per column.
func Footprint(t *table.Table) int64 {
	var n int64
	for _, col := range t.Columns() {
		n += cfmemory.BufferFootprint(col.Data())
	}
	return n
}

// Stages returns a copy of the recorded stages in order.
func (c *Collector) Stages() []StageMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]StageMetrics(nil), c.stages...)
}

// Summary aggregates the recorded stages.
type Summary struct {
	Stages        int           `json:"stages"`
	Failed        int           `json:"failed"`
	TotalDuration time.Duration `json:"total_duration"`
	PeakBytes     int64         `json:"peak_bytes"`
}

// Summary returns aggregate statistics over every recorded stage.
func (c *Collector) Summary() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Summary{Stages: len(c.stages)}
	for _, m := range c.stages {
		s.TotalDuration += m.Duration
		s.PeakBytes = max(s.PeakBytes, m.Bytes)
		if m.Failed {
			s.Failed++
		}
	}
	return s
}

// Log writes one info line per stage followed by the summary.
func (c *Collector) Log(logger log.Logger) {
	logger = level.Info(logging.OrNop(logger))
	for _, m := range c.Stages() {
		logger.Log("msg", "stage", "stage", m.Stage, "duration", m.Duration,
			"rows", m.Rows, "columns", m.Columns, "bytes", m.Bytes, "failed", m.Failed)
	}
	s := c.Summary()
	logger.Log("msg", "pipeline", "stages", s.Stages, "failed", s.Failed,
		"duration", s.TotalDuration, "peak_bytes", s.PeakBytes)
}
