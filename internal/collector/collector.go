// Package collector aggregates request outcomes into a workflow report.
package collector

import (
	"sync"
	"time"

	"stagehand/internal/core"
)

// Collector fans outcomes from many workers into one slice. Workers
// write to a channel; a single goroutine appends, so the hot path takes
// no locks.
type Collector struct {
	outcomes  []core.Outcome
	ch        chan core.Outcome
	done      chan struct{}
	mu        sync.Mutex
	clock     core.Clock
	startTime time.Time
	endTime   time.Time
}

// NewCollector creates a Collector and starts its collection goroutine.
func NewCollector() *Collector {
	return NewCollectorWithClock(core.RealClock{})
}

// NewCollectorWithClock creates a Collector with a custom clock so run
// durations are deterministic in tests.
func NewCollectorWithClock(clock core.Clock) *Collector {
	c := &Collector{
		outcomes:  make([]core.Outcome, 0),
		ch:        make(chan core.Outcome, 1024),
		done:      make(chan struct{}),
		clock:     clock,
		startTime: clock.Now(),
	}
	go c.collect()
	return c
}

func (c *Collector) collect() {
	for out := range c.ch {
		c.mu.Lock()
		c.outcomes = append(c.outcomes, out)
		c.mu.Unlock()
	}
	close(c.done)
}

// Report sends an outcome to the collector. Safe for concurrent use.
// Sends block rather than drop: retry accounting must be exact.
func (c *Collector) Report(out core.Outcome) {
	c.ch <- out
}

// Close stops accepting outcomes and waits for the collection goroutine
// to drain. Call after every worker has finished reporting.
func (c *Collector) Close() {
	c.endTime = c.clock.Now()
	close(c.ch)
	<-c.done
}

// Outcomes returns a copy of the collected outcomes.
func (c *Collector) Outcomes() []core.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]core.Outcome, len(c.outcomes))
	copy(result, c.outcomes)
	return result
}

// Counts returns total and failed attempt counts so far. Used by the
// progress ticker while a run is live.
func (c *Collector) Counts() (attempts, failed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range c.outcomes {
		attempts++
		if !o.Success && o.Reason != core.ReasonSkipped {
			failed++
		}
	}
	return attempts, failed
}

// Duration returns the elapsed run time: start to Close if closed,
// start to now otherwise.
func (c *Collector) Duration() time.Duration {
	if !c.endTime.IsZero() {
		return c.endTime.Sub(c.startTime)
	}
	return c.clock.Since(c.startTime)
}
