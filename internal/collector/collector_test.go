package collector

import (
	"sync"
	"testing"
	"time"

	"stagehand/internal/core"
)

func TestCollector_ConcurrentFanIn(t *testing.T) {
	c := NewCollector()

	const workers = 20
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				c.Report(core.Outcome{
					Task:     "load",
					WorkerID: id,
					Final:    true,
					Success:  i%2 == 0,
				})
			}
		}(w)
	}
	wg.Wait()
	c.Close()

	outs := c.Outcomes()
	if len(outs) != workers*perWorker {
		t.Errorf("collected %d outcomes, expected %d", len(outs), workers*perWorker)
	}
}

func TestCollector_Counts(t *testing.T) {
	c := NewCollector()
	c.Report(core.Outcome{Task: "a", Final: true, Success: true})
	c.Report(core.Outcome{Task: "a", Final: false, Reason: core.ReasonTransport})
	c.Report(core.Outcome{Task: "a", Final: true, Reason: core.ReasonHTTPStatus})
	c.Report(core.Outcome{Task: "b", Final: true, Reason: core.ReasonSkipped})
	c.Close()

	attempts, failed := c.Counts()
	if attempts != 4 {
		t.Errorf("attempts = %d, expected 4", attempts)
	}
	// Skipped tasks never attempted anything, so they do not count as
	// failed requests in the live counters.
	if failed != 2 {
		t.Errorf("failed = %d, expected 2", failed)
	}
}

func TestCollector_DurationWithFakeClock(t *testing.T) {
	clock := core.NewFakeClock(time.Unix(1000, 0))
	c := NewCollectorWithClock(clock)

	clock.Advance(3 * time.Second)
	if d := c.Duration(); d != 3*time.Second {
		t.Errorf("live duration = %v, expected 3s", d)
	}

	clock.Advance(2 * time.Second)
	c.Close()
	clock.Advance(time.Hour)

	if d := c.Duration(); d != 5*time.Second {
		t.Errorf("closed duration = %v, expected 5s", d)
	}
}

func TestCollector_OutcomesReturnsCopy(t *testing.T) {
	c := NewCollector()
	c.Report(core.Outcome{Task: "a", Final: true, Success: true})
	c.Close()

	first := c.Outcomes()
	first[0].Task = "mutated"

	if got := c.Outcomes()[0].Task; got != "a" {
		t.Errorf("internal slice was mutated through the copy: %q", got)
	}
}
