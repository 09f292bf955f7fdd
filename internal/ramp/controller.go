// Package ramp drives the concurrency ramp for a single load-test task.
package ramp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"stagehand/internal/config"
	"stagehand/internal/core"
	"stagehand/internal/ratelimit"
	"stagehand/internal/request"
	"stagehand/internal/validate"
)

// spawnTickInterval is how often the controller adds spawn_rate workers
// until max_load is reached.
const spawnTickInterval = 1 * time.Second

// Controller executes one task repeatedly under increasing concurrency.
// It starts initial_load workers, adds spawn_rate workers per tick
// clamped to max_load, and stops hard when max_duration elapses.
type Controller struct {
	task    *config.Task
	cfg     config.LoadTestConfig
	exec    *request.Executor
	rep     core.Reporter
	limiter *ratelimit.Limiter
	backoff time.Duration

	// OnActiveChange, when set, observes the active worker count after
	// every spawn and stop. Used for the worker gauge.
	OnActiveChange func(active int)

	nextID        atomic.Int64
	activeCount   atomic.Int32
	finalFailures atomic.Int64
	wg            sync.WaitGroup
	stopMu        sync.Mutex
	stopChans     []chan struct{}
}

// NewController builds a controller for a load-test task. The task must
// carry a LoadTestConfig; the config loader guarantees that.
func NewController(task *config.Task, exec *request.Executor, rep core.Reporter, retryBackoff time.Duration) *Controller {
	cfg := *task.LoadTestConfig
	return &Controller{
		task:    task,
		cfg:     cfg,
		exec:    exec,
		rep:     rep,
		limiter: ratelimit.NewLimiter(cfg.RPS),
		backoff: retryBackoff,
	}
}

// ActiveWorkers returns the current number of ramp workers.
func (c *Controller) ActiveWorkers() int {
	return int(c.activeCount.Load())
}

// FinalFailures returns how many logical requests exhausted their
// retries or failed validation. Zero means the task passed.
func (c *Controller) FinalFailures() int64 {
	return c.finalFailures.Load()
}

// Run drives the ramp until max_duration elapses or ctx is cancelled,
// whichever comes first. It returns once every worker has exited; no
// new requests are dispatched after the deadline.
func (c *Controller) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.MaxDuration())
	defer cancel()

	c.spawn(ctx, c.cfg.InitialLoad)

	if c.cfg.InitialLoad >= c.cfg.MaxLoad {
		// Flat concurrency, no ramp-up ticks needed.
		<-ctx.Done()
	} else {
		c.tickLoop(ctx)
	}

	c.stopAll()
	c.wg.Wait()
	c.notifyActive()
}

func (c *Controller) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(spawnTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			active := c.ActiveWorkers()
			if active >= c.cfg.MaxLoad {
				continue
			}
			n := c.cfg.SpawnRate
			if active+n > c.cfg.MaxLoad {
				n = c.cfg.MaxLoad - active
			}
			c.spawn(ctx, n)
		}
	}
}

func (c *Controller) spawn(ctx context.Context, count int) {
	for i := 0; i < count; i++ {
		stopCh := make(chan struct{})
		workerID := int(c.nextID.Add(1))
		c.activeCount.Add(1)
		c.wg.Add(1)

		c.stopMu.Lock()
		c.stopChans = append(c.stopChans, stopCh)
		c.stopMu.Unlock()

		go func(id int, stop chan struct{}) {
			defer func() {
				c.activeCount.Add(-1)
				c.wg.Done()
			}()
			defer c.recoverPanic(id)
			for {
				select {
				case <-ctx.Done():
					return
				case <-stop:
					return
				default:
					c.runRequest(ctx, id)
				}
			}
		}(workerID, stopCh)
	}
	c.notifyActive()
}

func (c *Controller) stopAll() {
	c.stopMu.Lock()
	for _, ch := range c.stopChans {
		close(ch)
	}
	c.stopChans = nil
	c.stopMu.Unlock()
}

func (c *Controller) notifyActive() {
	if c.OnActiveChange != nil {
		c.OnActiveChange(c.ActiveWorkers())
	}
}

// runRequest executes one logical request: a first attempt plus up to
// retry_count retries for transport failures. Every attempt is reported
// as an Outcome; exactly one carries Final so the request contributes a
// single verdict to the task result.
func (c *Controller) runRequest(ctx context.Context, workerID int) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}

		res := c.exec.Do(ctx, workerID, c.task)
		verdict := validate.Check(res, c.task)

		retry := !verdict.Pass &&
			verdict.Reason == core.ReasonTransport &&
			attempt < c.cfg.RetryCount &&
			ctx.Err() == nil // a cancelled attempt is final

		out := core.Outcome{
			Task:       c.task.Name,
			WorkerID:   workerID,
			Timestamp:  time.Now(),
			Attempt:    attempt,
			Final:      !retry,
			Success:    verdict.Pass,
			Latency:    res.Latency,
			StatusCode: res.StatusCode,
			Error:      res.Err,
		}
		if !verdict.Pass {
			out.Reason = verdict.Reason
			if !retry {
				c.finalFailures.Add(1)
			}
		}
		c.rep.Report(out)

		if !retry {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff):
		}
	}
}

func (c *Controller) recoverPanic(workerID int) {
	if r := recover(); r != nil {
		c.finalFailures.Add(1)
		c.rep.Report(core.Outcome{
			Task:      c.task.Name,
			WorkerID:  workerID,
			Timestamp: time.Now(),
			Final:     true,
			Reason:    core.ReasonTransport,
			Error:     fmt.Sprintf("panic: %v", r),
		})
	}
}
