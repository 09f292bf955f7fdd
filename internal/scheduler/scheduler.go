// Package scheduler orders tasks into groups and runs each group to
// completion before admitting the next.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"stagehand/internal/config"
	"stagehand/internal/core"
	"stagehand/internal/ramp"
	"stagehand/internal/request"
	"stagehand/internal/validate"
)

// Group is the set of tasks sharing one task_order value. Groups are
// derived once at run start and immutable thereafter; tasks within a
// group run concurrently.
type Group struct {
	Order int
	Tasks []*config.Task
}

// GroupTasks derives groups in ascending task_order. Order values need
// not be contiguous; ties land in the same group.
func GroupTasks(tasks []config.Task) []Group {
	byOrder := make(map[int][]*config.Task)
	for i := range tasks {
		t := &tasks[i]
		byOrder[t.TaskOrder] = append(byOrder[t.TaskOrder], t)
	}

	orders := make([]int, 0, len(byOrder))
	for order := range byOrder {
		orders = append(orders, order)
	}
	sort.Ints(orders)

	groups := make([]Group, 0, len(orders))
	for _, order := range orders {
		groups = append(groups, Group{Order: order, Tasks: byOrder[order]})
	}
	return groups
}

// Options control scheduling policy.
type Options struct {
	// FailFast stops admitting new groups after a group with a failed
	// task completes. The default runs the whole workflow and reports
	// every failure.
	FailFast bool
	// RetryBackoff is the fixed delay between transport retry attempts.
	RetryBackoff time.Duration
}

// Scheduler runs a workflow's task groups in order.
type Scheduler struct {
	exec *request.Executor
	rep  core.Reporter
	log  *slog.Logger
	opts Options

	// OnRampActive, when set, observes ramp worker counts per task.
	OnRampActive func(task string, active int)
}

func New(exec *request.Executor, rep core.Reporter, log *slog.Logger, opts Options) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 100 * time.Millisecond
	}
	return &Scheduler{
		exec: exec,
		rep:  rep,
		log:  log,
		opts: opts,
	}
}

// Run executes every group in ascending order. All tasks of group N
// complete (or are cancelled) before group N+1 dispatches. A failing
// task never aborts its siblings; under FailFast the remaining groups
// are skipped and their tasks reported as such. Run returns ctx.Err()
// when the run was cancelled externally.
func (s *Scheduler) Run(ctx context.Context, wf *config.Workflow) error {
	groups := GroupTasks(wf.Tasks)
	s.log.Info("starting workflow", "workflow", wf.Name, "groups", len(groups), "tasks", len(wf.Tasks))

	stopped := false
	for _, g := range groups {
		if ctx.Err() != nil || stopped {
			for _, t := range g.Tasks {
				s.reportSkipped(t)
			}
			continue
		}

		s.log.Info("starting group", "order", g.Order, "tasks", len(g.Tasks))

		var wg sync.WaitGroup
		var groupFailed atomic.Bool
		for _, t := range g.Tasks {
			wg.Add(1)
			go func(t *config.Task) {
				defer wg.Done()
				if !s.runTask(ctx, t) {
					groupFailed.Store(true)
				}
			}(t)
		}
		wg.Wait()

		if groupFailed.Load() && s.opts.FailFast {
			s.log.Warn("stopping workflow after failed group", "order", g.Order)
			stopped = true
		}
	}
	return ctx.Err()
}

func (s *Scheduler) runTask(ctx context.Context, t *config.Task) bool {
	if t.LoadTest {
		return s.runLoadTest(ctx, t)
	}
	return s.runSingle(ctx, t)
}

// runSingle issues one validated request for a non-load task.
func (s *Scheduler) runSingle(ctx context.Context, t *config.Task) bool {
	res := s.exec.Do(ctx, 0, t)
	verdict := validate.Check(res, t)

	out := core.Outcome{
		Task:       t.Name,
		Timestamp:  time.Now(),
		Final:      true,
		Success:    verdict.Pass,
		Latency:    res.Latency,
		StatusCode: res.StatusCode,
		Error:      res.Err,
	}
	if !verdict.Pass {
		out.Reason = verdict.Reason
	}
	s.rep.Report(out)

	if verdict.Pass {
		s.log.Info("task succeeded", "task", t.Name, "status", res.StatusCode, "latency", res.Latency.Round(time.Millisecond))
	} else {
		s.log.Error("task failed", "task", t.Name, "reason", string(verdict.Reason), "status", res.StatusCode, "error", res.Err)
	}
	return verdict.Pass
}

func (s *Scheduler) runLoadTest(ctx context.Context, t *config.Task) bool {
	cfg := t.LoadTestConfig
	s.log.Info("starting load ramp", "task", t.Name,
		"initial_load", cfg.InitialLoad, "max_load", cfg.MaxLoad,
		"spawn_rate", cfg.SpawnRate, "max_duration_secs", cfg.MaxDurationSecs)

	ctrl := ramp.NewController(t, s.exec, s.rep, s.opts.RetryBackoff)
	if s.OnRampActive != nil {
		name := t.Name
		ctrl.OnActiveChange = func(active int) { s.OnRampActive(name, active) }
	}
	ctrl.Run(ctx)

	failures := ctrl.FinalFailures()
	if failures > 0 {
		s.log.Error("load ramp finished with failures", "task", t.Name, "failures", failures)
		return false
	}
	s.log.Info("load ramp finished", "task", t.Name)
	return true
}

func (s *Scheduler) reportSkipped(t *config.Task) {
	s.rep.Report(core.Outcome{
		Task:      t.Name,
		Timestamp: time.Now(),
		Final:     true,
		Reason:    core.ReasonSkipped,
	})
}
