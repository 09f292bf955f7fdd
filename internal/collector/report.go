package collector

import (
	"time"

	"stagehand/internal/config"
	"stagehand/internal/core"
)

// TaskResult aggregates one task's outcomes.
type TaskResult struct {
	Name        string          `json:"name"`
	TaskOrder   int             `json:"task_order"`
	Pass        bool            `json:"pass"`
	Skipped     bool            `json:"skipped,omitempty"`
	Reason      core.FailReason `json:"reason,omitempty"`
	Requests    int             `json:"requests"` // logical requests (final outcomes)
	Attempts    int             `json:"attempts"` // including retries
	Retries     int             `json:"retries"`
	Failures    int             `json:"failures"`     // requests that exhausted retries or failed validation
	FailureRate float64         `json:"failure_rate"` // failed attempts / attempts
	Latency     *LatencyStats   `json:"latency_stats,omitempty"`
}

// WorkflowReport is the final verdict for a workflow run.
type WorkflowReport struct {
	WorkflowName string        `json:"workflow_name"`
	OverallPass  bool          `json:"overall_pass"`
	Duration     time.Duration `json:"duration"`
	Tasks        []TaskResult  `json:"tasks"`
}

// BuildReport assembles task results in declaration order, not
// execution order. The workflow passes only if every task passed.
func BuildReport(wf *config.Workflow, outcomes []core.Outcome, duration time.Duration) *WorkflowReport {
	byTask := make(map[string][]core.Outcome)
	for _, o := range outcomes {
		byTask[o.Task] = append(byTask[o.Task], o)
	}

	report := &WorkflowReport{
		WorkflowName: wf.Name,
		OverallPass:  true,
		Duration:     duration,
		Tasks:        make([]TaskResult, 0, len(wf.Tasks)),
	}

	for i := range wf.Tasks {
		t := &wf.Tasks[i]
		tr := buildTaskResult(t, byTask[t.Name])
		if !tr.Pass {
			report.OverallPass = false
		}
		report.Tasks = append(report.Tasks, tr)
	}
	return report
}

func buildTaskResult(t *config.Task, outs []core.Outcome) TaskResult {
	tr := TaskResult{
		Name:      t.Name,
		TaskOrder: t.TaskOrder,
	}

	var failedAttempts int
	var latencies []time.Duration

	for _, o := range outs {
		if o.Reason == core.ReasonSkipped {
			tr.Skipped = true
			tr.Reason = core.ReasonSkipped
			continue
		}

		tr.Attempts++
		latencies = append(latencies, o.Latency)
		if !o.Success {
			failedAttempts++
		}
		if o.Final {
			tr.Requests++
			if !o.Success {
				tr.Failures++
				if tr.Reason == "" {
					tr.Reason = o.Reason
				}
			}
		}
	}

	tr.Retries = tr.Attempts - tr.Requests
	if tr.Attempts > 0 {
		tr.FailureRate = float64(failedAttempts) / float64(tr.Attempts)
	}

	tr.Pass = !tr.Skipped && tr.Requests > 0 && tr.Failures == 0

	if t.LoadTest && len(latencies) > 0 {
		stats := ComputeLatencyStats(latencies)
		tr.Latency = &stats
	}
	return tr
}
