package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// FormatText writes the report in human-readable form.
func FormatText(w io.Writer, r *WorkflowReport) {
	verdict := "PASS"
	if !r.OverallPass {
		verdict = "FAIL"
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Stagehand - Workflow Results")
	fmt.Fprintln(w, "============================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Workflow: %s\n", r.WorkflowName)
	fmt.Fprintf(w, "Overall:  %s\n", verdict)
	fmt.Fprintf(w, "Duration: %v\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Tasks:")

	for _, t := range r.Tasks {
		symbol := "✓"
		if !t.Pass {
			symbol = "✗"
		}
		switch {
		case t.Skipped:
			fmt.Fprintf(w, "  %s %-20s order=%d  skipped\n", symbol, t.Name, t.TaskOrder)
		case t.Latency != nil:
			fmt.Fprintf(w, "  %s %-20s order=%d  %d reqs (%d attempts)  fail=%.1f%%  p50=%s p95=%s p99=%s\n",
				symbol, t.Name, t.TaskOrder, t.Requests, t.Attempts, t.FailureRate*100,
				FormatDuration(t.Latency.P50), FormatDuration(t.Latency.P95), FormatDuration(t.Latency.P99))
		default:
			line := fmt.Sprintf("  %s %-20s order=%d", symbol, t.Name, t.TaskOrder)
			if t.Reason != "" {
				line += fmt.Sprintf("  reason=%s", t.Reason)
			}
			fmt.Fprintln(w, line)
		}
	}
}

// FormatJSON writes the report as JSON with readable durations.
func FormatJSON(w io.Writer, r *WorkflowReport) error {
	type latencyView struct {
		Min string `json:"min"`
		Avg string `json:"avg"`
		Max string `json:"max"`
		P50 string `json:"p50"`
		P95 string `json:"p95"`
		P99 string `json:"p99"`
	}
	type taskView struct {
		Name        string       `json:"name"`
		TaskOrder   int          `json:"task_order"`
		Pass        bool         `json:"pass"`
		Skipped     bool         `json:"skipped,omitempty"`
		Reason      string       `json:"reason,omitempty"`
		Requests    int          `json:"requests"`
		Attempts    int          `json:"attempts"`
		Retries     int          `json:"retries"`
		Failures    int          `json:"failures"`
		FailureRate float64      `json:"failure_rate"`
		Latency     *latencyView `json:"latency_stats,omitempty"`
	}

	out := struct {
		WorkflowName string     `json:"workflow_name"`
		OverallPass  bool       `json:"overall_pass"`
		Duration     string     `json:"duration"`
		Tasks        []taskView `json:"tasks"`
	}{
		WorkflowName: r.WorkflowName,
		OverallPass:  r.OverallPass,
		Duration:     r.Duration.Round(time.Millisecond).String(),
	}

	for _, t := range r.Tasks {
		tv := taskView{
			Name:        t.Name,
			TaskOrder:   t.TaskOrder,
			Pass:        t.Pass,
			Skipped:     t.Skipped,
			Reason:      string(t.Reason),
			Requests:    t.Requests,
			Attempts:    t.Attempts,
			Retries:     t.Retries,
			Failures:    t.Failures,
			FailureRate: t.FailureRate,
		}
		if t.Latency != nil {
			tv.Latency = &latencyView{
				Min: FormatDuration(t.Latency.Min),
				Avg: FormatDuration(t.Latency.Avg),
				Max: FormatDuration(t.Latency.Max),
				P50: FormatDuration(t.Latency.P50),
				P95: FormatDuration(t.Latency.P95),
				P99: FormatDuration(t.Latency.P99),
			}
		}
		out.Tasks = append(out.Tasks, tv)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}
