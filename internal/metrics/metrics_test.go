package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"stagehand/internal/core"
)

func scrape(t *testing.T, m *Manager) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestManager_ObserveOutcome(t *testing.T) {
	m := NewManager()

	m.ObserveOutcome(core.Outcome{Task: "login", Success: true, Latency: 10 * time.Millisecond})
	m.ObserveOutcome(core.Outcome{Task: "login", Reason: core.ReasonHTTPStatus})
	m.ObserveOutcome(core.Outcome{Task: "ghost", Reason: core.ReasonSkipped})

	out := scrape(t, m)

	for _, want := range []string{
		`stagehand_attempts_total{result="success",task="login"} 1`,
		`stagehand_attempts_total{result="http-status",task="login"} 1`,
		`stagehand_attempt_duration_seconds_count{task="login"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
	if strings.Contains(out, `task="ghost"`) {
		t.Error("skipped outcomes should not be recorded")
	}
}

func TestManager_RampWorkersAndRuns(t *testing.T) {
	m := NewManager()

	m.SetRampWorkers("burst", 7)
	m.RecordRun(true)
	m.RecordRun(false)
	m.RecordRun(false)

	out := scrape(t, m)

	for _, want := range []string{
		`stagehand_ramp_workers{task="burst"} 7`,
		`stagehand_runs_total{result="pass"} 1`,
		`stagehand_runs_total{result="fail"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

type countReporter struct {
	mu sync.Mutex
	n  int
}

func (r *countReporter) Report(core.Outcome) {
	r.mu.Lock()
	r.n++
	r.mu.Unlock()
}

func TestWrapReporter_PassesThrough(t *testing.T) {
	m := NewManager()
	next := &countReporter{}

	rep := m.WrapReporter(next)
	rep.Report(core.Outcome{Task: "login", Success: true})
	rep.Report(core.Outcome{Task: "login", Success: true})

	if next.n != 2 {
		t.Errorf("wrapped reporter forwarded %d outcomes, expected 2", next.n)
	}
}

func TestWrapReporter_NilManager(t *testing.T) {
	var m *Manager
	next := &countReporter{}

	if got := m.WrapReporter(next); got != core.Reporter(next) {
		t.Error("nil manager should return the next reporter unchanged")
	}
}
