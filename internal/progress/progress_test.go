package progress

import (
	"strings"
	"testing"

	"stagehand/internal/collector"
	"stagehand/internal/core"
)

func TestPrintProgress(t *testing.T) {
	c := collector.NewCollector()
	c.Report(core.Outcome{Task: "a", Final: true, Success: true})
	c.Report(core.Outcome{Task: "a", Final: true, Reason: core.ReasonHTTPStatus})
	c.Close()

	p := NewProgress(c, false)
	out := &core.MockWriter{}
	p.SetOutput(out)
	p.Start()
	p.printProgress()
	p.Stop()

	got := out.String()
	if !strings.Contains(got, "Attempts: 2") {
		t.Errorf("missing attempt count: %q", got)
	}
	if !strings.Contains(got, "Errors: 1 (50.0%)") {
		t.Errorf("missing error rate: %q", got)
	}
}

func TestQuietSuppressesOutput(t *testing.T) {
	c := collector.NewCollector()
	c.Close()

	p := NewProgress(c, true)
	out := &core.MockWriter{}
	p.SetOutput(out)
	p.Start()
	p.Printf("hello %s", "world")
	p.Stop()

	if out.String() != "" {
		t.Errorf("quiet mode wrote output: %q", out.String())
	}
}

func TestPrintf(t *testing.T) {
	c := collector.NewCollector()
	c.Close()

	p := NewProgress(c, false)
	out := &core.MockWriter{}
	p.SetOutput(out)
	p.Printf("ramping %s to %d", "burst", 10)

	if !strings.Contains(out.String(), "ramping burst to 10") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c := collector.NewCollector()
	c.Close()

	p := NewProgress(c, false)
	p.SetOutput(&core.MockWriter{})
	p.Start()
	p.Stop()
	p.Stop()
}
