// Package engine ties the executor, scheduler and collector together
// for a single workflow run.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"stagehand/internal/collector"
	"stagehand/internal/config"
	"stagehand/internal/core"
	"stagehand/internal/metrics"
	"stagehand/internal/request"
	"stagehand/internal/scheduler"
)

// Engine is the explicit execution context for a run: it carries the
// settings, logger and optional instrumentation every component needs,
// instead of hiding them in process-wide state.
type Engine struct {
	settings *config.Settings
	log      *slog.Logger
	metrics  *metrics.Manager
	debug    *request.DebugLogger
}

func New(settings *config.Settings, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{settings: settings, log: log}
}

// SetMetrics attaches a metric registry; outcomes and ramp worker
// counts are recorded there during Run.
func (e *Engine) SetMetrics(m *metrics.Manager) { e.metrics = m }

// SetDebug attaches a verbose request/response logger.
func (e *Engine) SetDebug(d *request.DebugLogger) { e.debug = d }

// Run executes the workflow once and returns its report. The context
// cancels the run externally; the returned error is non-nil only for
// cancellation, since task failures are part of the report.
func (e *Engine) Run(ctx context.Context) (*collector.WorkflowReport, error) {
	return e.RunWith(ctx, collector.NewCollector())
}

// RunWith runs the workflow against a caller-supplied collector, which
// lets the CLI poll it for live progress output. RunWith closes the
// collector before building the report.
func (e *Engine) RunWith(ctx context.Context, coll *collector.Collector) (*collector.WorkflowReport, error) {
	client, err := newHTTPClient(e.settings.HTTP)
	if err != nil {
		return nil, err
	}

	var rep core.Reporter = coll
	rep = e.metrics.WrapReporter(rep)

	exec := request.NewExecutor(client, e.settings.HTTP.DefaultHeaders, e.debug)
	sched := scheduler.New(exec, rep, e.log, scheduler.Options{
		FailFast:     e.settings.Execution.FailFast,
		RetryBackoff: e.settings.Execution.RetryBackoff,
	})
	if e.metrics != nil {
		sched.OnRampActive = e.metrics.SetRampWorkers
	}

	runErr := sched.Run(ctx, &e.settings.Workflow)
	coll.Close()

	report := collector.BuildReport(&e.settings.Workflow, coll.Outcomes(), coll.Duration())
	if e.metrics != nil {
		e.metrics.RecordRun(report.OverallPass)
	}
	return report, runErr
}

func newHTTPClient(cfg config.HTTPSettings) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}
	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}
