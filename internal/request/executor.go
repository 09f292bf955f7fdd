// Package request issues single HTTP attempts and measures their latency.
package request

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"stagehand/internal/config"
)

const (
	// timeoutMultiplier scales a task's response time threshold into a
	// per-attempt timeout so a hung request cannot starve the ramp.
	timeoutMultiplier = 3
	// minAttemptTimeout is the floor for very tight thresholds.
	minAttemptTimeout = 1 * time.Second
	// maxBodySize limits how much of a response body is kept for
	// validation and debug logging.
	maxBodySize = 10 * 1024 * 1024 // 10MB
)

// Result is the raw outcome of one HTTP attempt. It carries no
// business-level verdict; validation happens elsewhere.
type Result struct {
	StatusCode int
	Body       []byte
	Latency    time.Duration
	Err        string // transport error detail, empty on a completed exchange
}

// TransportError reports whether the attempt failed before a response
// was fully received.
func (r Result) TransportError() bool {
	return r.Err != ""
}

// Executor issues one HTTP request per Do call using the task's method,
// URL, headers and body verbatim. Document-level default headers are
// applied first so a task can override them.
type Executor struct {
	client         *http.Client
	defaultHeaders map[string]string
	debug          *DebugLogger
}

func NewExecutor(client *http.Client, defaultHeaders map[string]string, debug *DebugLogger) *Executor {
	return &Executor{
		client:         client,
		defaultHeaders: defaultHeaders,
		debug:          debug,
	}
}

// Do issues exactly one attempt against the task. Latency is measured
// from send to full-response receipt. A timeout or connection failure
// yields a transport-error Result, never an error value: the ramp and
// scheduler treat every attempt as an outcome.
func (e *Executor) Do(ctx context.Context, workerID int, task *config.Task) Result {
	ctx, cancel := context.WithTimeout(ctx, attemptTimeout(task))
	defer cancel()

	var body io.Reader
	if task.Body != "" {
		body = strings.NewReader(task.Body)
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, task.Method, task.URL, body)
	if err != nil {
		return Result{Latency: time.Since(start), Err: err.Error()}
	}

	for k, v := range e.defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range task.Headers {
		req.Header.Set(k, v)
	}

	e.debug.LogRequest(workerID, task.Name, req)

	resp, err := e.client.Do(req)
	if err != nil {
		latency := time.Since(start)
		e.debug.LogError(workerID, task.Name, err.Error(), latency)
		return Result{Latency: latency, Err: err.Error()}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	_, _ = io.Copy(io.Discard, resp.Body) // drain errors are ignorable
	latency := time.Since(start)

	if readErr != nil {
		e.debug.LogError(workerID, task.Name, readErr.Error(), latency)
		return Result{StatusCode: resp.StatusCode, Latency: latency, Err: readErr.Error()}
	}

	e.debug.LogResponse(workerID, task.Name, resp, respBody, latency)

	return Result{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Latency:    latency,
	}
}

func attemptTimeout(task *config.Task) time.Duration {
	t := task.Threshold() * timeoutMultiplier
	if t < minAttemptTimeout {
		t = minAttemptTimeout
	}
	return t
}
