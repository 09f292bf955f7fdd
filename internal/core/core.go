// Package core defines the fundamental types shared by the stagehand engine.
package core

import "time"

// FailReason classifies why a request attempt failed validation.
type FailReason string

const (
	// ReasonTransport covers DNS, connect and timeout failures.
	ReasonTransport FailReason = "transport"
	// ReasonHTTPStatus means the response status was outside 2xx.
	ReasonHTTPStatus FailReason = "http-status"
	// ReasonLatency means the response exceeded the task's threshold.
	ReasonLatency FailReason = "latency"
	// ReasonMissingField means the expected field was absent from the
	// response body, or the body was not valid JSON.
	ReasonMissingField FailReason = "missing-field"
	// ReasonSkipped marks a task never dispatched (fail-fast stop).
	ReasonSkipped FailReason = "skipped"
)

// Outcome records a single request attempt against a task.
type Outcome struct {
	Task       string
	WorkerID   int
	Timestamp  time.Time
	Attempt    int  // 0-based attempt index within one logical request
	Final      bool // last attempt for this request (success or retries exhausted)
	Success    bool
	Latency    time.Duration
	StatusCode int        // 0 on transport error
	Reason     FailReason // empty on success
	Error      string     // transport error detail
}

// Reporter is the sink workers use to record outcomes.
// Implementations must be safe for concurrent use.
type Reporter interface {
	Report(Outcome)
}

// NullReporter discards all outcomes.
var NullReporter Reporter = nullReporter{}

type nullReporter struct{}

func (nullReporter) Report(Outcome) {}
