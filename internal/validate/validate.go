// Package validate applies a task's pass/fail rules to a raw request result.
package validate

import (
	"bytes"

	"github.com/tidwall/gjson"

	"stagehand/internal/config"
	"stagehand/internal/core"
	"stagehand/internal/request"
)

// Verdict is the outcome of validating one attempt.
type Verdict struct {
	Pass   bool
	Reason core.FailReason // first violated rule, empty on pass
}

// Check evaluates all rules in a fixed order and reports the first
// violation: transport error, then HTTP status, then latency threshold,
// then expected field presence. The fixed order keeps the reported
// reason deterministic when several rules fail at once.
func Check(res request.Result, task *config.Task) Verdict {
	var reasons []core.FailReason

	if res.TransportError() {
		reasons = append(reasons, core.ReasonTransport)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		reasons = append(reasons, core.ReasonHTTPStatus)
	}
	if res.Latency > task.Threshold() {
		reasons = append(reasons, core.ReasonLatency)
	}
	if !fieldPresent(res.Body, task) {
		reasons = append(reasons, core.ReasonMissingField)
	}

	if len(reasons) > 0 {
		return Verdict{Reason: reasons[0]}
	}
	return Verdict{Pass: true}
}

// fieldPresent checks the expected_field rule. Without a concrete field,
// any non-empty body passes. With one, the body must be valid JSON and
// the field must exist with a non-null value.
func fieldPresent(body []byte, task *config.Task) bool {
	if !task.ExpectsField() {
		return len(bytes.TrimSpace(body)) > 0
	}
	if !gjson.ValidBytes(body) {
		return false
	}
	v := gjson.GetBytes(body, task.ExpectedField)
	return v.Exists() && v.Type != gjson.Null
}
