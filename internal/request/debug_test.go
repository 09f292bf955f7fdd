package request

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestDebugLogger_LogRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDebugLogger(&buf)

	req, _ := http.NewRequest("POST", "http://example.com/api/orgs", strings.NewReader(`{"name":"acme"}`))
	req.Header.Set("Content-Type", "application/json")

	logger.LogRequest(3, "setup-organization", req)

	output := buf.String()
	if !strings.Contains(output, "[Worker 3]") {
		t.Errorf("expected worker ID in output, got: %s", output)
	}
	if !strings.Contains(output, "setup-organization") {
		t.Errorf("expected task name in output, got: %s", output)
	}
	if !strings.Contains(output, "POST") || !strings.Contains(output, "http://example.com/api/orgs") {
		t.Errorf("expected method and URL in output, got: %s", output)
	}
	if !strings.Contains(output, `{"name":"acme"}`) {
		t.Errorf("expected body in output, got: %s", output)
	}
}

func TestDebugLogger_LogResponse(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDebugLogger(&buf)

	resp := &http.Response{
		StatusCode: 201,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
	logger.LogResponse(1, "setup-organization", resp, []byte(`{"id":123}`), 150*time.Millisecond)

	output := buf.String()
	if !strings.Contains(output, "201") {
		t.Errorf("expected status code in output, got: %s", output)
	}
	if !strings.Contains(output, "150ms") {
		t.Errorf("expected latency in output, got: %s", output)
	}
	if !strings.Contains(output, `{"id":123}`) {
		t.Errorf("expected body in output, got: %s", output)
	}
}

func TestDebugLogger_NilIsSafe(t *testing.T) {
	var logger *DebugLogger

	req, _ := http.NewRequest("GET", "http://example.com", nil)
	logger.LogRequest(1, "x", req)
	logger.LogResponse(1, "x", &http.Response{StatusCode: 200}, nil, time.Millisecond)
	logger.LogError(1, "x", "boom", time.Millisecond)
}

func TestTruncateBody(t *testing.T) {
	short := []byte("short body")
	if got := truncateBody(short); got != "short body" {
		t.Errorf("short body changed: %q", got)
	}

	long := bytes.Repeat([]byte("a"), maxBodyLogSize+100)
	got := truncateBody(long)
	if !strings.Contains(got, "truncated") {
		t.Errorf("expected truncation marker, got tail: %q", got[len(got)-40:])
	}
}
