// Package config loads and validates the declarative workflow document.
package config

import (
	"time"
)

// Settings is the root of the workflow document.
type Settings struct {
	Workflow  Workflow          `koanf:"workflow" yaml:"workflow" validate:"required"`
	HTTP      HTTPSettings      `koanf:"http" yaml:"http"`
	Log       LogSettings       `koanf:"log" yaml:"log"`
	Server    ServerSettings    `koanf:"server" yaml:"server"`
	Execution ExecutionSettings `koanf:"execution" yaml:"execution"`
}

// Workflow is a named, ordered collection of tasks.
type Workflow struct {
	Name  string `koanf:"name" yaml:"name" validate:"required"`
	Tasks []Task `koanf:"tasks" yaml:"tasks" validate:"required,min=1,dive"`
}

// Task declares one HTTP call with its validation rules and ordering key.
type Task struct {
	Name                  string            `koanf:"name" yaml:"name" validate:"required"`
	TaskOrder             int               `koanf:"task_order" yaml:"task_order"`
	URL                   string            `koanf:"url" yaml:"url" validate:"required,url"`
	Method                string            `koanf:"method" yaml:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD"`
	Headers               map[string]string `koanf:"headers" yaml:"headers"`
	Body                  string            `koanf:"body" yaml:"body,omitempty"`
	BodyFile              string            `koanf:"body_file" yaml:"body_file,omitempty"`
	ExpectedField         string            `koanf:"expected_field" yaml:"expected_field"`
	ResponseTimeThreshold int               `koanf:"response_time_threshold" yaml:"response_time_threshold" validate:"gt=0"` // milliseconds
	LoadTest              bool              `koanf:"load_test" yaml:"load_test"`
	LoadTestConfig        *LoadTestConfig   `koanf:"load_test_config" yaml:"load_test_config,omitempty"`
}

// Threshold returns the response time threshold as a duration.
func (t *Task) Threshold() time.Duration {
	return time.Duration(t.ResponseTimeThreshold) * time.Millisecond
}

// ExpectsField reports whether the task names a concrete JSON field.
// An empty value or the sentinel "none" means a 2xx status plus a
// non-empty body counts as success.
func (t *Task) ExpectsField() bool {
	return t.ExpectedField != "" && t.ExpectedField != "none"
}

// LoadTestConfig controls the concurrency ramp for a load-test task.
type LoadTestConfig struct {
	InitialLoad     int `koanf:"initial_load" yaml:"initial_load" validate:"min=1"`
	MaxLoad         int `koanf:"max_load" yaml:"max_load" validate:"gtefield=InitialLoad"`
	SpawnRate       int `koanf:"spawn_rate" yaml:"spawn_rate" validate:"gt=0"` // workers added per second
	RetryCount      int `koanf:"retry_count" yaml:"retry_count" validate:"min=0"`
	MaxDurationSecs int `koanf:"max_duration_secs" yaml:"max_duration_secs" validate:"gt=0"`
	RPS             int `koanf:"rps" yaml:"rps,omitempty" validate:"min=0"` // optional request rate cap, 0 = unlimited
}

// MaxDuration returns the hard deadline for the ramp.
func (c *LoadTestConfig) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationSecs) * time.Second
}

// HTTPSettings configures the shared HTTP client.
type HTTPSettings struct {
	TimeoutSeconds int               `koanf:"timeout_seconds" yaml:"timeout_seconds"`
	ProxyURL       string            `koanf:"proxy_url" yaml:"proxy_url,omitempty"`
	DefaultHeaders map[string]string `koanf:"default_headers" yaml:"default_headers"`
}

// LogSettings configures structured logging.
type LogSettings struct {
	Level  string `koanf:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `koanf:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// ServerSettings configures the control API server.
type ServerSettings struct {
	Addr    string `koanf:"addr" yaml:"addr"`
	Metrics bool   `koanf:"metrics" yaml:"metrics"`
}

// ExecutionSettings holds engine policies that are not part of the
// workflow document proper.
type ExecutionSettings struct {
	FailFast     bool          `koanf:"fail_fast" yaml:"fail_fast"`
	RetryBackoff time.Duration `koanf:"retry_backoff" yaml:"retry_backoff"`
}

func applyDefaults(s *Settings) {
	for i := range s.Workflow.Tasks {
		t := &s.Workflow.Tasks[i]
		if t.Method == "" {
			t.Method = "GET"
		}
		if t.Headers == nil {
			t.Headers = make(map[string]string)
		}
	}
	if s.HTTP.TimeoutSeconds <= 0 {
		s.HTTP.TimeoutSeconds = 30
	}
	if s.HTTP.DefaultHeaders == nil {
		s.HTTP.DefaultHeaders = make(map[string]string)
	}
	if s.Log.Level == "" {
		s.Log.Level = "info"
	}
	if s.Log.Format == "" {
		s.Log.Format = "text"
	}
	if s.Server.Addr == "" {
		s.Server.Addr = ":8080"
	}
	if s.Execution.RetryBackoff <= 0 {
		s.Execution.RetryBackoff = 100 * time.Millisecond
	}
}
