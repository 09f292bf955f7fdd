package config

import (
	"log/slog"
	"os"
	"regexp"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateString replaces ${VAR} references with the value of the
// corresponding environment variable. Unknown variables are left as-is
// so the failure surfaces at request time rather than silently as an
// empty string.
func interpolateString(in string) string {
	return envVarPattern.ReplaceAllStringFunc(in, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		slog.Warn("environment variable not set, leaving placeholder", "var", name)
		return match
	})
}

// Interpolate expands ${VAR} references in urls, bodies and header
// values. Names, methods and expected fields are deliberately not
// interpolated.
func Interpolate(s *Settings) {
	for k, v := range s.HTTP.DefaultHeaders {
		s.HTTP.DefaultHeaders[k] = interpolateString(v)
	}
	for i := range s.Workflow.Tasks {
		t := &s.Workflow.Tasks[i]
		t.URL = interpolateString(t.URL)
		t.Body = interpolateString(t.Body)
		for k, v := range t.Headers {
			t.Headers[k] = interpolateString(v)
		}
	}
}
