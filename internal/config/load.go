package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	yamlparser "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix for environment variable overrides.
	// STAGEHAND_HTTP__TIMEOUT_SECONDS=10 maps to http.timeout_seconds.
	EnvPrefix = "STAGEHAND_"
	delimiter = "."
)

// Load reads the workflow document from a YAML file, overlays
// STAGEHAND_-prefixed environment variables, interpolates ${VAR}
// references, applies defaults and validates the result.
func Load(path string) (*Settings, error) {
	k := koanf.New(delimiter)

	if err := k.Load(file.Provider(path), yamlparser.Parser()); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, delimiter, envKey), nil); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&s)
	Interpolate(&s)

	if err := loadBodyFiles(&s, filepath.Dir(path)); err != nil {
		return nil, err
	}

	if err := Validate(&s); err != nil {
		return nil, err
	}

	return &s, nil
}

// envKey maps STAGEHAND_HTTP__TIMEOUT_SECONDS to http.timeout_seconds.
// A double underscore separates nesting levels so that keys containing
// single underscores survive.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", delimiter)
}

// loadBodyFiles resolves body_file entries relative to the config file
// directory and inlines their contents as the request body.
func loadBodyFiles(s *Settings, configDir string) error {
	for i := range s.Workflow.Tasks {
		t := &s.Workflow.Tasks[i]
		if t.BodyFile == "" {
			continue
		}
		path := t.BodyFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(configDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("task %q: reading body file: %w", t.Name, err)
		}
		t.Body = string(data)
	}
	return nil
}

// Validate checks the settings against the engine's invariants.
// A validation error here is a configuration error: the workflow must
// not run, and no task results are produced.
func Validate(s *Settings) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(s); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]struct{}, len(s.Workflow.Tasks))
	for i := range s.Workflow.Tasks {
		t := &s.Workflow.Tasks[i]
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("invalid config: duplicate task name %q", t.Name)
		}
		seen[t.Name] = struct{}{}

		if t.LoadTest && t.LoadTestConfig == nil {
			return fmt.Errorf("invalid config: task %q: load_test is true but load_test_config is missing", t.Name)
		}
	}
	return nil
}
