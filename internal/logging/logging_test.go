package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"stagehand/internal/config"
)

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogSettings{Level: "info", Format: "text"}, &buf)

	log.Info("workflow started", "workflow", "checkout")

	out := buf.String()
	if !strings.Contains(out, "workflow started") || !strings.Contains(out, "workflow=checkout") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogSettings{Level: "info", Format: "json"}, &buf)

	log.Info("workflow started", "workflow", "checkout")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "workflow started" || entry["workflow"] != "checkout" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogSettings{Level: "error", Format: "text"}, &buf)

	log.Info("hidden")
	log.Warn("also hidden")
	log.Error("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("below-level entries leaked: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("error entry missing: %s", out)
	}
}

func TestParseLevel_UnknownDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogSettings{Level: "bogus", Format: "text"}, &buf)

	log.Debug("debug hidden")
	log.Info("info shown")

	out := buf.String()
	if strings.Contains(out, "debug hidden") || !strings.Contains(out, "info shown") {
		t.Errorf("unexpected output: %s", out)
	}
}
