package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(LevelInfo)

	// Debug should be filtered
	logger.Debug("debug message")
	if buf.Len() > 0 {
		t.Error("debug message should be filtered at INFO level")
	}

	// Info should pass
	logger.Info("info message")
	if !strings.Contains(buf.String(), "INFO") {
		t.Errorf("missing level in output: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "info message") {
		t.Errorf("missing message in output: %s", buf.String())
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithComponent("runner")
	logger.SetOutput(&buf)

	logger.Info("test message")

	if !strings.Contains(buf.String(), "[runner]") {
		t.Errorf("missing component in output: %s", buf.String())
	}
}

func TestLogger_WithRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithRunID("run-123")
	logger.SetOutput(&buf)

	logger.Info("test message")

	if !strings.Contains(buf.String(), "run=run-123") {
		t.Errorf("missing run id in output: %s", buf.String())
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.Info("with fields", map[string]interface{}{"thought": 3})

	if !strings.Contains(buf.String(), "thought=3") {
		t.Errorf("missing field in output: %s", buf.String())
	}
}

func TestCollaboratorResult_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.CollaboratorResult("searcher", 0, errTest)

	out := buf.String()
	if !strings.Contains(out, "ERROR") || !strings.Contains(out, "collaborator_error") {
		t.Errorf("error result not logged at ERROR: %s", out)
	}
}

type testErr string

func (e testErr) Error() string { return string(e) }

var errTest = testErr("boom")
