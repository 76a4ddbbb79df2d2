package reason

import (
	"strings"
	"testing"
)

func TestCleanJSONStripsFences(t *testing.T) {
	raw := "```json\n{\"current_thinking\": \"ok\"}\n```"
	cleaned := CleanJSON(raw)
	if strings.Contains(cleaned, "```") {
		t.Errorf("fences not stripped: %q", cleaned)
	}
}

func TestCleanJSONTrailingCommas(t *testing.T) {
	raw := `{"planning": [{"description": "a",},], }`
	cleaned := CleanJSON(raw)
	if strings.Contains(cleaned, ",}") || strings.Contains(cleaned, ",]") {
		t.Errorf("trailing commas remain: %q", cleaned)
	}
}

func TestCleanJSONBalancesTruncation(t *testing.T) {
	raw := `{"current_thinking": "cut off", "planning": [{"description": "a"`
	cleaned := CleanJSON(raw)
	if strings.Count(cleaned, "{") != strings.Count(cleaned, "}") {
		t.Errorf("braces unbalanced: %q", cleaned)
	}
	if strings.Count(cleaned, "[") != strings.Count(cleaned, "]") {
		t.Errorf("brackets unbalanced: %q", cleaned)
	}
}

func TestCleanJSONFixesBadEscapes(t *testing.T) {
	cleaned := CleanJSON(`{"k": "bad \d escape, good \" quote"}`)
	if !strings.Contains(cleaned, `\\d`) {
		t.Errorf("invalid escape not doubled: %q", cleaned)
	}
	if !strings.Contains(cleaned, `\"`) || strings.Contains(cleaned, `\\\"`) {
		t.Errorf("valid escape mangled: %q", cleaned)
	}
}

func TestParseDecision(t *testing.T) {
	raw := "```json\n" + `{
  "current_thinking": "working through it",
  "planning": [
    {"description": "step one", "status": "Done", "result": "42", "sub_steps": []},
  ],
  "next_thought_needed": true,
}` + "\n```"

	d, err := ParseDecision(raw)
	if err != nil {
		t.Fatalf("ParseDecision() error = %v", err)
	}
	if d.CurrentThinking != "working through it" {
		t.Errorf("thinking = %q", d.CurrentThinking)
	}
	if len(d.Planning) != 1 || d.Planning[0].Result != "42" {
		t.Errorf("planning = %+v", d.Planning)
	}
	if d.NextAction != "continue" {
		t.Errorf("missing next_action should default to continue, got %q", d.NextAction)
	}
	if !d.NextThoughtNeeded {
		t.Error("next_thought_needed lost")
	}
}

func TestParseDecisionMalformed(t *testing.T) {
	for _, raw := range []string{
		"this is prose, not json",
		`{"planning": [], "next_thought_needed": false}`,
	} {
		_, err := ParseDecision(raw)
		if err == nil {
			t.Errorf("ParseDecision(%q) should fail", raw)
			continue
		}
		if !IsMalformed(err) {
			t.Errorf("error for %q should be malformed, got %v", raw, err)
		}
	}
}
