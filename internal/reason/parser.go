package reason

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MalformedError reports model output that could not be parsed as a
// decision even after repair. It is not retryable at the transport
// level; the thought loop re-asks instead.
type MalformedError struct {
	Err error
	Raw string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed decision: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// IsMalformed reports whether err wraps a MalformedError.
func IsMalformed(err error) bool {
	var m *MalformedError
	return errors.As(err, &m)
}

var (
	escapedWhitespace = regexp.MustCompile(`\\n|\\t|\\r`)
	trailingComma     = regexp.MustCompile(`,(\s*[}\]])`)
	controlChars      = regexp.MustCompile("[\x00-\x1f\uFEFF]")
	anyEscape         = regexp.MustCompile(`\\.`)
	unicodeEscape     = regexp.MustCompile(`^\\u[0-9a-fA-F]{4}$`)
)

var validEscapes = map[string]bool{
	`\"`: true, `\\`: true, `\/`: true, `\b`: true,
	`\f`: true, `\n`: true, `\r`: true, `\t`: true,
}

// CleanJSON repairs the common defects in model-emitted JSON: markdown
// code fences, escaped whitespace, trailing commas, stray control
// characters, invalid backslash escapes, and truncated output missing
// its closing braces or brackets.
func CleanJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	raw = escapedWhitespace.ReplaceAllString(raw, " ")
	raw = trailingComma.ReplaceAllString(raw, "$1")
	raw = controlChars.ReplaceAllString(raw, "")

	raw = anyEscape.ReplaceAllStringFunc(raw, func(s string) string {
		if validEscapes[s] || unicodeEscape.MatchString(s) {
			return s
		}
		return `\\` + s[1:]
	})

	// Close braces and brackets a truncated response left open.
	raw += strings.Repeat("}", diff(raw, '{', '}'))
	raw += strings.Repeat("]", diff(raw, '[', ']'))
	return raw
}

func diff(s string, open, close rune) int {
	n := strings.Count(s, string(open)) - strings.Count(s, string(close))
	if n < 0 {
		return 0
	}
	return n
}

// ParseDecision cleans and parses one reasoning step's output.
func ParseDecision(raw string) (*Decision, error) {
	cleaned := CleanJSON(raw)

	var d Decision
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil {
		return nil, &MalformedError{Err: err, Raw: raw}
	}
	if strings.TrimSpace(d.CurrentThinking) == "" {
		return nil, &MalformedError{Err: errors.New("missing current_thinking"), Raw: raw}
	}
	if d.NextAction == "" {
		d.NextAction = "continue"
	}
	return &d, nil
}
