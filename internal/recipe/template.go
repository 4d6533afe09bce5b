package recipe

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var placeholderRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.-]*)\s*\}\}`)

// Render substitutes {{key}} placeholders with input values. Strings are
// inserted verbatim, other values as JSON. Unknown placeholders are kept.
func Render(template string, inputs map[string]any) string {
	return placeholderRegex.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholderRegex.FindStringSubmatch(m)[1]
		v, ok := inputs[key]
		if !ok {
			return m
		}
		return Stringify(v)
	})
}

// Stringify renders a value for inclusion in a prompt.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// StripCodeFence removes a surrounding markdown code fence, as models often
// wrap JSON answers in one.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Parse turns raw provider text into a value according to mode.
func Parse(text string, mode ParseMode) (any, error) {
	switch mode {
	case ParseJSON:
		var v any
		if err := json.Unmarshal([]byte(StripCodeFence(text)), &v); err != nil {
			return nil, fmt.Errorf("failed to parse model output as JSON: %w", err)
		}
		return v, nil
	case ParseLines:
		var out []any
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
			if line != "" {
				out = append(out, line)
			}
		}
		return out, nil
	default:
		return text, nil
	}
}
