package validation

import (
	"encoding/json"
	"strings"
)

// NormalizeTags accepts the tag shapes clients actually send — a native
// list, a JSON-encoded list, or a comma-separated string — and reduces all
// of them to one deterministic output: an ordered list of trimmed,
// non-empty strings. All tag parsing goes through here; call sites never
// type-sniff on their own.
func NormalizeTags(input interface{}) []string {
	switch v := input.(type) {
	case nil:
		return []string{}
	case []string:
		return cleanTags(v)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return cleanTags(out)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return []string{}
		}
		if strings.HasPrefix(trimmed, "[") {
			var parsed []string
			if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
				return cleanTags(parsed)
			}
		}
		return cleanTags(strings.Split(trimmed, ","))
	default:
		return []string{}
	}
}

func cleanTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
