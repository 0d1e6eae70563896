package guard

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls a JSON document out of raw model output, with
// recovery for markdown code fences and surrounding prose. The returned
// message is normalized (re-marshaled).
func ExtractJSON(raw string) (json.RawMessage, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	candidates := []string{raw}
	if stripped := stripCodeFences(raw); stripped != "" && stripped != raw {
		candidates = append(candidates, stripped)
	}
	if extracted := firstJSONCandidate(raw); extracted != "" && extracted != raw {
		candidates = append(candidates, extracted)
	}

	for _, candidate := range candidates {
		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			continue
		}
		normalized, err := json.Marshal(parsed)
		if err != nil {
			continue
		}
		return normalized, true
	}
	return nil, false
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func firstJSONCandidate(content string) string {
	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return ""
	}
	closeChar := "}"
	if content[start] == '[' {
		closeChar = "]"
	}
	end := strings.LastIndex(content, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}
