package vision

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject recovers a JSON object from a model response that may be
// wrapped in markdown fences or surrounding prose. It returns the first
// balanced top-level object found.
func ExtractJSONObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	// Strip markdown code fences if present.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}

// decodeLoose unmarshals the recovered object into an untyped map so that
// individual fields can be validated independently: a malformed field falls
// back to its default without discarding the rest.
func decodeLoose(raw string) (map[string]any, error) {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	return m, nil
}

// stringField returns the named field if present and a string, else "".
func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// stringListField returns the named field as a string slice, tolerating a
// lone string value. Absent or malformed values yield nil.
func stringListField(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
		return nil
	case []any:
		var out []string
		for _, e := range t {
			if s, ok := e.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	default:
		return nil
	}
}

// filterVocabulary drops values not present in the allowed vocabulary.
func filterVocabulary(values, allowed []string) []string {
	var out []string
	for _, v := range values {
		for _, a := range allowed {
			if v == a {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

// vocabValue returns v if it appears in the allowed vocabulary, else "".
func vocabValue(v string, allowed []string) string {
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return ""
}
