package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errNoJSONObject = errors.New("no JSON object in response")

// ParseWeekResponse decodes raw model output into a GeneratedWeek. Any failure is a parse error.
func ParseWeekResponse(raw string) (*GeneratedWeek, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, parseError(err)
	}

	var week GeneratedWeek
	if err := json.Unmarshal([]byte(body), &week); err != nil {
		return nil, parseError(fmt.Errorf("decode week: %w", err))
	}
	if len(week.Days) == 0 {
		return nil, parseError(errors.New("week has no days"))
	}
	if week.Days.SessionCount() == 0 {
		return nil, parseError(errors.New("week has no sessions"))
	}
	return &week, nil
}

// extractJSON strips markdown fences and returns the outermost {...} span.
func extractJSON(s string) (string, error) {
	if idx := strings.Index(s, "```json"); idx != -1 {
		s = s[idx+len("```json"):]
	} else if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+3:]
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", errNoJSONObject
	}
	return s[start : end+1], nil
}
