package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	jsonArrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
)

// cleanMarkdownWrapper strips a surrounding ``` or ```json fence.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		// Drop the language tag line.
		content = content[nl+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// ExtractJSONObject decodes the outermost {...} span of free text into v.
// Conversational text around the object is ignored.
func ExtractJSONObject(content string, v any) error {
	match := jsonObjectPattern.FindString(cleanMarkdownWrapper(content))
	if match == "" {
		return fmt.Errorf("no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(match), v); err != nil {
		return fmt.Errorf("failed to parse JSON object: %w", err)
	}
	return nil
}

// ExtractStringArray decodes the outermost [...] span of free text as a list of strings.
func ExtractStringArray(content string) ([]string, error) {
	match := jsonArrayPattern.FindString(cleanMarkdownWrapper(content))
	if match == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}
	var out []string
	if err := json.Unmarshal([]byte(match), &out); err != nil {
		return nil, fmt.Errorf("failed to parse JSON array: %w", err)
	}
	return out, nil
}
