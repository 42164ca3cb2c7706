package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripCodeFence removes a surrounding markdown code fence, which chat
// models sometimes wrap JSON answers in despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag on the opening fence line.
		firstLine := strings.TrimSpace(s[:idx])
		if !strings.ContainsAny(firstLine, "{[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func parseAnalysis(content string) (*Analysis, error) {
	var analysis Analysis
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &analysis); err != nil {
		return nil, fmt.Errorf("invalid analysis JSON: %w", err)
	}
	if analysis.Themes == nil {
		analysis.Themes = []string{}
	}
	if analysis.Symbols == nil {
		analysis.Symbols = []string{}
	}
	if analysis.Entities == nil {
		analysis.Entities = []string{}
	}
	return &analysis, nil
}

func parsePatterns(content string) ([]PatternResult, error) {
	cleaned := stripCodeFence(content)

	var patterns []PatternResult
	if err := json.Unmarshal([]byte(cleaned), &patterns); err == nil {
		return patterns, nil
	}

	// Some models wrap the array in an object.
	var wrapped struct {
		Patterns []PatternResult `json:"patterns"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err != nil {
		return nil, fmt.Errorf("invalid pattern JSON: %w", err)
	}
	return wrapped.Patterns, nil
}
