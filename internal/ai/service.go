package ai

import (
	"context"
	"errors"
	"time"
)

// ErrAIDisabled is returned when no API key is configured.
var ErrAIDisabled = errors.New("AI features are disabled")

// ErrAnalysisFailed wraps provider errors during analysis calls.
var ErrAnalysisFailed = errors.New("AI analysis failed")

// Analysis holds the elements extracted from one journal entry.
type Analysis struct {
	Themes   []string `json:"themes"`
	Symbols  []string `json:"symbols"`
	Entities []string `json:"entities"`
}

// ThingInput is one entry passed to batch pattern analysis.
type ThingInput struct {
	Date time.Time
	Text string
}

// PatternResult is one pattern identified across a batch of entries.
type PatternResult struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Occurrences []int   `json:"occurrences"`
}

// Service covers the AI-backed features: audio transcription, per-entry
// element extraction and batch pattern discovery.
type Service interface {
	// TranscribeAudio converts a voice recording into text.
	TranscribeAudio(ctx context.Context, filename string, audio []byte) (string, error)
	// AnalyzeThing extracts themes, symbols and entities from one entry.
	AnalyzeThing(ctx context.Context, text string) (*Analysis, error)
	// FindPatterns identifies recurring patterns across a batch of entries.
	// Fewer than three entries yields no patterns.
	FindPatterns(ctx context.Context, things []ThingInput) ([]PatternResult, error)
	// Enabled reports whether an AI provider is configured.
	Enabled() bool
}
