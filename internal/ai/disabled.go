package ai

import "context"

// Compile-time check
var _ Service = (*DisabledService)(nil)

// DisabledService is used when no API key is configured. Analysis returns
// empty results so entries are still saved without enrichment.
type DisabledService struct{}

// NewDisabledService returns a Service that performs no AI calls.
func NewDisabledService() *DisabledService { return &DisabledService{} }

func (*DisabledService) Enabled() bool { return false }

func (*DisabledService) TranscribeAudio(ctx context.Context, filename string, audio []byte) (string, error) {
	return "", ErrAIDisabled
}

func (*DisabledService) AnalyzeThing(ctx context.Context, text string) (*Analysis, error) {
	return &Analysis{Themes: []string{}, Symbols: []string{}, Entities: []string{}}, nil
}

func (*DisabledService) FindPatterns(ctx context.Context, things []ThingInput) ([]PatternResult, error) {
	return nil, nil
}
