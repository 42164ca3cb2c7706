package semantic

// Compile-time check
var _ Tagger = (*disabledTagger)(nil)

// disabledTagger is used when semantic analysis is turned off. Extraction
// yields empty results and highlighting returns the text unchanged.
type disabledTagger struct{}

// NewDisabledTagger returns a Tagger that performs no analysis.
func NewDisabledTagger() Tagger { return &disabledTagger{} }

func (*disabledTagger) Available() bool { return false }

func (*disabledTagger) Extract(text string) (*Extraction, error) {
	return &Extraction{VerbPhrases: []Phrase{}, NounPhrases: []Phrase{}}, nil
}

func (*disabledTagger) HighlightHTML(text string) (string, error) {
	return text, nil
}
