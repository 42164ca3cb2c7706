package semantic

// Phrase is one verb or noun phrase identified in a text.
type Phrase struct {
	Text      string `json:"text"`
	Root      string `json:"root"`
	Tag       string `json:"tag"`
	Sentence  int    `json:"sentence"`
	TokenPos  int    `json:"tokenPos"`
	TokenSpan int    `json:"tokenSpan"`
}

// Stats summarizes one extraction pass.
type Stats struct {
	TotalTokens     int     `json:"totalTokens"`
	VerbPhraseCount int     `json:"verbPhraseCount"`
	NounPhraseCount int     `json:"nounPhraseCount"`
	Density         float64 `json:"density"`
}

// Extraction bifurcates a text into verb-like and noun-like components.
type Extraction struct {
	VerbPhrases []Phrase `json:"verbPhrases"`
	NounPhrases []Phrase `json:"nounPhrases"`
	Stats       Stats    `json:"stats"`
}

// Verbs returns the verb phrase texts in order.
func (e *Extraction) Verbs() []string {
	out := make([]string, 0, len(e.VerbPhrases))
	for _, p := range e.VerbPhrases {
		out = append(out, p.Text)
	}
	return out
}

// Nouns returns the noun phrase texts in order.
func (e *Extraction) Nouns() []string {
	out := make([]string, 0, len(e.NounPhrases))
	for _, p := range e.NounPhrases {
		out = append(out, p.Text)
	}
	return out
}

// Tagger performs part-of-speech driven phrase extraction over entry text.
type Tagger interface {
	// Extract finds verb and noun phrases in the text.
	Extract(text string) (*Extraction, error)
	// HighlightHTML renders the text as HTML with verb and noun phrases
	// wrapped in colored spans, preserving paragraph structure.
	HighlightHTML(text string) (string, error)
	// Available reports whether a language model is loaded.
	Available() bool
}
