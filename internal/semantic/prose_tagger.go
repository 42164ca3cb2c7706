package semantic

import (
	"fmt"
	"html"
	"strings"

	prose "github.com/jdkato/prose/v2"
	"go.uber.org/zap"
)

// Compile-time check
var _ Tagger = (*proseTagger)(nil)

type proseTagger struct {
	logger *zap.Logger
}

// NewProseTagger creates a Tagger backed by the prose English POS model.
func NewProseTagger(logger *zap.Logger) Tagger {
	return &proseTagger{logger: logger.Named("ProseTagger")}
}

func (t *proseTagger) Available() bool { return true }

func isVerbTag(tag string) bool {
	return strings.HasPrefix(tag, "VB")
}

func isNounTag(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}

// verb phrase members: the verb itself, modal auxiliaries, adverbs and the
// negation particle
func isVerbModifierTag(tag string) bool {
	return tag == "MD" || strings.HasPrefix(tag, "RB")
}

// noun phrase members: determiners, possessives, adjectives, numbers and
// the nouns themselves
func isNounModifierTag(tag string) bool {
	return tag == "DT" || tag == "PRP$" || tag == "CD" || strings.HasPrefix(tag, "JJ")
}

func isPunctTag(tag string) bool {
	if tag == "" {
		return true
	}
	c := tag[0]
	return !(c >= 'A' && c <= 'Z') || tag == "SYM"
}

func (t *proseTagger) Extract(text string) (*Extraction, error) {
	extraction := &Extraction{VerbPhrases: []Phrase{}, NounPhrases: []Phrase{}}
	if strings.TrimSpace(text) == "" {
		return extraction, nil
	}

	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		t.logger.Error("Failed to parse document", zap.Error(err))
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	tokens := doc.Tokens()
	contentWords := 0
	totalWords := 0
	for _, tok := range tokens {
		if isPunctTag(tok.Tag) {
			continue
		}
		totalWords++
		if isVerbTag(tok.Tag) || isNounTag(tok.Tag) {
			contentWords++
		}
	}

	for i := 0; i < len(tokens); i++ {
		tag := tokens[i].Tag
		switch {
		case isVerbTag(tag) || isVerbModifierTag(tag):
			start := i
			hasVerb := false
			root := ""
			rootTag := ""
			for i < len(tokens) && (isVerbTag(tokens[i].Tag) || isVerbModifierTag(tokens[i].Tag)) {
				if isVerbTag(tokens[i].Tag) {
					hasVerb = true
					root = tokens[i].Text
					rootTag = tokens[i].Tag
				}
				i++
			}
			end := i
			i--
			if hasVerb {
				extraction.VerbPhrases = append(extraction.VerbPhrases, Phrase{
					Text:      joinTokens(tokens[start:end]),
					Root:      root,
					Tag:       rootTag,
					TokenPos:  start,
					TokenSpan: end - start,
				})
			}
		case isNounTag(tag) || isNounModifierTag(tag):
			start := i
			lastNoun := -1
			root := ""
			rootTag := ""
			for i < len(tokens) && (isNounTag(tokens[i].Tag) || isNounModifierTag(tokens[i].Tag)) {
				if isNounTag(tokens[i].Tag) {
					lastNoun = i
					root = tokens[i].Text
					rootTag = tokens[i].Tag
				}
				i++
			}
			i--
			if lastNoun >= 0 {
				// Trailing modifiers without a noun belong to whatever
				// comes next, not this phrase.
				extraction.NounPhrases = append(extraction.NounPhrases, Phrase{
					Text:      joinTokens(tokens[start : lastNoun+1]),
					Root:      root,
					Tag:       rootTag,
					TokenPos:  start,
					TokenSpan: lastNoun + 1 - start,
				})
			}
		}
	}

	extraction.Stats = Stats{
		TotalTokens:     len(tokens),
		VerbPhraseCount: len(extraction.VerbPhrases),
		NounPhraseCount: len(extraction.NounPhrases),
	}
	if totalWords > 0 {
		extraction.Stats.Density = float64(contentWords) / float64(totalWords)
	}
	return extraction, nil
}

func (t *proseTagger) HighlightHTML(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	var out strings.Builder
	for _, paragraph := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}

		doc, err := prose.NewDocument(paragraph, prose.WithExtraction(false))
		if err != nil {
			return "", fmt.Errorf("failed to parse paragraph: %w", err)
		}
		tokens := doc.Tokens()

		verbMembers, nounMembers := phraseMembers(tokens)

		out.WriteString("<p>")
		for i, tok := range tokens {
			if i > 0 && needsSpaceBefore(tok.Text, tokens[i-1].Text) {
				out.WriteString(" ")
			}
			escaped := html.EscapeString(tok.Text)
			switch {
			case verbMembers[i]:
				out.WriteString(`<span class="semantic-verb-phrase">` + escaped + `</span>`)
			case nounMembers[i]:
				out.WriteString(`<span class="semantic-noun-phrase">` + escaped + `</span>`)
			default:
				out.WriteString(`<span class="semantic-other">` + escaped + `</span>`)
			}
		}
		out.WriteString("</p>")
	}
	return out.String(), nil
}

// phraseMembers marks which token indices belong to verb or noun phrases,
// using the same runs Extract identifies.
func phraseMembers(tokens []prose.Token) (map[int]bool, map[int]bool) {
	verbs := make(map[int]bool)
	nouns := make(map[int]bool)

	for i := 0; i < len(tokens); i++ {
		tag := tokens[i].Tag
		switch {
		case isVerbTag(tag) || isVerbModifierTag(tag):
			start := i
			hasVerb := false
			for i < len(tokens) && (isVerbTag(tokens[i].Tag) || isVerbModifierTag(tokens[i].Tag)) {
				if isVerbTag(tokens[i].Tag) {
					hasVerb = true
				}
				i++
			}
			end := i
			i--
			if hasVerb {
				for j := start; j < end; j++ {
					verbs[j] = true
				}
			}
		case isNounTag(tag) || isNounModifierTag(tag):
			start := i
			lastNoun := -1
			for i < len(tokens) && (isNounTag(tokens[i].Tag) || isNounModifierTag(tokens[i].Tag)) {
				if isNounTag(tokens[i].Tag) {
					lastNoun = i
				}
				i++
			}
			i--
			if lastNoun >= 0 {
				for j := start; j <= lastNoun; j++ {
					nouns[j] = true
				}
			}
		}
	}
	return verbs, nouns
}

func joinTokens(tokens []prose.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		parts = append(parts, tok.Text)
	}
	return strings.Join(parts, " ")
}

// needsSpaceBefore suppresses spaces before closing punctuation and after
// opening brackets when reassembling tokenized text.
func needsSpaceBefore(cur, prev string) bool {
	if cur == "" || prev == "" {
		return false
	}
	switch cur {
	case ".", ",", "!", "?", ";", ":", ")", "]", "}", "'", "''", "n't", "'s", "'re", "'ve", "'ll", "'d", "'m":
		return false
	}
	switch prev {
	case "(", "[", "{", "``":
		return false
	}
	return true
}
