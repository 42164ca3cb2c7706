package service

import (
	"regexp"
	"strings"
)

// WordsPerSecond is the assumed reading speed, about 180 words per minute.
const WordsPerSecond = 3.0

// DefaultChunkTargetSeconds is the target playback duration per chunk.
const DefaultChunkTargetSeconds = 5.0

// Chunk is one sentence-aligned segment of a longer text.
type Chunk struct {
	Text      string  `json:"text"`
	Duration  float64 `json:"duration"`
	WordCount int     `json:"wordCount"`
}

var wordPattern = regexp.MustCompile(`\w+`)

// CountWords counts word tokens the same way duration estimation does.
func CountWords(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// EstimateReadingTime returns the estimated reading time in seconds,
// floored at one second.
func EstimateReadingTime(text string) float64 {
	seconds := float64(CountWords(text)) / WordsPerSecond
	if seconds < 1.0 {
		return 1.0
	}
	return seconds
}

// splitSentences splits text on sentence-ending punctuation followed by
// whitespace. The punctuation stays attached to its sentence.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	i := 0
	for i < len(runes) {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && isSpace(runes[i+1]) {
			sentences = append(sentences, string(runes[start:i+1]))
			i++
			for i < len(runes) && isSpace(runes[i]) {
				i++
			}
			start = i
			continue
		}
		i++
	}
	if start < len(runes) {
		if tail := string(runes[start:]); strings.TrimSpace(tail) != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// SplitIntoChunks greedily packs whole sentences into chunks of roughly
// targetSeconds of reading time. A sentence is never split; a single
// over-long sentence becomes its own over-target chunk. The trailing
// partial chunk is emitted even when under target.
func SplitIntoChunks(text string, targetSeconds float64) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if targetSeconds <= 0 {
		targetSeconds = DefaultChunkTargetSeconds
	}
	targetWords := int(WordsPerSecond * targetSeconds)

	var chunks []Chunk
	var current []string
	currentWords := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		text := strings.Join(current, " ")
		chunks = append(chunks, Chunk{
			Text:      text,
			Duration:  EstimateReadingTime(text),
			WordCount: currentWords,
		})
		current = nil
		currentWords = 0
	}

	for _, sentence := range splitSentences(text) {
		words := CountWords(sentence)
		if currentWords+words > targetWords && len(current) > 0 {
			flush()
		}
		current = append(current, sentence)
		currentWords += words
	}
	flush()

	return chunks
}
