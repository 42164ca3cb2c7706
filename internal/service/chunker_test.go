package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateReadingTime(t *testing.T) {
	t.Run("EmptyTextFloorsAtOneSecond", func(t *testing.T) {
		assert.Equal(t, 1.0, EstimateReadingTime(""))
	})

	t.Run("ShortTextFloorsAtOneSecond", func(t *testing.T) {
		assert.Equal(t, 1.0, EstimateReadingTime("hi"))
	})

	t.Run("ThreeWordsPerSecond", func(t *testing.T) {
		text := strings.Repeat("word ", 30)
		assert.InDelta(t, 10.0, EstimateReadingTime(text), 1e-9)
	})

	t.Run("MonotonicInWordCount", func(t *testing.T) {
		prev := 0.0
		for words := 0; words <= 50; words += 5 {
			est := EstimateReadingTime(strings.Repeat("word ", words))
			assert.GreaterOrEqual(t, est, prev)
			prev = est
		}
	})

	t.Run("PunctuationDoesNotCount", func(t *testing.T) {
		assert.Equal(t, EstimateReadingTime("one two three"), EstimateReadingTime("one, two... three!!!"))
	})
}

func TestSplitIntoChunks(t *testing.T) {
	t.Run("EmptyText", func(t *testing.T) {
		assert.Nil(t, SplitIntoChunks("", 5))
	})

	t.Run("SingleSentence", func(t *testing.T) {
		chunks := SplitIntoChunks("Just one sentence here.", 5)
		require.Len(t, chunks, 1)
		assert.Equal(t, "Just one sentence here.", chunks[0].Text)
		assert.Equal(t, 4, chunks[0].WordCount)
	})

	t.Run("GreedySentencePacking", func(t *testing.T) {
		// target=1s at 3 words/sec means 3 words per chunk
		chunks := SplitIntoChunks("A. B. C. D. E.", 1)
		require.Len(t, chunks, 2)
		assert.Equal(t, "A. B. C.", chunks[0].Text)
		assert.Equal(t, 3, chunks[0].WordCount)
		assert.Equal(t, "D. E.", chunks[1].Text)
		assert.Equal(t, 2, chunks[1].WordCount)
	})

	t.Run("NeverSplitsInsideSentence", func(t *testing.T) {
		long := "This single sentence has far more words than one chunk should ever hold by itself."
		chunks := SplitIntoChunks(long, 1)
		require.Len(t, chunks, 1)
		assert.Equal(t, long, chunks[0].Text)
	})

	t.Run("ConcatenationReproducesSentences", func(t *testing.T) {
		text := "First sentence here. Second one follows! Third ends with a question? Fourth closes it out."
		chunks := SplitIntoChunks(text, 2)
		var joined []string
		for _, c := range chunks {
			joined = append(joined, c.Text)
		}
		assert.Equal(t, text, strings.Join(joined, " "))
	})

	t.Run("FinalPartialChunkIsEmitted", func(t *testing.T) {
		chunks := SplitIntoChunks("One two three four five six. Tail.", 2)
		require.NotEmpty(t, chunks)
		last := chunks[len(chunks)-1]
		assert.Equal(t, "Tail.", last.Text)
		assert.Equal(t, 1, last.WordCount)
	})

	t.Run("DurationsComeFromEstimator", func(t *testing.T) {
		for _, c := range SplitIntoChunks("A. B. C. D. E. F. G.", 1) {
			assert.Equal(t, EstimateReadingTime(c.Text), c.Duration)
		}
	})
}
