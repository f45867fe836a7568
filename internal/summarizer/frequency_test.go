package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeSelectsFrequentTopics(t *testing.T) {
	text := "Vectors represent meaning. Vectors enable search. Vectors power retrieval. Lunch was pasta."
	s := NewFrequencySummarizer()

	out, err := s.Summarize(text, 2)
	require.NoError(t, err)
	assert.Contains(t, out, "Vectors")
	assert.NotContains(t, out, "pasta")
	assert.LessOrEqual(t, strings.Count(out, "."), 2)
}

func TestSummarizePreservesSentenceOrder(t *testing.T) {
	text := "Alpha topic repeats alpha. Beta mentions alpha too. Gamma alpha closes."
	s := NewFrequencySummarizer()

	out, err := s.Summarize(text, 3)
	require.NoError(t, err)
	ai := strings.Index(out, "Alpha")
	gi := strings.Index(out, "Gamma")
	assert.Less(t, ai, gi)
}

func TestSummarizeNoSentences(t *testing.T) {
	s := NewFrequencySummarizer()
	out, err := s.Summarize("just words without punctuation", 3)
	require.NoError(t, err)
	assert.Equal(t, "just words without punctuation", out)
}
