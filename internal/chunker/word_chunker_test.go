package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// words returns n synthetic words long enough that any window passes the
// length floor.
func words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("word%04d", i)
	}
	return out
}

func TestNewWordChunkerRejectsBadOverlap(t *testing.T) {
	_, err := NewWordChunker(100, 100)
	assert.ErrorIs(t, err, ErrInvalidChunking)

	_, err = NewWordChunker(100, 150)
	assert.ErrorIs(t, err, ErrInvalidChunking)

	_, err = NewWordChunker(100, 99)
	assert.NoError(t, err)
}

func TestWordChunkerEmptyInput(t *testing.T) {
	c, err := NewWordChunker(500, 50)
	require.NoError(t, err)

	chunks, err := c.Chunk("")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = c.Chunk("   \n\n  ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestWordChunkerWindowsAndOverlap(t *testing.T) {
	ws := words(25)
	c, err := NewWordChunker(10, 3)
	require.NoError(t, err)

	chunks, err := c.Chunk(strings.Join(ws, " "))
	require.NoError(t, err)
	// step = 7, offsets 0, 7, 14, 21 -> windows of 10, 10, 10, 4 words
	require.Len(t, chunks, 4)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Position)
	}
	assert.Equal(t, strings.Join(ws[0:10], " "), chunks[0].Text)
	assert.Equal(t, strings.Join(ws[7:17], " "), chunks[1].Text)
	assert.Equal(t, strings.Join(ws[14:24], " "), chunks[2].Text)
	assert.Equal(t, strings.Join(ws[21:25], " "), chunks[3].Text)

	// Consecutive full windows share exactly overlap words.
	first := strings.Fields(chunks[0].Text)
	second := strings.Fields(chunks[1].Text)
	assert.Equal(t, first[len(first)-3:], second[:3])
}

func TestWordChunkerDropsShortTrailingWindow(t *testing.T) {
	// chunk_size=3, overlap=1 over 7 words: offsets 0, 2, 4, 6. The last
	// window is a single short word and falls under the length floor.
	text := "The quick brown fox. The lazy dog."
	c, err := NewWordChunker(3, 1)
	require.NoError(t, err)

	chunks, err := c.Chunk(text)
	require.NoError(t, err)

	var texts []string
	for _, ch := range chunks {
		texts = append(texts, ch.Text)
	}
	assert.NotContains(t, texts, "dog.")

	// With sufficiently long words all four windows survive.
	ws := make([]string, 7)
	for i := range ws {
		ws[i] = strings.Repeat("x", 31) + fmt.Sprintf("%02d", i)
	}
	chunks, err = c.Chunk(strings.Join(ws, " "))
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, ws[6], chunks[3].Text)
}

func TestWordChunkerNoShortChunksReturned(t *testing.T) {
	c, err := NewWordChunker(5, 2)
	require.NoError(t, err)

	chunks, err := c.Chunk(strings.Join(words(47), " "))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.Greater(t, len(strings.TrimSpace(ch.Text)), 30)
	}
}

func TestWordChunkerSingleWindow(t *testing.T) {
	c, err := NewWordChunker(500, 50)
	require.NoError(t, err)

	text := strings.Join(words(12), " ")
	chunks, err := c.Chunk(text)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
}

func TestSentenceChunkerBasic(t *testing.T) {
	c := NewSentenceChunker(2, 1)
	chunks, err := c.Chunk("One one. Two two. Three three. Four four.")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "One one. Two two.", chunks[0].Text)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Position)
	}
}

func TestSentenceChunkerNoSentences(t *testing.T) {
	c := NewSentenceChunker(5, 1)
	chunks, err := c.Chunk("no terminal punctuation here")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "no terminal punctuation here", chunks[0].Text)

	chunks, err = c.Chunk("   ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
