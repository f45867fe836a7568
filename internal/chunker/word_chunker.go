package chunker

import (
	"errors"
	"strings"
	"unicode/utf8"

	"studyrag/internal/domain"
)

// ErrInvalidChunking is returned when overlap is not smaller than chunk size,
// which would make the window step zero or negative.
var ErrInvalidChunking = errors.New("chunker: overlap must be smaller than chunk size")

// minChunkChars is the trimmed-length floor below which a window is dropped.
// Short trailing remainders carry no retrievable content.
const minChunkChars = 30

// WordChunker splits normalized text into overlapping fixed-size word windows.
type WordChunker struct {
	chunkSize int
	overlap   int
}

// NewWordChunker creates a word-window chunker. Non-positive sizes fall back
// to the defaults (500-word windows, 50 words of overlap).
func NewWordChunker(chunkSize, overlap int) (*WordChunker, error) {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 50
	}
	if overlap >= chunkSize {
		return nil, ErrInvalidChunking
	}
	return &WordChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk produces windows of chunkSize words starting every chunkSize-overlap
// words, so consecutive full windows share exactly overlap words. Windows
// whose trimmed length is at most minChunkChars are dropped. Output order
// follows document order; an empty input yields no chunks.
func (c *WordChunker) Chunk(text string) ([]domain.Chunk, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}
	step := c.chunkSize - c.overlap
	var chunks []domain.Chunk
	for i := 0; i < len(words); i += step {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		window := strings.Join(words[i:end], " ")
		if utf8.RuneCountInString(strings.TrimSpace(window)) > minChunkChars {
			chunks = append(chunks, domain.Chunk{Position: len(chunks), Text: window})
		}
	}
	return chunks, nil
}
