package domain

import (
	"context"

	"github.com/google/uuid"
)

// Document represents a single source document loaded into the system.
type Document struct {
	ID      uuid.UUID
	Title   string
	Path    string
	Pages   int
	Content string
}

// Chunk is an overlapping word-window segment of a document, the unit of
// retrieval. Position is the chunk's index in the ingestion order and
// correlates it with its row in the vector index.
type Chunk struct {
	Position int
	Text     string
}

// SearchResult represents a matching chunk with a relevance score in (0, 1].
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
// EmbedBatch must return one vector per input, in input order.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float32, error)
	EmbedBatch(texts []string) ([][]float32, error)
}

// Chunker splits normalized text into ordered chunks suitable for indexing.
type Chunker interface {
	Chunk(text string) ([]Chunk, error)
}

// Hit is a single nearest-neighbor match: the row position of the vector and
// its L2 distance from the query.
type Hit struct {
	Position int
	Distance float64
}

// VectorSearcher performs nearest-neighbor search over a fixed vector set.
// Implementations are read-only after construction; a rebuilt index replaces
// the old one wholesale.
type VectorSearcher interface {
	Dimension() int
	Len() int
	Search(query []float32, k int) ([]Hit, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Completer is the LLM collaborator: prompt plus system message in, generated
// text out. Retry and backoff policy is internal to the implementation.
type Completer interface {
	Complete(ctx context.Context, prompt, system string, maxTokens int) (string, error)
}
