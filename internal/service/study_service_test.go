package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/chunker"
	"studyrag/internal/domain"
	"studyrag/internal/embedding/tfidf"
	"studyrag/internal/summarizer"
)

// keywordEmbedder produces 3-dimensional count vectors over three fixed
// keywords, making distances easy to reason about in tests.
type keywordEmbedder struct{}

func (keywordEmbedder) Name() string                  { return "keyword" }
func (keywordEmbedder) Prepare(corpus []string) error { return nil }
func (keywordEmbedder) Dimension() int                { return 3 }

func (keywordEmbedder) Embed(text string) ([]float32, error) {
	vec := make([]float32, 3)
	for i, kw := range []string{"alpha", "beta", "gamma"} {
		vec[i] = float32(strings.Count(strings.ToLower(text), kw))
	}
	return vec, nil
}

func (e keywordEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// echoCompleter records the last prompt and returns a canned response.
type echoCompleter struct {
	lastPrompt string
	lastSystem string
	response   string
}

func (c *echoCompleter) Complete(_ context.Context, prompt, system string, _ int) (string, error) {
	c.lastPrompt = prompt
	c.lastSystem = system
	return c.response, nil
}

type runeBudgeter struct{}

func (runeBudgeter) Truncate(text string, budget int) (string, error) {
	runes := []rune(text)
	if len(runes) <= budget {
		return text, nil
	}
	return string(runes[:budget]), nil
}

func newTestService(t *testing.T, dataDir string, emb domain.Embedder, comp domain.Completer) *StudyService {
	t.Helper()
	ch, err := chunker.NewWordChunker(8, 2)
	require.NoError(t, err)
	return New(ch, emb, summarizer.NewFrequencySummarizer(), comp, runeBudgeter{}, Options{
		DataDir:       dataDir,
		TopK:          3,
		ContextTokens: 10000,
	})
}

// testDocument interleaves keyword-bearing sentences so chunks differ in
// keyword density.
func testDocument() string {
	var b strings.Builder
	for i := 0; i < 6; i++ {
		b.WriteString(fmt.Sprintf("alpha concepts appear throughout section number %d of this document. ", i))
	}
	for i := 0; i < 6; i++ {
		b.WriteString(fmt.Sprintf("beta material dominates the later chapters, especially part %d here. ", i))
	}
	return b.String()
}

func TestProcessDocumentNormalizesAndChunks(t *testing.T) {
	svc := newTestService(t, "", keywordEmbedder{}, nil)
	chunks, err := svc.ProcessDocument("word   word\n\n\n\nword word word word word word word word")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.NotContains(t, chunks[0].Text, "  ")
}

func TestIngestAndRetrieve(t *testing.T) {
	svc := newTestService(t, t.TempDir(), keywordEmbedder{}, nil)
	_, err := svc.IngestText(testDocument(), "test doc")
	require.NoError(t, err)
	assert.True(t, svc.Ready())
	assert.Greater(t, svc.ChunkCount(), 1)

	results, err := svc.Retrieve("alpha alpha alpha", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// Best match first, scores within (0, 1] and non-increasing.
	assert.Contains(t, strings.ToLower(results[0].Chunk.Text), "alpha")
	for i, r := range results {
		assert.Greater(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Score, r.Score)
		}
	}
}

func TestRetrieveBeforeIngestReturnsEmpty(t *testing.T) {
	svc := newTestService(t, t.TempDir(), keywordEmbedder{}, nil)
	results, err := svc.Retrieve("anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	doc := testDocument()

	first := newTestService(t, dir, tfidf.NewEmbedder(), nil)
	_, err := first.IngestText(doc, "persisted doc")
	require.NoError(t, err)
	wantResults, err := first.Retrieve("alpha concepts", 3)
	require.NoError(t, err)
	require.NotEmpty(t, wantResults)

	second := newTestService(t, dir, tfidf.NewEmbedder(), nil)
	restored, err := second.Restore()
	require.NoError(t, err)
	require.True(t, restored)
	assert.Equal(t, first.ChunkCount(), second.ChunkCount())

	gotResults, err := second.Retrieve("alpha concepts", 3)
	require.NoError(t, err)
	assert.Equal(t, wantResults, gotResults)
}

func TestRestoreEmptyDataDir(t *testing.T) {
	svc := newTestService(t, t.TempDir(), keywordEmbedder{}, nil)
	restored, err := svc.Restore()
	require.NoError(t, err)
	assert.False(t, restored)
	assert.False(t, svc.Ready())
}

func TestIngestReplacesPreviousIndex(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir, keywordEmbedder{}, nil)

	_, err := svc.IngestText(testDocument(), "first")
	require.NoError(t, err)
	firstCount := svc.ChunkCount()

	var b strings.Builder
	for i := 0; i < 3; i++ {
		b.WriteString(fmt.Sprintf("gamma gamma gamma appears in this much shorter replacement text %d. ", i))
	}
	_, err = svc.IngestText(b.String(), "second")
	require.NoError(t, err)
	assert.NotEqual(t, firstCount, svc.ChunkCount())

	results, err := svc.Retrieve("gamma", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Chunk.Text, "gamma")
}

func TestIngestEmptyDocumentFails(t *testing.T) {
	svc := newTestService(t, t.TempDir(), keywordEmbedder{}, nil)
	_, err := svc.IngestText("   ", "empty")
	assert.Error(t, err)
	assert.False(t, svc.Ready())
}

func TestAskUsesRetrievedContext(t *testing.T) {
	comp := &echoCompleter{response: "the answer"}
	svc := newTestService(t, t.TempDir(), keywordEmbedder{}, comp)
	_, err := svc.IngestText(testDocument(), "doc")
	require.NoError(t, err)

	answer, err := svc.Ask(context.Background(), "tell me about alpha")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Contains(t, comp.lastPrompt, "alpha")
	assert.Contains(t, comp.lastPrompt, "tell me about alpha")
}

func TestAskBeforeIngest(t *testing.T) {
	comp := &echoCompleter{response: "unused"}
	svc := newTestService(t, t.TempDir(), keywordEmbedder{}, comp)

	_, err := svc.Ask(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNothingIndexed)
}

func TestStudyArtifactsRequireCompleter(t *testing.T) {
	svc := newTestService(t, t.TempDir(), keywordEmbedder{}, nil)
	_, err := svc.MCQ(context.Background(), 5)
	assert.Error(t, err)
}

func TestMCQGeneration(t *testing.T) {
	comp := &echoCompleter{response: "Q1: What is alpha?\nA) a concept\nB) a fish\nC) a tool\nD) a place\nCorrect: A"}
	svc := newTestService(t, t.TempDir(), keywordEmbedder{}, comp)
	_, err := svc.IngestText(testDocument(), "doc")
	require.NoError(t, err)

	questions, err := svc.MCQ(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "What is alpha?", questions[0].Question)
	assert.Contains(t, comp.lastPrompt, "multiple-choice")
}
