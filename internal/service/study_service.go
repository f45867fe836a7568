// Package service orchestrates the retrieval core: document processing,
// index build and persistence, retrieval, and the LLM-backed study features.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"studyrag/internal/domain"
	"studyrag/internal/pdfreader"
	"studyrag/internal/study"
	"studyrag/internal/textproc"
	"studyrag/internal/vectorstore"
	"studyrag/internal/vectorstore/flat"
)

var (
	// ErrNothingIndexed is returned by the question answering path when no
	// document has been processed yet. Retrieval itself treats this state
	// as "zero results", not an error.
	ErrNothingIndexed = errors.New("service: no document indexed yet")

	// ErrIndexDesync means a search returned a row position with no
	// corresponding chunk. The unit pairing makes this unreachable under
	// correct construction; it indicates a bug, not a runtime condition.
	ErrIndexDesync = errors.New("service: search position has no corresponding chunk")
)

// TokenBudgeter trims text to a token budget before it goes into a prompt.
type TokenBudgeter interface {
	Truncate(text string, budget int) (string, error)
}

// Options carries the tunables for a StudyService.
type Options struct {
	DataDir         string
	TopK            int
	AnswerTokens    int
	ContextTokens   int
	SummarySentence int
}

// StudyService composes the retrieval core with its collaborators. The
// (index, chunks) pairing lives in a single vectorstore.Unit value that is
// only ever replaced wholesale under the mutex, never mutated in place.
type StudyService struct {
	chunker    domain.Chunker
	embedder   domain.Embedder
	summarizer domain.Summarizer
	completer  domain.Completer
	generator  *study.Generator
	budgeter   TokenBudgeter
	opts       Options

	mu      sync.RWMutex
	unit    *vectorstore.Unit
	doc     *domain.Document
	summary string
}

// New creates a StudyService. completer and budgeter may be nil for
// retrieval-only use; the study features then report themselves unavailable.
func New(chunker domain.Chunker, embedder domain.Embedder, summarizer domain.Summarizer, completer domain.Completer, budgeter TokenBudgeter, opts Options) *StudyService {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.AnswerTokens <= 0 {
		opts.AnswerTokens = 2000
	}
	if opts.ContextTokens <= 0 {
		opts.ContextTokens = 3000
	}
	if opts.SummarySentence <= 0 {
		opts.SummarySentence = 5
	}
	s := &StudyService{
		chunker:    chunker,
		embedder:   embedder,
		summarizer: summarizer,
		completer:  completer,
		budgeter:   budgeter,
		opts:       opts,
	}
	if completer != nil {
		s.generator = study.NewGenerator(completer)
	}
	return s
}

// ProcessDocument normalizes raw extracted text and splits it into chunks.
func (s *StudyService) ProcessDocument(raw string) ([]domain.Chunk, error) {
	return s.chunker.Chunk(textproc.Normalize(raw))
}

// IngestPDF extracts text from the PDF at path and indexes it.
func (s *StudyService) IngestPDF(path string) (string, error) {
	text, pages, err := pdfreader.ExtractFile(path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	doc := &domain.Document{
		ID:      uuid.New(),
		Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path:    path,
		Pages:   pages,
		Content: text,
	}
	return s.ingest(doc)
}

// IngestText indexes already-extracted raw text under the given title.
func (s *StudyService) IngestText(raw, title string) (string, error) {
	doc := &domain.Document{ID: uuid.New(), Title: title, Content: raw}
	return s.ingest(doc)
}

// ingest runs the full pipeline: normalize, chunk, embed, build, persist,
// and atomically swap the previous unit out. A failure anywhere leaves the
// previous unit (and its persisted artifacts) untouched.
func (s *StudyService) ingest(doc *domain.Document) (string, error) {
	chunks, err := s.ProcessDocument(doc.Content)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("document %q produced no indexable chunks", doc.Title)
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if err := s.embedder.Prepare(texts); err != nil {
		return "", fmt.Errorf("prepare embedder: %w", err)
	}
	vectors, err := s.embedder.EmbedBatch(texts)
	if err != nil {
		return "", fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return "", fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
	}
	index, err := flat.Build(vectors)
	if err != nil {
		return "", fmt.Errorf("build index: %w", err)
	}
	unit, err := vectorstore.NewUnit(index, texts)
	if err != nil {
		return "", err
	}
	if s.opts.DataDir != "" {
		if err := vectorstore.Save(s.opts.DataDir, unit); err != nil {
			return "", fmt.Errorf("persist index: %w", err)
		}
	}
	summary, err := s.summarizer.Summarize(textproc.Normalize(doc.Content), s.opts.SummarySentence)
	if err != nil {
		summary = ""
	}

	s.mu.Lock()
	s.unit = unit
	s.doc = doc
	s.summary = summary
	s.mu.Unlock()
	return summary, nil
}

// Restore loads a previously persisted unit from the data directory. It
// reports false when nothing is persisted, which is the normal first-run
// state and not an error.
func (s *StudyService) Restore() (bool, error) {
	if s.opts.DataDir == "" {
		return false, nil
	}
	unit, err := vectorstore.Load(s.opts.DataDir)
	if err != nil {
		return false, err
	}
	if unit == nil {
		return false, nil
	}
	// Corpus-prepared embedders rebuild their vocabulary from the restored
	// chunk texts; remote embedders treat this as a no-op.
	if err := s.embedder.Prepare(unit.Texts()); err != nil {
		return false, fmt.Errorf("prepare embedder from restored chunks: %w", err)
	}
	if d := s.embedder.Dimension(); d != 0 && d != unit.Index.Dimension() {
		return false, fmt.Errorf("restored index dimension %d does not match embedder dimension %d", unit.Index.Dimension(), d)
	}

	s.mu.Lock()
	s.unit = unit
	s.doc = nil
	s.summary = ""
	s.mu.Unlock()
	return true, nil
}

// Ready reports whether a non-empty index is available for retrieval.
func (s *StudyService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unit != nil && s.unit.Index.Len() > 0
}

// ChunkCount returns the number of indexed chunks.
func (s *StudyService) ChunkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unit == nil {
		return 0
	}
	return s.unit.Index.Len()
}

// Document returns the current document (nil after a bare Restore) and the
// local summary produced at ingest time.
func (s *StudyService) Document() (*domain.Document, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc, s.summary
}

// Retrieve returns the topK most similar chunks with scores in (0, 1],
// best match first. An absent or empty index yields zero results and no
// error: that is the "nothing processed yet" state.
func (s *StudyService) Retrieve(query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = s.opts.TopK
	}
	s.mu.RLock()
	unit := s.unit
	s.mu.RUnlock()
	if unit == nil || unit.Index.Len() == 0 {
		return nil, nil
	}
	vec, err := s.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := unit.Index.Search(vec, topK)
	if err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(unit.Chunks) {
			return nil, fmt.Errorf("%w: position %d, %d chunks", ErrIndexDesync, h.Position, len(unit.Chunks))
		}
		results = append(results, domain.SearchResult{
			Chunk: unit.Chunks[h.Position],
			Score: 1.0 / (1.0 + h.Distance),
		})
	}
	return results, nil
}

// Ask answers a question from the document by retrieving the most relevant
// chunks and forwarding them with the question to the LLM.
func (s *StudyService) Ask(ctx context.Context, question string) (string, error) {
	if s.completer == nil {
		return "", errors.New("service: no completion backend configured")
	}
	results, err := s.Retrieve(question, s.opts.TopK)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", ErrNothingIndexed
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Chunk.Text
	}
	docContext, err := s.budgetContext(strings.Join(parts, "\n\n---\n\n"))
	if err != nil {
		return "", err
	}
	prompt := fmt.Sprintf(`Answer the question using only the context below. If the context does not contain the answer, say so.

Context:
%s

Question: %s`, docContext, question)
	return s.completer.Complete(ctx, prompt, "You are a helpful learning assistant.", s.opts.AnswerTokens)
}

// studyContext assembles the leading chunks into a single context string for
// artifact generation, trimmed to the token budget.
func (s *StudyService) studyContext() (string, error) {
	s.mu.RLock()
	unit := s.unit
	s.mu.RUnlock()
	if unit == nil || len(unit.Chunks) == 0 {
		return "", ErrNothingIndexed
	}
	const maxChunks = 10
	n := len(unit.Chunks)
	if n > maxChunks {
		n = maxChunks
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = unit.Chunks[i].Text
	}
	return s.budgetContext(strings.Join(parts, "\n\n"))
}

func (s *StudyService) budgetContext(text string) (string, error) {
	if s.budgeter == nil {
		return text, nil
	}
	trimmed, err := s.budgeter.Truncate(text, s.opts.ContextTokens)
	if err != nil {
		return "", fmt.Errorf("budget context: %w", err)
	}
	return trimmed, nil
}

// MCQ generates n multiple-choice questions from the document.
func (s *StudyService) MCQ(ctx context.Context, n int) ([]study.MCQ, error) {
	docContext, err := s.requireGenerator()
	if err != nil {
		return nil, err
	}
	return s.generator.MCQ(ctx, docContext, n)
}

// QA generates n open-ended question/answer pairs from the document.
func (s *StudyService) QA(ctx context.Context, n int) ([]study.QA, error) {
	docContext, err := s.requireGenerator()
	if err != nil {
		return nil, err
	}
	return s.generator.QA(ctx, docContext, n)
}

// Flashcards generates n flashcards from the document.
func (s *StudyService) Flashcards(ctx context.Context, n int) ([]study.Flashcard, error) {
	docContext, err := s.requireGenerator()
	if err != nil {
		return nil, err
	}
	return s.generator.Flashcards(ctx, docContext, n)
}

// LLMSummary generates a prose summary of the document via the LLM, as
// opposed to the instant local summary produced at ingest time.
func (s *StudyService) LLMSummary(ctx context.Context) (string, error) {
	docContext, err := s.requireGenerator()
	if err != nil {
		return "", err
	}
	return s.generator.Summary(ctx, docContext)
}

func (s *StudyService) requireGenerator() (string, error) {
	if s.generator == nil {
		return "", errors.New("service: no completion backend configured")
	}
	return s.studyContext()
}
