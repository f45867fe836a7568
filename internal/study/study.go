// Package study derives study artifacts (multiple-choice questions, open
// Q&A, flashcards, summaries) from document chunks via the LLM collaborator.
package study

import (
	"context"
	"fmt"
	"strings"

	"studyrag/internal/domain"
)

// MCQ is a multiple-choice question with lettered options.
type MCQ struct {
	Question string
	Options  []string
	Correct  string
}

// QA is an open-ended question with a model answer.
type QA struct {
	Question string
	Answer   string
}

// Flashcard is a front/back study card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Generator builds study artifacts from document context.
type Generator struct {
	completer domain.Completer
}

// NewGenerator creates a study artifact generator over the given completer.
func NewGenerator(completer domain.Completer) *Generator {
	return &Generator{completer: completer}
}

// MCQ generates n multiple-choice questions from the given context.
func (g *Generator) MCQ(ctx context.Context, docContext string, n int) ([]MCQ, error) {
	prompt := fmt.Sprintf(`Create %d multiple-choice questions from the content below.

Follow this exact format:
Q1: [Question text]
A) [Option A]
B) [Option B]
C) [Option C]
D) [Option D]
Correct: [Letter]

Q2: [Question text]
...

Content:
%s
`, n, docContext)
	raw, err := g.completer.Complete(ctx, prompt, "You are an expert exam paper setter. Create clear, educational MCQs.", 2500)
	if err != nil {
		return nil, err
	}
	questions := ParseMCQ(raw)
	if len(questions) == 0 {
		return nil, fmt.Errorf("no parseable questions in model output")
	}
	return questions, nil
}

// QA generates n open-ended question/answer pairs from the given context.
func (g *Generator) QA(ctx context.Context, docContext string, n int) ([]QA, error) {
	prompt := fmt.Sprintf(`Create %d open-ended questions and detailed answers from the content.

Format:
Q1: [Question]
Answer: [Detailed answer]

Q2: [Question]
Answer: [Detailed answer]

Content:
%s
`, n, docContext)
	raw, err := g.completer.Complete(ctx, prompt, "You are an expert teacher creating study questions.", 2500)
	if err != nil {
		return nil, err
	}
	pairs := ParseQA(raw)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no parseable question/answer pairs in model output")
	}
	return pairs, nil
}

// Flashcards generates n front/back cards from the given context. The model
// is asked for a bare JSON array; parsing tolerates fences and surrounding
// prose.
func (g *Generator) Flashcards(ctx context.Context, docContext string, n int) ([]Flashcard, error) {
	if len(docContext) > 2000 {
		docContext = docContext[:2000]
	}
	prompt := fmt.Sprintf(`Create %d flashcards from this content.

Output ONLY a JSON array like this example:
[{"front":"What is IoT?","back":"Internet of Things - network of connected devices"},{"front":"Key benefit?","back":"Automation and efficiency"}]

Rules:
- Output ONLY the JSON array, nothing else
- No markdown, no explanations, no code blocks
- Start with [ and end with ]
- Use double quotes for all strings
- Keep front and back short

Content to make flashcards from:
%s`, n, docContext)
	raw, err := g.completer.Complete(ctx, prompt, "You output ONLY valid JSON arrays. No other text.", 3000)
	if err != nil {
		return nil, err
	}
	cards, err := ParseFlashcards(raw)
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// Summary generates a prose summary of the given context.
func (g *Generator) Summary(ctx context.Context, docContext string) (string, error) {
	prompt := fmt.Sprintf(`Write a clear, well-structured summary of the content below.
Cover the main topics and key points in a few short paragraphs.

Content:
%s
`, docContext)
	raw, err := g.completer.Complete(ctx, prompt, "You are a helpful learning assistant.", 2000)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}
