package study

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ParseMCQ recovers structured questions from free-text model output in the
// prompted "Q1: ... A) ... Correct: X" shape. Unparseable lines are skipped;
// the parser is best-effort by design.
func ParseMCQ(text string) []MCQ {
	var questions []MCQ
	var current *MCQ

	flush := func() {
		if current != nil && current.Question != "" {
			questions = append(questions, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case isQuestionLine(line):
			flush()
			_, rest, _ := strings.Cut(line, ":")
			current = &MCQ{Question: strings.TrimSpace(rest)}
		case current != nil && isOptionLine(line):
			current.Options = append(current.Options, line)
		case current != nil && strings.HasPrefix(strings.ToLower(line), "correct"):
			if _, rest, ok := strings.Cut(line, ":"); ok {
				current.Correct = strings.TrimSpace(rest)
			} else {
				fields := strings.Fields(line)
				current.Correct = fields[len(fields)-1]
			}
		}
	}
	flush()
	return questions
}

// ParseQA recovers question/answer pairs from "Q1: ... Answer: ..." output.
// Lines following an answer line are treated as its continuation.
func ParseQA(text string) []QA {
	var pairs []QA
	var current *QA
	var answer []string

	flush := func() {
		if current != nil {
			current.Answer = strings.TrimSpace(strings.Join(answer, " "))
			pairs = append(pairs, *current)
		}
		current = nil
		answer = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case isQuestionLine(line):
			flush()
			_, rest, _ := strings.Cut(line, ":")
			current = &QA{Question: strings.TrimSpace(rest)}
		case current != nil && (strings.HasPrefix(lower, "answer:") || strings.HasPrefix(lower, "a:")):
			_, rest, _ := strings.Cut(line, ":")
			answer = append(answer, strings.TrimSpace(rest))
		case current != nil && len(answer) > 0:
			answer = append(answer, line)
		}
	}
	flush()
	return pairs
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\])\\s*```")

// ParseFlashcards decodes a JSON array of cards, tolerating code fences and
// prose around the array. Cards with an empty front or back are dropped;
// oversized sides are clipped.
func ParseFlashcards(text string) ([]Flashcard, error) {
	text = strings.TrimSpace(text)

	candidates := []string{text}
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if start, end := strings.Index(text, "["), strings.LastIndex(text, "]"); start != -1 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	for _, candidate := range candidates {
		var cards []Flashcard
		if err := json.Unmarshal([]byte(candidate), &cards); err != nil {
			continue
		}
		valid := make([]Flashcard, 0, len(cards))
		for _, c := range cards {
			c.Front = clipRunes(strings.TrimSpace(c.Front), 300)
			c.Back = clipRunes(strings.TrimSpace(c.Back), 500)
			if c.Front == "" || c.Back == "" {
				continue
			}
			valid = append(valid, c)
		}
		if len(valid) > 0 {
			return valid, nil
		}
	}
	return nil, errors.New("no valid flashcard array in model output")
}

// isQuestionLine matches "Q<n>:" prefixes such as Q1:, Q12:.
func isQuestionLine(line string) bool {
	if !strings.HasPrefix(line, "Q") {
		return false
	}
	head, _, ok := strings.Cut(line, ":")
	if !ok || len(head) > 4 {
		return false
	}
	for _, r := range head[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isOptionLine matches "A)".."D)" option prefixes.
func isOptionLine(line string) bool {
	if len(line) < 2 {
		return false
	}
	if line[0] < 'A' || line[0] > 'D' {
		return false
	}
	return strings.Contains(line[:min(3, len(line))], ")")
}

func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
