package tui

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studyrag/internal/domain"
	"studyrag/internal/study"
)

// StudyPort is the TUI-facing subset of the study service.
type StudyPort interface {
	Ready() bool
	ChunkCount() int
	Document() (*domain.Document, string)
	IngestPDF(path string) (string, error)
	Retrieve(query string, topK int) ([]domain.SearchResult, error)
	Ask(ctx context.Context, question string) (string, error)
	MCQ(ctx context.Context, n int) ([]study.MCQ, error)
	QA(ctx context.Context, n int) ([]study.QA, error)
	Flashcards(ctx context.Context, n int) ([]study.Flashcard, error)
	LLMSummary(ctx context.Context) (string, error)
}

const helpText = `Type a question and press Enter to ask the document.

Commands:
  /load <file.pdf>   load and index a PDF
  /find <query>      show the most similar chunks with scores
  /mcq [n]           generate n multiple-choice questions (default 5)
  /qa [n]            generate n open questions with answers (default 5)
  /cards [n]         generate n flashcards (default 10)
  /summary           generate an LLM summary of the document
  /help              show this help

Up/Down cycle retrieved chunks after /find, Ctrl+C quits.`

// Model is the Bubble Tea model for the interactive study session.
type Model struct {
	service   StudyPort
	input     textinput.Model
	viewport  viewport.Model
	results   []domain.SearchResult
	content   string
	status    string
	cursor    int
	ready     bool
	lastQuery string
	browsing  bool
}

// New creates a new TUI model instance.
func New(service StudyPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, or /help"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	m := Model{service: service, input: ti, viewport: vp, content: helpText}
	m.status = m.indexStatus()
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around content and query boxes
		_, rh := contentBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2 // header + summary
		totalFooterLines := 1 // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.render())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line != "" {
				m = m.execute(line)
				m.input.SetValue("")
				m.viewport.SetContent(m.render())
				m.viewport.GotoTop()
				return m, nil
			}
		case "down":
			if m.browsing && len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.render())
				return m, nil
			}
			m.viewport.LineDown(1)
			return m, nil
		case "up":
			if m.browsing && len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.render())
				return m, nil
			}
			m.viewport.LineUp(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// execute runs a command line or question synchronously and stores the
// outcome in the model.
func (m Model) execute(line string) Model {
	ctx := context.Background()
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/help":
		m.browsing = false
		m.content = helpText
		m.status = m.indexStatus()
	case "/load":
		if arg == "" {
			m.status = "Usage: /load <file.pdf>"
			return m
		}
		m.status = "Indexing " + arg + "..."
		summary, err := m.service.IngestPDF(arg)
		if err != nil {
			m.status = "Error: " + err.Error()
			return m
		}
		m.browsing = false
		doc, _ := m.service.Document()
		m.content = fmt.Sprintf("Loaded %q (%d pages, %d chunks).\n\n%s", doc.Title, doc.Pages, m.service.ChunkCount(), summary)
		m.status = m.indexStatus()
	case "/find":
		if arg == "" {
			m.status = "Usage: /find <query>"
			return m
		}
		res, err := m.service.Retrieve(arg, 10)
		if err != nil {
			m.status = "Error: " + err.Error()
			return m
		}
		if len(res) == 0 {
			m.status = "Nothing to search yet - load a document first."
			return m
		}
		m.browsing = true
		m.results = res
		m.cursor = 0
		m.lastQuery = arg
		m.status = fmt.Sprintf("Results for %q", arg)
	case "/mcq":
		questions, err := m.service.MCQ(ctx, argCount(arg, 5))
		if err != nil {
			m.status = "Error: " + err.Error()
			return m
		}
		m.browsing = false
		m.content = renderMCQ(questions)
		m.status = fmt.Sprintf("Generated %d multiple-choice questions", len(questions))
	case "/qa":
		pairs, err := m.service.QA(ctx, argCount(arg, 5))
		if err != nil {
			m.status = "Error: " + err.Error()
			return m
		}
		m.browsing = false
		m.content = renderQA(pairs)
		m.status = fmt.Sprintf("Generated %d questions with answers", len(pairs))
	case "/cards":
		cards, err := m.service.Flashcards(ctx, argCount(arg, 10))
		if err != nil {
			m.status = "Error: " + err.Error()
			return m
		}
		m.browsing = false
		m.content = renderFlashcards(cards)
		m.status = fmt.Sprintf("Generated %d flashcards", len(cards))
	case "/summary":
		summary, err := m.service.LLMSummary(ctx)
		if err != nil {
			m.status = "Error: " + err.Error()
			return m
		}
		m.browsing = false
		m.content = summary
		m.status = "Document summary"
	default:
		if strings.HasPrefix(cmd, "/") {
			m.status = "Unknown command " + cmd + " - try /help"
			return m
		}
		if !m.service.Ready() {
			m.status = "Nothing to search yet - load a document with /load first."
			return m
		}
		m.status = "Thinking..."
		answer, err := m.service.Ask(ctx, line)
		if err != nil {
			m.status = "Error: " + err.Error()
			return m
		}
		sources, _ := m.service.Retrieve(line, 3)
		m.browsing = false
		m.content = renderAnswer(answer, sources)
		m.status = fmt.Sprintf("Answered %q", line)
	}
	return m
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("studyrag - PDF study assistant")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.headerLine())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	content := contentBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + content + "\n" + input + "\n" + status
}

func (m Model) headerLine() string {
	doc, _ := m.service.Document()
	if doc == nil {
		if m.service.Ready() {
			return fmt.Sprintf("Restored index: %d chunks", m.service.ChunkCount())
		}
		return "No document loaded"
	}
	return fmt.Sprintf("%s - %d pages, %d chunks", doc.Title, doc.Pages, m.service.ChunkCount())
}

func (m Model) indexStatus() string {
	if m.service.Ready() {
		return "Ready. Ask away, or /help."
	}
	return "Load a document with /load <file.pdf> to begin."
}

func (m Model) render() string {
	if m.browsing {
		return m.renderCurrentResult()
	}
	return m.content
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Chunk %d/%d  score=%.3f", m.cursor+1, len(m.results), r.Score)
	body := highlightBestSentence(r.Chunk.Text, m.lastQuery)
	return title + "\n\n" + body
}

func renderAnswer(answer string, sources []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString(answerStyle.Render(answer))
	if len(sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render("Sources"))
		for i, s := range sources {
			b.WriteString(fmt.Sprintf("\n%d. (%.3f) %s", i+1, s.Score, firstSentence(s.Chunk.Text)))
		}
	}
	return b.String()
}

func renderMCQ(questions []study.MCQ) string {
	var b strings.Builder
	for i, q := range questions {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("Q%d: ", i+1)))
		b.WriteString(q.Question)
		for _, opt := range q.Options {
			b.WriteString("\n  " + opt)
		}
		b.WriteString("\n  Correct: " + q.Correct)
	}
	return b.String()
}

func renderQA(pairs []study.QA) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("Q%d: ", i+1)))
		b.WriteString(p.Question)
		b.WriteString("\n" + p.Answer)
	}
	return b.String()
}

func renderFlashcards(cards []study.Flashcard) string {
	var b strings.Builder
	for i, c := range cards {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("Card %d", i+1)))
		b.WriteString("\nFront: " + c.Front)
		b.WriteString("\nBack:  " + c.Back)
	}
	return b.String()
}

func argCount(arg string, def int) int {
	if arg == "" {
		return def
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func firstSentence(text string) string {
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		if len(text) > 80 {
			return text[:80] + "..."
		}
		return text
	}
	return strings.TrimSpace(sentences[0])
}

var (
	contentBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	answerStyle     = lipgloss.NewStyle()
	labelStyle      = lipgloss.NewStyle().Bold(true)
	unicodeWordRe   = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe      = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
