package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"studyrag/internal/chunker"
	"studyrag/internal/config"
	"studyrag/internal/domain"
	"studyrag/internal/embedding/openai"
	"studyrag/internal/embedding/tfidf"
	"studyrag/internal/llm"
	"studyrag/internal/service"
	"studyrag/internal/summarizer"
	"studyrag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/studyrag/config.yaml if not provided)")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) > 1 {
		fmt.Println("Usage: studyrag [--config=config.yaml] [document.pdf]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Assemble components
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.Embedder.OpenAI.BatchSize,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "words", "":
		ch, err = chunker.NewWordChunker(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)
		if err != nil {
			log.Fatalf("chunker init failed: %v", err)
		}
	case "sentence":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	default:
		log.Fatalf("unknown chunker: %s", cfg.Chunker.Type)
	}

	sum := summarizer.NewFrequencySummarizer()

	// The LLM client is optional: without an API key the app still runs in
	// retrieval-only mode, with question answering and generation disabled.
	var completer domain.Completer
	var budgeter service.TokenBudgeter
	if os.Getenv(cfg.LLM.APIKeyEnv) != "" {
		client, err := llm.NewClient(llm.Config{
			BaseURL:   cfg.LLM.BaseURL,
			APIKeyEnv: cfg.LLM.APIKeyEnv,
			Model:     cfg.LLM.Model,
			Timeout:   time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("llm init failed: %v", err)
		}
		completer = client
		budgeter = llm.Budgeter{}
	} else {
		log.Printf("%s not set; questions and study material generation are disabled", cfg.LLM.APIKeyEnv)
	}

	svc := service.New(ch, emb, sum, completer, budgeter, service.Options{
		DataDir:         cfg.DataDir,
		TopK:            cfg.Retrieval.TopK,
		AnswerTokens:    cfg.LLM.MaxTokens,
		ContextTokens:   cfg.LLM.ContextTokens,
		SummarySentence: cfg.Summarizer.MaxSentences,
	})

	if len(inputs) == 1 {
		if _, err := svc.IngestPDF(inputs[0]); err != nil {
			log.Fatalf("ingest failed: %v", err)
		}
	} else {
		restored, err := svc.Restore()
		if err != nil {
			log.Fatalf("failed to restore index: %v", err)
		}
		if restored {
			log.Printf("restored index with %d chunks from %s", svc.ChunkCount(), cfg.DataDir)
		}
	}

	if _, err := tea.NewProgram(tui.New(svc)).Run(); err != nil {
		log.Fatal(err)
	}
}
