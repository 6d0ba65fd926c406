package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/theimaginaryfoundation/style-o-bot/chathistory"
	"github.com/theimaginaryfoundation/style-o-bot/chathistory/fileutils"
	"github.com/theimaginaryfoundation/style-o-bot/chathistory/provider"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	var embedder chathistory.Embedder
	if !cfg.SkipEmbed {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
			os.Exit(2)
		}
		e, err := provider.NewOpenAIEmbedder(provider.EmbedderConfig{
			APIKey:     apiKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Retry:      provider.DefaultRetryPolicy,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(2)
		}
		embedder = e
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, embedder, os.Stdout, newLogger(cfg.Verbose)); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// run chunks every direct chat and, unless embedder is nil, embeds the chunks before writing them.
func run(ctx context.Context, cfg Config, embedder chathistory.Embedder, out io.Writer, logger *slog.Logger) error {
	if !cfg.Overwrite && fileutils.FileExists(cfg.OutputPath) {
		return fmt.Errorf("output file already exists: %s (use -overwrite)", cfg.OutputPath)
	}

	archive, err := chathistory.LoadArchive(ctx, cfg.InputPath)
	if err != nil {
		return err
	}
	chunks, err := chathistory.BuildChunks(archive, chathistory.ChunkOptions{
		Size:        cfg.ChunkSize,
		Overlap:     cfg.ChunkOverlap,
		SubjectName: cfg.SubjectName,
	})
	if err != nil {
		return err
	}
	logger.Info("built chunks", "chunks", len(chunks), "chats", len(archive.Chats))

	total := len(chunks)
	res := chathistory.EmbedResult{}
	if embedder != nil {
		chunks, res, err = chathistory.EmbedChunks(ctx, chunks, embedder, chathistory.EmbedOptions{
			BatchSize: cfg.BatchSize,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := chathistory.WriteChunks(cfg.OutputPath, chunks); err != nil {
		return err
	}
	fmt.Fprintf(out, "chunks=%d embedded=%d failed=%d out=%s\n", total, res.Embedded, res.Failed, cfg.OutputPath)
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "Path to conversations.json written by history-extractor")
	fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "Path to write the chunk array (with embeddings)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var and .env)")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "OpenAI-compatible API base URL")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "Embedding model")
	fs.IntVar(&cfg.Dimensions, "dimensions", cfg.Dimensions, "Embedding dimensions")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Texts per embeddings request")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "Messages per chunk")
	fs.IntVar(&cfg.ChunkOverlap, "chunk-overlap", cfg.ChunkOverlap, "Messages shared by consecutive chunks")
	fs.StringVar(&cfg.SubjectName, "subject-name", cfg.SubjectName, "Speaker label for your own messages in chunk text")
	fs.BoolVar(&cfg.SkipEmbed, "skip-embed", false, "Write chunks without calling the embeddings API")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite an existing output file")
	fs.BoolVar(&cfg.Verbose, "v", false, "Debug logging on stderr")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/chunk-embedder -overwrite")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/chunk-embedder -skip-embed -out data/chunks.json")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.InputPath = filepath.Clean(cfg.InputPath)
	cfg.OutputPath = filepath.Clean(cfg.OutputPath)
	return cfg, nil
}
