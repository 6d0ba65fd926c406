package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/theimaginaryfoundation/style-o-bot/chathistory"
	"github.com/theimaginaryfoundation/style-o-bot/ragstore"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, out io.Writer) error {
	chunks, err := chathistory.LoadChunks(cfg.ChunksPath)
	if err != nil {
		return err
	}

	store, err := ragstore.Open(ctx, ragstore.Config{Path: cfg.DBPath, Reset: !cfg.Keep})
	if err != nil {
		return err
	}
	defer store.Close()

	inserted, err := store.ImportChunks(ctx, chunks)
	if err != nil {
		return err
	}

	profiles, err := ragstore.LoadProfiles(cfg.StylesDir)
	if err != nil {
		return err
	}
	if _, err := store.ImportProfiles(ctx, profiles); err != nil {
		return err
	}
	copied, err := ragstore.CopyStyleProfiles(cfg.StylesDir, cfg.stylesDest())
	if err != nil {
		return err
	}

	total, err := store.ChunkCount(ctx)
	if err != nil {
		return err
	}
	var size int64
	if fi, err := os.Stat(cfg.DBPath); err == nil {
		size = fi.Size()
	}
	fmt.Fprintf(out, "chunks_loaded=%d chunks_imported=%d chunks_total=%d profiles=%d profiles_copied=%d db=%s db_bytes=%d styles=%s\n",
		len(chunks), inserted, total, len(profiles), len(copied), cfg.DBPath, size, cfg.stylesDest())
	return nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.ChunksPath, "chunks", cfg.ChunksPath, "Chunk array written by chunk-embedder")
	fs.StringVar(&cfg.StylesDir, "styles", cfg.StylesDir, "Directory of style profiles written by style-profiler")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "RAG database to create")
	fs.StringVar(&cfg.StylesDest, "styles-dest", "", "Where to copy style profiles (default: <db dir>/styles)")
	fs.BoolVar(&cfg.Keep, "keep", false, "Upsert into an existing database instead of recreating it")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/rag-importer")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/rag-importer -db /tmp/rag.db -keep")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.ChunksPath = filepath.Clean(cfg.ChunksPath)
	cfg.StylesDir = filepath.Clean(cfg.StylesDir)
	cfg.DBPath = filepath.Clean(cfg.DBPath)
	if cfg.StylesDest != "" {
		cfg.StylesDest = filepath.Clean(cfg.StylesDest)
	}
	return cfg, nil
}
