package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/theimaginaryfoundation/style-o-bot/chathistory"
	"github.com/theimaginaryfoundation/style-o-bot/chathistory/fileutils"
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

	logger := newLogger(cfg.Verbose)
	if err := run(ctx, cfg, logger); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	if !cfg.Overwrite && fileutils.FileExists(cfg.OutPath) {
		return fmt.Errorf("output file already exists: %s (use -overwrite)", cfg.OutPath)
	}

	res, err := chathistory.ReadChatDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	if res.SkippedNoDate > 0 {
		logger.Warn("messages without a date were skipped", "count", res.SkippedNoDate)
	}
	archive, err := chathistory.BuildArchive(res.Messages, cfg.Gap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.OutPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := chathistory.WriteArchive(cfg.OutPath, archive, cfg.Pretty); err != nil {
		return err
	}

	groups := 0
	for _, c := range archive.Chats {
		if c.IsGroup {
			groups++
		}
	}
	fmt.Fprintf(os.Stdout, "messages=%d chats=%d group_chats=%d skipped_no_date=%d out=%s\n",
		len(res.Messages), len(archive.Chats), groups, res.SkippedNoDate, cfg.OutPath)
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

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the Messages chat.db (opened read-only)")
	fs.StringVar(&cfg.OutPath, "out", cfg.OutPath, "Path to write conversations.json")
	fs.DurationVar(&cfg.Gap, "gap", cfg.Gap, "Silence longer than this starts a new conversation")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print the output JSON")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite an existing output file")
	fs.BoolVar(&cfg.Verbose, "v", false, "Debug logging on stderr")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/history-extractor -pretty")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/history-extractor -db /tmp/chat.db -out data/conversations.json -overwrite")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.DBPath = filepath.Clean(cfg.DBPath)
	cfg.OutPath = filepath.Clean(cfg.OutPath)
	return cfg, nil
}
