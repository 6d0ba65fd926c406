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

	"github.com/theimaginaryfoundation/style-o-bot/chathistory"
	"github.com/theimaginaryfoundation/style-o-bot/styleprofile"
	"github.com/theimaginaryfoundation/style-o-bot/styleprofile/lexicon"
	"github.com/theimaginaryfoundation/style-o-bot/styleprofile/vader"
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

	if cfg.Schema {
		b, err := styleprofile.SchemaJSON()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		os.Stdout.Write(append(b, '\n'))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout, newLogger(cfg.Verbose)); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, out io.Writer, logger *slog.Logger) error {
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	archive, err := chathistory.LoadArchive(ctx, cfg.InputPath)
	if err != nil {
		return err
	}
	logger.Info("loaded archive", "chats", len(archive.Chats), "path", cfg.InputPath)

	res, err := engine.ProfileContacts(ctx, archive, styleprofile.ContactOptions{
		Concurrency:       cfg.Concurrency,
		MinCorpusMessages: cfg.MinMessages,
		Logger:            logger,
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	written, err := styleprofile.WriteProfiles(cfg.OutputDir, res.Profiles, cfg.Overwrite)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "profiles_written=%d skipped_group=%d skipped_small=%d skipped_insufficient=%d skipped_timestamps=%d out_dir=%s\n",
		written, res.SkippedGroup, res.SkippedSmall, res.SkippedNoSubject, res.SkippedTimestamps, cfg.OutputDir)
	return nil
}

func newEngine(cfg Config) (*styleprofile.Engine, error) {
	lex := lexicon.Default()
	if cfg.LexiconPath != "" {
		l, err := lexicon.Load(cfg.LexiconPath)
		if err != nil {
			return nil, err
		}
		lex = l
	}
	if cfg.VaderLexiconPath == "" {
		return styleprofile.NewEngine(lex, nil), nil
	}
	a, err := vader.LoadFile(cfg.VaderLexiconPath)
	if err != nil {
		return nil, err
	}
	return styleprofile.NewEngine(lex, a), nil
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
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory to write <contact>.json style profiles into")
	fs.StringVar(&cfg.LexiconPath, "lexicon", "", "YAML file overriding the built-in slang/filler/greeting/topic tables")
	fs.StringVar(&cfg.VaderLexiconPath, "vader-lexicon", "", "VADER lexicon file (vader_lexicon.txt format) replacing the built-in full lexicon")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Contacts analysed concurrently")
	fs.IntVar(&cfg.MinMessages, "min-messages", cfg.MinMessages, "Skip contacts with fewer messages (both directions)")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing profile files")
	fs.BoolVar(&cfg.Schema, "schema", false, "Print the JSON Schema of a profile file and exit")
	fs.BoolVar(&cfg.Verbose, "v", false, "Debug logging on stderr")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/style-profiler -overwrite")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/style-profiler -schema > profile.schema.json")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.InputPath = filepath.Clean(cfg.InputPath)
	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	return cfg, nil
}
