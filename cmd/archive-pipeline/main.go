package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

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

	for _, st := range plan(cfg) {
		if st.skip != "" {
			fmt.Fprintf(os.Stdout, "skip %s: %s\n", st.name, st.skip)
			continue
		}
		if err := runGo(ctx, st.args...); err != nil {
			os.Exit(1)
		}
	}
}

type step struct {
	name string
	args []string
	// skip is the reason the stage is not run; empty runs it.
	skip string
}

type paths struct {
	conversations string
	styles        string
	chunks        string
}

func pathsFor(cfg Config) paths {
	base := filepath.Clean(cfg.BaseDir)
	return paths{
		conversations: filepath.Join(base, "conversations.json"),
		styles:        filepath.Join(base, "styles"),
		chunks:        filepath.Join(base, "chunks_with_embeddings.json"),
	}
}

// plan lists the commands to run for the selected stages. Stages whose output already exists are skipped
// unless -overwrite is set.
func plan(cfg Config) []step {
	stages := allStages
	if cfg.OnlyStage != "" {
		stages = []string{cfg.OnlyStage}
	} else if cfg.FromStage != "" {
		stages = stagesFrom(stages, cfg.FromStage)
	}
	p := pathsFor(cfg)

	var out []step
	for _, stage := range stages {
		st := step{name: stage}
		switch stage {
		case "extract":
			if !cfg.Overwrite && fileutils.FileExists(p.conversations) {
				st.skip = "conversations already exist"
				break
			}
			st.args = []string{"run", "./cmd/history-extractor", "-out", p.conversations}
			if cfg.ChatDBPath != "" {
				st.args = append(st.args, "-db", cfg.ChatDBPath)
			}
			if cfg.Pretty {
				st.args = append(st.args, "-pretty")
			}
			if cfg.Overwrite {
				st.args = append(st.args, "-overwrite")
			}
		case "profile":
			if !cfg.Overwrite && dirHasJSON(p.styles) {
				st.skip = "style profiles already exist"
				break
			}
			st.args = []string{
				"run", "./cmd/style-profiler",
				"-in", p.conversations,
				"-out", p.styles,
				"-concurrency", fmt.Sprintf("%d", cfg.Concurrency),
			}
			if cfg.Overwrite {
				st.args = append(st.args, "-overwrite")
			}
		case "embed":
			if !cfg.Overwrite && fileutils.FileExists(p.chunks) {
				st.skip = "chunks already exist"
				break
			}
			st.args = []string{"run", "./cmd/chunk-embedder", "-in", p.conversations, "-out", p.chunks}
			if cfg.SkipEmbed {
				st.args = append(st.args, "-skip-embed")
			}
			if cfg.Overwrite {
				st.args = append(st.args, "-overwrite")
			}
		case "import":
			st.args = []string{"run", "./cmd/rag-importer", "-chunks", p.chunks, "-styles", p.styles}
			if cfg.RAGDBPath != "" {
				st.args = append(st.args, "-db", cfg.RAGDBPath)
			}
		}
		out = append(out, st)
	}
	return out
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.ChatDBPath, "chat-db", "", "Messages chat.db (default: history-extractor's default)")
	fs.StringVar(&cfg.BaseDir, "base-dir", cfg.BaseDir, "Directory for conversations.json, styles/ and chunks")
	fs.StringVar(&cfg.RAGDBPath, "rag-db", "", "RAG database path (default: rag-importer's default)")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Contacts profiled concurrently")
	fs.BoolVar(&cfg.SkipEmbed, "skip-embed", false, "Write chunks without calling the embeddings API")

	fs.StringVar(&cfg.FromStage, "from-stage", "", "Start at stage: "+strings.Join(allStages, "|"))
	fs.StringVar(&cfg.OnlyStage, "only-stage", "", "Run only one stage: "+strings.Join(allStages, "|"))

	fs.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "Pretty-print JSON outputs where supported")
	fs.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "Overwrite existing outputs instead of skipping finished stages")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.FromStage = strings.ToLower(strings.TrimSpace(cfg.FromStage))
	cfg.OnlyStage = strings.ToLower(strings.TrimSpace(cfg.OnlyStage))
	if cfg.ChatDBPath != "" {
		cfg.ChatDBPath = filepath.Clean(cfg.ChatDBPath)
	}
	if cfg.RAGDBPath != "" {
		cfg.RAGDBPath = filepath.Clean(cfg.RAGDBPath)
	}
	return cfg, nil
}

func runGo(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "command failed:", "go "+strings.Join(args, " "))
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		return err
	}
	fmt.Fprintln(os.Stdout, "ok:", "go "+strings.Join(args, " "), "(", time.Since(start).Round(time.Millisecond).String()+")")
	return nil
}

func stagesFrom(stages []string, from string) []string {
	for i, s := range stages {
		if s == from {
			return stages[i:]
		}
	}
	return stages
}

func dirHasJSON(dir string) bool {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			return true
		}
	}
	return false
}
