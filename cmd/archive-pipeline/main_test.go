package main

import (
	"flag"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("archive-pipeline", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-chat-db", "/tmp/chat.db",
		"-base-dir", "out",
		"-concurrency", "6",
		"-from-stage", " Embed ",
		"-skip-embed",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.FromStage != "embed" {
		t.Fatalf("FromStage=%q", cfg.FromStage)
	}
	if cfg.Concurrency != 6 || !cfg.SkipEmbed || cfg.ChatDBPath != "/tmp/chat.db" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.OnlyStage = "summarize"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown stage")
	}
	cfg.OnlyStage = "profile"
	cfg.FromStage = "embed"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for both -only-stage and -from-stage")
	}
}

func TestPlan_AllStages(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.BaseDir = t.TempDir()
	steps := plan(cfg)
	var names []string
	for _, st := range steps {
		names = append(names, st.name)
		if st.skip != "" {
			t.Fatalf("stage %s skipped on an empty base dir: %s", st.name, st.skip)
		}
	}
	if !slices.Equal(names, allStages) {
		t.Fatalf("stages=%v, want %v", names, allStages)
	}
	if got := strings.Join(steps[1].args, " "); !strings.Contains(got, "./cmd/style-profiler") || !strings.Contains(got, "-concurrency 4") {
		t.Fatalf("profile args=%q", got)
	}
}

func TestPlan_SkipsFinishedStages(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.BaseDir = t.TempDir()
	if err := os.WriteFile(filepath.Join(cfg.BaseDir, "conversations.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg.OnlyStage = "extract"
	steps := plan(cfg)
	if len(steps) != 1 || steps[0].skip == "" {
		t.Fatalf("steps=%+v, want extract skipped", steps)
	}

	cfg.Overwrite = true
	steps = plan(cfg)
	if steps[0].skip != "" || !slices.Contains(steps[0].args, "-overwrite") {
		t.Fatalf("steps=%+v, want extract forced", steps)
	}
}

func TestPlan_FromStage(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.BaseDir = t.TempDir()
	cfg.FromStage = "embed"
	cfg.SkipEmbed = true
	steps := plan(cfg)
	if len(steps) != 2 || steps[0].name != "embed" || steps[1].name != "import" {
		t.Fatalf("steps=%+v", steps)
	}
	if !slices.Contains(steps[0].args, "-skip-embed") {
		t.Fatalf("embed args=%q", steps[0].args)
	}
}
