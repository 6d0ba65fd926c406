package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theimaginaryfoundation/style-o-bot/chathistory"
	"github.com/theimaginaryfoundation/style-o-bot/styleprofile"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("rag-importer", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{"-chunks", "c.json", "-styles", "s", "-db", "x/rag.db", "-keep"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.ChunksPath != "c.json" || cfg.StylesDir != "s" || cfg.DBPath != "x/rag.db" || !cfg.Keep {
		t.Fatalf("cfg=%+v", cfg)
	}
	if got := cfg.stylesDest(); got != filepath.Join("x", "styles") {
		t.Fatalf("stylesDest=%q", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error for empty config")
	}
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	chunksPath := filepath.Join(dir, "chunks.json")
	chunks := []chathistory.Chunk{
		{ID: "a", Contact: "+15550001111", Text: "Me: hi", Embedding: []float32{1, 2}},
		{ID: "b", Contact: "+15550001111", Text: "Them: yo"},
	}
	if err := chathistory.WriteChunks(chunksPath, chunks); err != nil {
		t.Fatalf("WriteChunks: %v", err)
	}
	styles := filepath.Join(dir, "styles-in")
	if err := os.MkdirAll(styles, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := styleprofile.WriteProfiles(styles, []styleprofile.ContactProfile{{Key: "ana", Contact: "Ana", RelationshipTier: "friend"}}, false); err != nil {
		t.Fatalf("WriteProfiles: %v", err)
	}

	cfg := Config{ChunksPath: chunksPath, StylesDir: styles, DBPath: filepath.Join(dir, "app", "rag.db")}
	var out bytes.Buffer
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"chunks_loaded=2", "chunks_imported=1", "chunks_total=1", "profiles=1", "profiles_copied=1"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("summary=%q, missing %s", out.String(), want)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "app", "styles", "ana.json")); err != nil {
		t.Fatalf("expected copied profile: %v", err)
	}

	// Without -keep the database is rebuilt, so the total does not grow.
	out.Reset()
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !strings.Contains(out.String(), "chunks_total=1") {
		t.Fatalf("summary=%q", out.String())
	}
}
