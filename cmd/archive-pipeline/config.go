package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
)

var allStages = []string{"extract", "profile", "embed", "import"}

type Config struct {
	ChatDBPath string
	BaseDir    string
	RAGDBPath  string

	Concurrency int
	SkipEmbed   bool

	FromStage string
	OnlyStage string

	Pretty    bool
	Overwrite bool
}

func (c Config) Validate() error {
	if c.BaseDir == "" {
		return errors.New("missing -base-dir")
	}
	if c.Concurrency <= 0 {
		return errors.New("concurrency must be > 0")
	}
	if c.OnlyStage != "" && c.FromStage != "" {
		return errors.New("use only one of -only-stage or -from-stage")
	}
	for _, s := range []string{c.OnlyStage, c.FromStage} {
		if s != "" && !slices.Contains(allStages, s) {
			return fmt.Errorf("unknown stage %q (want one of %v)", s, allStages)
		}
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		BaseDir:     filepath.FromSlash("data"),
		Concurrency: 4,
	}
}
