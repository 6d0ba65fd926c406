package main

import (
	"errors"
	"path/filepath"

	"github.com/theimaginaryfoundation/style-o-bot/styleprofile"
)

type Config struct {
	InputPath        string
	OutputDir        string
	LexiconPath      string
	VaderLexiconPath string
	Concurrency      int
	MinMessages      int
	Overwrite        bool
	Schema           bool
	Verbose          bool
}

func (c Config) Validate() error {
	if c.Schema {
		return nil
	}
	if c.InputPath == "" {
		return errors.New("missing -in")
	}
	if c.OutputDir == "" {
		return errors.New("missing -out")
	}
	if c.Concurrency <= 0 {
		return errors.New("concurrency must be > 0")
	}
	if c.MinMessages <= 0 {
		return errors.New("min-messages must be > 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InputPath:   filepath.FromSlash("data/conversations.json"),
		OutputDir:   filepath.FromSlash("data/styles"),
		Concurrency: 4,
		MinMessages: styleprofile.MinCorpusMessages,
	}
}
