package main

import (
	"errors"
	"os"
	"path/filepath"
)

type Config struct {
	ChunksPath string
	StylesDir  string
	DBPath     string
	// StylesDest defaults to a "styles" directory next to the database.
	StylesDest string
	Keep       bool
}

func (c Config) Validate() error {
	if c.ChunksPath == "" {
		return errors.New("missing -chunks")
	}
	if c.DBPath == "" {
		return errors.New("missing -db")
	}
	return nil
}

func (c Config) stylesDest() string {
	if c.StylesDest != "" {
		return c.StylesDest
	}
	return filepath.Join(filepath.Dir(c.DBPath), "styles")
}

func defaultConfig() Config {
	db := filepath.FromSlash("Library/Application Support/MEI/rag.db")
	if home, err := os.UserHomeDir(); err == nil {
		db = filepath.Join(home, db)
	}
	return Config{
		ChunksPath: filepath.FromSlash("data/chunks_with_embeddings.json"),
		StylesDir:  filepath.FromSlash("data/styles"),
		DBPath:     db,
	}
}
