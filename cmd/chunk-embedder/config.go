package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/theimaginaryfoundation/style-o-bot/chathistory/provider"
)

type Config struct {
	InputPath  string
	OutputPath string

	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	BatchSize  int

	ChunkSize    int
	ChunkOverlap int
	SubjectName  string

	SkipEmbed bool
	Overwrite bool
	Verbose   bool
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("missing -in")
	}
	if c.OutputPath == "" {
		return errors.New("missing -out")
	}
	if !c.SkipEmbed && c.Model == "" {
		return errors.New("missing -model")
	}
	if c.Dimensions < 0 || c.BatchSize <= 0 {
		return errors.New("dimensions must be >= 0 and batch-size > 0")
	}
	if c.ChunkSize <= 0 {
		return errors.New("chunk-size must be > 0")
	}
	if c.ChunkOverlap <= 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk-overlap must be in [1, %d)", c.ChunkSize)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InputPath:    filepath.FromSlash("data/conversations.json"),
		OutputPath:   filepath.FromSlash("data/chunks_with_embeddings.json"),
		Model:        provider.DefaultEmbeddingModel,
		Dimensions:   provider.DefaultEmbeddingDimensions,
		BatchSize:    64,
		ChunkSize:    10,
		ChunkOverlap: 3,
		SubjectName:  "Me",
	}
}
