package main

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/theimaginaryfoundation/style-o-bot/chathistory"
)

type Config struct {
	DBPath    string
	OutPath   string
	Gap       time.Duration
	Pretty    bool
	Overwrite bool
	Verbose   bool
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("missing -db")
	}
	if c.OutPath == "" {
		return errors.New("missing -out")
	}
	if c.Gap <= 0 {
		return errors.New("gap must be > 0")
	}
	return nil
}

func defaultConfig() Config {
	db := filepath.FromSlash("Library/Messages/chat.db")
	if home, err := os.UserHomeDir(); err == nil {
		db = filepath.Join(home, db)
	}
	return Config{
		DBPath:  db,
		OutPath: filepath.FromSlash("data/conversations.json"),
		Gap:     chathistory.DefaultConversationGap,
	}
}
