// Package ragstore builds the local SQLite retrieval database consumed by the reply agent: embedded
// conversation chunks, the agent's reply log, sync bookkeeping and the contact style profiles.
package ragstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/style-o-bot/chathistory"
	"github.com/theimaginaryfoundation/style-o-bot/chathistory/fileutils"
	"github.com/theimaginaryfoundation/style-o-bot/styleprofile"

	_ "modernc.org/sqlite"
)

// SyncLastRowID is the sync_state key holding the last chat.db rowid the agent has processed.
const SyncLastRowID = "last_processed_rowid"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		contact TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		message_count INTEGER,
		is_group_chat BOOLEAN DEFAULT FALSE,
		chunk_text TEXT NOT NULL,
		topics TEXT,
		embedding BLOB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_contact ON chunks(contact)`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_timestamp ON chunks(timestamp)`,
	`CREATE TABLE IF NOT EXISTS agent_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		contact TEXT NOT NULL,
		incoming_text TEXT NOT NULL,
		generated_text TEXT NOT NULL,
		confidence REAL,
		was_sent BOOLEAN,
		was_shadow BOOLEAN DEFAULT FALSE,
		reply_delay_seconds REAL,
		rag_chunks_used TEXT,
		user_feedback TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS sync_state (
		key TEXT PRIMARY KEY,
		value TEXT
	)`,
	`INSERT OR IGNORE INTO sync_state (key, value) VALUES ('last_processed_rowid', '0')`,
	`CREATE TABLE IF NOT EXISTS style_profiles (
		key TEXT PRIMARY KEY,
		contact TEXT NOT NULL,
		phone TEXT,
		profile TEXT NOT NULL,
		imported_at TEXT NOT NULL
	)`,
}

// Config controls Open.
type Config struct {
	Path string
	// Reset removes an existing database (and its WAL files) before opening.
	Reset bool
}

// Store is an open rag.db.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the parent directory, applies pragmas and ensures the schema exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if ctx == nil {
		return nil, errors.New("Open: ctx is nil")
	}
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("Open: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("Open: create db directory: %w", err)
	}
	if cfg.Reset {
		for _, p := range []string{cfg.Path, cfg.Path + "-wal", cfg.Path + "-shm"} {
			if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("Open: remove %s: %w", p, err)
			}
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("Open: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: ping database: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("Open: pragma %q: %w", p, err)
		}
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("Open: schema: %w", err)
		}
	}
	return &Store{db: db, path: cfg.Path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path is the database file.
func (s *Store) Path() string { return s.path }

// ImportChunks upserts every chunk that carries an embedding and returns how many were written.
func (s *Store) ImportChunks(ctx context.Context, chunks []chathistory.Chunk) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ImportChunks: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO chunks
		(id, contact, timestamp, message_count, is_group_chat, chunk_text, topics, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("ImportChunks: prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		topics := c.Topics
		if topics == nil {
			topics = []string{}
		}
		tb, err := json.Marshal(topics)
		if err != nil {
			return 0, fmt.Errorf("ImportChunks: topics for %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.Contact, c.FirstDate, c.MessageCount, c.IsGroup, c.Text, string(tb), float32ToBytes(c.Embedding)); err != nil {
			return 0, fmt.Errorf("ImportChunks: insert %s: %w", c.ID, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ImportChunks: commit: %w", err)
	}
	return inserted, nil
}

// ImportProfiles upserts contact profiles keyed by their file key.
func (s *Store) ImportProfiles(ctx context.Context, profiles []styleprofile.ContactProfile) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ImportProfiles: begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range profiles {
		if p.Key == "" {
			return 0, fmt.Errorf("ImportProfiles: profile for %q has no key", p.Contact)
		}
		b, err := json.Marshal(p)
		if err != nil {
			return 0, fmt.Errorf("ImportProfiles: marshal %s: %w", p.Key, err)
		}
		var phone sql.NullString
		if p.Phone != nil {
			phone = sql.NullString{String: *p.Phone, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO style_profiles (key, contact, phone, profile, imported_at)
			VALUES (?, ?, ?, ?, ?)`, p.Key, p.Contact, phone, string(b), now); err != nil {
			return 0, fmt.Errorf("ImportProfiles: insert %s: %w", p.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ImportProfiles: commit: %w", err)
	}
	return len(profiles), nil
}

// Profile returns the stored profile for key.
func (s *Store) Profile(ctx context.Context, key string) (styleprofile.ContactProfile, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT profile FROM style_profiles WHERE key = ?`, key).Scan(&body)
	if err != nil {
		return styleprofile.ContactProfile{}, fmt.Errorf("Profile: %s: %w", key, err)
	}
	var p styleprofile.ContactProfile
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return styleprofile.ContactProfile{}, fmt.Errorf("Profile: decode %s: %w", key, err)
	}
	p.Key = key
	return p, nil
}

// ChunkCount is the number of stored chunks.
func (s *Store) ChunkCount(ctx context.Context) (int, error) {
	return s.count(ctx, "chunks")
}

// ProfileCount is the number of stored style profiles.
func (s *Store) ProfileCount(ctx context.Context) (int, error) {
	return s.count(ctx, "style_profiles")
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Embedding decodes the stored vector of chunk id. A missing chunk returns sql.ErrNoRows.
func (s *Store) Embedding(ctx context.Context, id string) ([]float32, error) {
	var blob []byte
	if err := s.db.QueryRowContext(ctx, `SELECT embedding FROM chunks WHERE id = ?`, id).Scan(&blob); err != nil {
		return nil, fmt.Errorf("Embedding: %s: %w", id, err)
	}
	return bytesToFloat32(blob), nil
}

// SyncState reads a sync_state value; ok is false when the key is absent.
func (s *Store) SyncState(ctx context.Context, key string) (value string, ok bool, err error) {
	var v sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("SyncState: %s: %w", key, err)
	}
	return v.String, true, nil
}

// SetSyncState upserts a sync_state value.
func (s *Store) SetSyncState(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO sync_state (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("SetSyncState: %s: %w", key, err)
	}
	return nil
}

// AgentReply is one agent_log row.
type AgentReply struct {
	Timestamp         time.Time
	Contact           string
	IncomingText      string
	GeneratedText     string
	Confidence        float64
	WasSent           bool
	WasShadow         bool
	ReplyDelaySeconds float64
	RAGChunksUsed     []string
	UserFeedback      string
}

// LogReply appends a reply to agent_log and returns its row id.
func (s *Store) LogReply(ctx context.Context, r AgentReply) (int64, error) {
	if r.Contact == "" {
		return 0, errors.New("LogReply: contact is empty")
	}
	used := r.RAGChunksUsed
	if used == nil {
		used = []string{}
	}
	ub, err := json.Marshal(used)
	if err != nil {
		return 0, fmt.Errorf("LogReply: chunks used: %w", err)
	}
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	var feedback sql.NullString
	if r.UserFeedback != "" {
		feedback = sql.NullString{String: r.UserFeedback, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO agent_log
		(timestamp, contact, incoming_text, generated_text, confidence, was_sent, was_shadow, reply_delay_seconds, rag_chunks_used, user_feedback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		chathistory.FormatDate(ts), r.Contact, r.IncomingText, r.GeneratedText, r.Confidence,
		r.WasSent, r.WasShadow, r.ReplyDelaySeconds, string(ub), feedback)
	if err != nil {
		return 0, fmt.Errorf("LogReply: insert: %w", err)
	}
	return res.LastInsertId()
}

// CopyStyleProfiles copies every *.json file in srcDir into dstDir, replacing existing copies, and returns
// the copied file names in lexical order. A missing srcDir copies nothing.
func CopyStyleProfiles(srcDir, dstDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(srcDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("CopyStyleProfiles: glob: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return nil, fmt.Errorf("CopyStyleProfiles: create %s: %w", dstDir, err)
	}
	sort.Strings(matches)
	var copied []string
	for _, src := range matches {
		name := filepath.Base(src)
		ok, err := fileutils.CopyFileIfExists(src, filepath.Join(dstDir, name), true)
		if err != nil {
			return copied, fmt.Errorf("CopyStyleProfiles: %s: %w", name, err)
		}
		if ok {
			copied = append(copied, name)
		}
	}
	return copied, nil
}

// LoadProfiles reads every *.json profile in dir, using the file stem as the key.
func LoadProfiles(dir string) ([]styleprofile.ContactProfile, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("LoadProfiles: glob: %w", err)
	}
	sort.Strings(matches)
	out := make([]styleprofile.ContactProfile, 0, len(matches))
	for _, path := range matches {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadProfiles: read %s: %w", path, err)
		}
		var p styleprofile.ContactProfile
		if err := json.Unmarshal(b, &p); err != nil {
			return nil, fmt.Errorf("LoadProfiles: decode %s: %w", path, err)
		}
		p.Key = strings.TrimSuffix(filepath.Base(path), ".json")
		out = append(out, p)
	}
	return out, nil
}

func float32ToBytes(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func bytesToFloat32(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
