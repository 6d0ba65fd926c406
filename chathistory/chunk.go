package chathistory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/theimaginaryfoundation/style-o-bot/chathistory/fileutils"
)

// chunkNamespace seeds the name-based chunk IDs so identical chunks always get the same ID.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/theimaginaryfoundation/style-o-bot/chunk"))

// Chunk is a window of consecutive messages from one conversation, rendered as "Name: text" lines.
type Chunk struct {
	ID           string    `json:"id"`
	Contact      string    `json:"contact"`
	ContactName  string    `json:"contact_name"`
	IsGroup      bool      `json:"is_group"`
	Text         string    `json:"text"`
	MessageCount int       `json:"message_count"`
	FirstDate    string    `json:"first_date"`
	LastDate     string    `json:"last_date"`
	Topics       []string  `json:"topics,omitempty"`
	Embedding    []float32 `json:"embedding,omitempty"`
}

// ChunkOptions controls windowing.
type ChunkOptions struct {
	// Size is the number of messages per chunk (default 10).
	Size int
	// Overlap is how many messages consecutive chunks share (default 3). Must be less than Size.
	Overlap int
	// MinMessages drops trailing windows shorter than this (default 3).
	MinMessages int
	// MinContactMessages skips contacts with fewer messages in total (default 10).
	MinContactMessages int
	SubjectName        string
	OtherName          string
}

func (o ChunkOptions) withDefaults() (ChunkOptions, error) {
	if o.Size == 0 {
		o.Size = 10
	}
	if o.Overlap == 0 {
		o.Overlap = 3
	}
	if o.MinMessages == 0 {
		o.MinMessages = 3
	}
	if o.MinContactMessages == 0 {
		o.MinContactMessages = 10
	}
	if o.SubjectName == "" {
		o.SubjectName = "Me"
	}
	if o.OtherName == "" {
		o.OtherName = "Them"
	}
	if o.Size < 1 {
		return o, fmt.Errorf("chunk size must be >= 1 (got %d)", o.Size)
	}
	if o.Overlap < 0 || o.Overlap >= o.Size {
		return o, fmt.Errorf("chunk overlap must be in [0, %d) (got %d)", o.Size, o.Overlap)
	}
	return o, nil
}

// ChunkConversation windows one conversation with a stride of Size-Overlap.
func ChunkConversation(msgs []Message, opts ChunkOptions) ([]Chunk, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("ChunkConversation: %w", err)
	}
	var out []Chunk
	for i := 0; i < len(msgs); i += opts.Size - opts.Overlap {
		window := msgs[i:min(i+opts.Size, len(msgs))]
		if len(window) < opts.MinMessages {
			continue
		}
		lines := make([]string, len(window))
		for j, m := range window {
			sender := opts.OtherName
			if m.IsFromMe {
				sender = opts.SubjectName
			}
			lines[j] = sender + ": " + m.Text
		}
		out = append(out, Chunk{
			Text:         strings.Join(lines, "\n"),
			MessageCount: len(window),
			FirstDate:    window[0].Date,
			LastDate:     window[len(window)-1].Date,
		})
	}
	return out, nil
}

// BuildChunks chunks every direct chat with at least MinContactMessages messages. Each conversation is
// windowed separately so no chunk spans a long silence.
func BuildChunks(a Archive, opts ChunkOptions) ([]Chunk, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("BuildChunks: %w", err)
	}
	var out []Chunk
	for _, c := range a.Chats {
		if c.IsGroup {
			continue
		}
		if len(ContactMessages(c)) < opts.MinContactMessages {
			continue
		}
		contact := c.ContactID()
		name := c.DisplayName
		if name == "" {
			name = contact
		}
		for _, conv := range c.Conversations {
			chunks, err := ChunkConversation(conv, opts)
			if err != nil {
				return nil, fmt.Errorf("BuildChunks: %w", err)
			}
			for _, ch := range chunks {
				ch.Contact = contact
				ch.ContactName = name
				ch.ID = uuid.NewSHA1(chunkNamespace, []byte(contact+"\n"+ch.Text)).String()
				out = append(out, ch)
			}
		}
	}
	return out, nil
}

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedOptions controls EmbedChunks.
type EmbedOptions struct {
	// BatchSize is the number of texts per Embed call (default 64).
	BatchSize int
	// ProgressEvery logs a progress line every N chunks (default 50).
	ProgressEvery int
	Logger        *slog.Logger
}

// EmbedResult counts what EmbedChunks did.
type EmbedResult struct {
	Embedded int
	Failed   int
}

// EmbedChunks fills in embeddings and returns only the chunks that received one. A failed batch is
// logged and its chunks dropped; cancellation stops the run with ctx's error.
func EmbedChunks(ctx context.Context, chunks []Chunk, e Embedder, opts EmbedOptions) ([]Chunk, EmbedResult, error) {
	if ctx == nil {
		return nil, EmbedResult{}, errors.New("EmbedChunks: ctx is nil")
	}
	if e == nil {
		return nil, EmbedResult{}, errors.New("EmbedChunks: embedder is nil")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 50
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var (
		out  []Chunk
		res  EmbedResult
		done int
	)
	for start := 0; start < len(chunks); start += opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, res, err
		}
		batch := chunks[start:min(start+opts.BatchSize, len(chunks))]
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vecs, err := e.Embed(ctx, texts)
		if err == nil && len(vecs) != len(batch) {
			err = fmt.Errorf("got %d embeddings for %d texts", len(vecs), len(batch))
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, res, ctx.Err()
			}
			res.Failed += len(batch)
			logger.Warn("embed batch failed",
				"first_chunk", batch[0].ID,
				"preview", fileutils.Preview(batch[0].Text, 60),
				"size", len(batch),
				"err", err)
		} else {
			for i, c := range batch {
				if len(vecs[i]) == 0 {
					res.Failed++
					continue
				}
				c.Embedding = vecs[i]
				out = append(out, c)
				res.Embedded++
			}
		}

		prev := done
		done += len(batch)
		if done/opts.ProgressEvery > prev/opts.ProgressEvery || done == len(chunks) {
			logger.Info("embedding progress", "done", done, "total", len(chunks))
		}
	}
	return out, res, nil
}

// WriteChunks replaces path with the chunks as a JSON array.
func WriteChunks(path string, chunks []Chunk) error {
	if chunks == nil {
		chunks = []Chunk{}
	}
	if err := fileutils.WriteJSONFileAtomic(path, chunks, false); err != nil {
		return fmt.Errorf("WriteChunks: %w", err)
	}
	return nil
}

// LoadChunks reads a file written by WriteChunks.
func LoadChunks(path string) ([]Chunk, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadChunks: read: %w", err)
	}
	var chunks []Chunk
	if err := json.Unmarshal(b, &chunks); err != nil {
		return nil, fmt.Errorf("LoadChunks: unmarshal: %w", err)
	}
	return chunks, nil
}
