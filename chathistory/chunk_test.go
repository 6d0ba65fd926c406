package chathistory

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func conversation(n int) []Message {
	out := make([]Message, n)
	for i := range out {
		out[i] = msgAt(int64(i+1), "iMessage;-;+15550001", i, i%2 == 0)
		out[i].Text = fmt.Sprintf("m%d", i+1)
	}
	return out
}

func TestChunkConversation_Windows(t *testing.T) {
	t.Parallel()

	chunks, err := ChunkConversation(conversation(12), ChunkOptions{})
	if err != nil {
		t.Fatalf("ChunkConversation: %v", err)
	}
	// Starts at 0, 7; the window at 14 is past the end. 7..11 has 5 messages.
	if len(chunks) != 2 {
		t.Fatalf("chunks=%d, want 2", len(chunks))
	}
	if chunks[0].MessageCount != 10 || chunks[1].MessageCount != 5 {
		t.Fatalf("counts=%d,%d, want 10,5", chunks[0].MessageCount, chunks[1].MessageCount)
	}
	if !strings.HasPrefix(chunks[0].Text, "Me: m1\nThem: m2\n") {
		t.Fatalf("text=%q", chunks[0].Text)
	}
	if !strings.HasPrefix(chunks[1].Text, "Them: m8\n") {
		t.Fatalf("second chunk should start at m8 (overlap 3), got %q", chunks[1].Text)
	}
	if chunks[0].FirstDate == "" || chunks[0].LastDate == chunks[0].FirstDate {
		t.Fatalf("dates=%q..%q", chunks[0].FirstDate, chunks[0].LastDate)
	}
}

func TestChunkConversation_SkipsShortTail(t *testing.T) {
	t.Parallel()

	// Windows at 0 (9 msgs) and 7 (2 msgs, dropped).
	chunks, err := ChunkConversation(conversation(9), ChunkOptions{})
	if err != nil {
		t.Fatalf("ChunkConversation: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("chunks=%d, want 1", len(chunks))
	}

	if _, err := ChunkConversation(conversation(3), ChunkOptions{Size: 3, Overlap: 3}); err == nil {
		t.Fatalf("expected error for overlap >= size")
	}
}

func TestBuildChunks_FiltersAndIDs(t *testing.T) {
	t.Parallel()

	direct := Chat{ChatIdentifier: "iMessage;-;+15550001", DisplayName: "Ana", Conversations: [][]Message{conversation(6), conversation(6)}}
	small := Chat{ChatIdentifier: "iMessage;-;+15550002", Conversations: [][]Message{conversation(9)}}
	group := Chat{ChatIdentifier: "chat1", IsGroup: true, Conversations: [][]Message{conversation(30)}}
	a := Archive{Chats: []Chat{direct, small, group}}

	chunks, err := BuildChunks(a, ChunkOptions{SubjectName: "Sam"})
	if err != nil {
		t.Fatalf("BuildChunks: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("chunks=%d, want 2 (one per conversation of the direct chat)", len(chunks))
	}
	for _, c := range chunks {
		if c.Contact != "+15550001" || c.ContactName != "Ana" || c.IsGroup {
			t.Fatalf("chunk=%+v", c)
		}
		if !strings.HasPrefix(c.Text, "Sam: ") {
			t.Fatalf("subject name not applied: %q", c.Text)
		}
	}
	// Identical text for the same contact yields the same ID.
	if chunks[0].ID != chunks[1].ID || chunks[0].ID == "" {
		t.Fatalf("ids=%q,%q, want equal and non-empty", chunks[0].ID, chunks[1].ID)
	}

	again, _ := BuildChunks(a, ChunkOptions{SubjectName: "Sam"})
	if again[0].ID != chunks[0].ID {
		t.Fatalf("ids not deterministic: %q vs %q", again[0].ID, chunks[0].ID)
	}
}

type fakeEmbedder struct {
	calls  atomic.Int32
	failOn int32
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	n := f.calls.Add(1)
	if n == f.failOn {
		return nil, errors.New("boom")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func TestEmbedChunks_DropsFailedBatch(t *testing.T) {
	t.Parallel()

	chunks := make([]Chunk, 5)
	for i := range chunks {
		chunks[i] = Chunk{ID: fmt.Sprintf("c%d", i), Text: strings.Repeat("x", i+1)}
	}
	e := &fakeEmbedder{failOn: 2}
	out, res, err := EmbedChunks(context.Background(), chunks, e, EmbedOptions{BatchSize: 2})
	if err != nil {
		t.Fatalf("EmbedChunks: %v", err)
	}
	if res.Embedded != 3 || res.Failed != 2 {
		t.Fatalf("res=%+v, want 3 embedded / 2 failed", res)
	}
	if len(out) != 3 || out[2].ID != "c4" {
		t.Fatalf("out ids=%v", out)
	}
	if out[0].Embedding[0] != 1 || out[2].Embedding[0] != 5 {
		t.Fatalf("embeddings not matched to chunks: %v %v", out[0].Embedding, out[2].Embedding)
	}
	if chunks[0].Embedding != nil {
		t.Fatalf("input slice was mutated")
	}
}

func TestEmbedChunks_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := EmbedChunks(ctx, []Chunk{{ID: "a", Text: "x"}}, &fakeEmbedder{}, EmbedOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

func TestWriteLoadChunks(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chunks.json")
	in := []Chunk{{ID: "a", Contact: "+1", Text: "Me: hi", MessageCount: 1, Embedding: []float32{0.5}}}
	if err := WriteChunks(path, in); err != nil {
		t.Fatalf("WriteChunks: %v", err)
	}
	got, err := LoadChunks(path)
	if err != nil {
		t.Fatalf("LoadChunks: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" || got[0].Embedding[0] != 0.5 {
		t.Fatalf("got=%+v", got)
	}
}
