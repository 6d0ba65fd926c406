package chathistory

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/style-o-bot/chathistory/fileutils"
)

// DefaultConversationGap is the silence after which a new conversation starts.
const DefaultConversationGap = 60 * time.Minute

// Message is one text message as extracted from chat.db.
type Message struct {
	RowID          int64  `json:"rowid"`
	Text           string `json:"text"`
	IsFromMe       bool   `json:"is_from_me"`
	Date           string `json:"date"`
	ChatIdentifier string `json:"chat_identifier"`
	DisplayName    string `json:"display_name"`
	IsGroup        bool   `json:"is_group"`
	HandleID       string `json:"handle_id"`
	HasAttachment  bool   `json:"has_attachment"`
}

// Chat is one chat thread with its messages split into conversations.
type Chat struct {
	ChatIdentifier string      `json:"chat_identifier"`
	DisplayName    string      `json:"display_name"`
	IsGroup        bool        `json:"is_group"`
	TotalMessages  int         `json:"total_messages"`
	Conversations  [][]Message `json:"conversations"`
}

// ContactID is the handle part of the chat identifier ("iMessage;-;+15551234567" -> "+15551234567").
func (c Chat) ContactID() string {
	id := c.ChatIdentifier
	if i := strings.LastIndex(id, ";"); i >= 0 {
		id = id[i+1:]
	}
	return id
}

// ContactMessages flattens a chat's conversations back into one time-ordered list.
func ContactMessages(c Chat) []Message {
	var out []Message
	for _, conv := range c.Conversations {
		out = append(out, conv...)
	}
	return out
}

// Archive is the conversations.json document: a JSON object keyed by chat identifier.
// Chats keep the order they appear in the file so downstream output does not depend on map iteration.
type Archive struct {
	Chats []Chat
}

// MarshalJSON writes the chats as an object in slice order.
func (a Archive) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range a.Chats {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.ChatIdentifier)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object key by key so file order survives.
func (a *Archive) UnmarshalJSON(b []byte) error {
	chats, err := decodeChats(context.Background(), json.NewDecoder(bytes.NewReader(b)))
	if err != nil {
		return err
	}
	a.Chats = chats
	return nil
}

// LoadArchive streams conversations.json from disk.
func LoadArchive(ctx context.Context, path string) (Archive, error) {
	if ctx == nil {
		return Archive{}, errors.New("LoadArchive: ctx is nil")
	}
	if path == "" {
		return Archive{}, errors.New("LoadArchive: path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return Archive{}, fmt.Errorf("LoadArchive: open input: %w", err)
	}
	defer f.Close()

	chats, err := decodeChats(ctx, json.NewDecoder(bufio.NewReaderSize(f, 1<<20)))
	if err != nil {
		return Archive{}, fmt.Errorf("LoadArchive: %w", err)
	}
	return Archive{Chats: chats}, nil
}

func decodeChats(ctx context.Context, dec *json.Decoder) ([]Chat, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read first token: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	chats := []Chat{}
	for dec.More() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read object key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %T", keyTok)
		}
		var c Chat
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("decode chat %q: %w", key, err)
		}
		if c.ChatIdentifier == "" {
			c.ChatIdentifier = key
		}
		chats = append(chats, c)
	}

	if tok, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read closing object token: %w", err)
	} else if d, ok := tok.(json.Delim); !ok || d != '}' {
		return nil, fmt.Errorf("expected closing '}', got %v", tok)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after archive object")
	}
	return chats, nil
}

// WriteArchive replaces path with the archive.
func WriteArchive(path string, a Archive, pretty bool) error {
	if path == "" {
		return errors.New("WriteArchive: path is empty")
	}
	if err := fileutils.WriteJSONFileAtomic(path, a, pretty); err != nil {
		return fmt.Errorf("WriteArchive: %w", err)
	}
	return nil
}

// BuildArchive groups date-ordered messages by chat identifier, in first-seen order, and splits each chat
// into conversations at gaps longer than gap. Display name and group flag come from the chat's first message.
func BuildArchive(msgs []Message, gap time.Duration) (Archive, error) {
	if gap <= 0 {
		gap = DefaultConversationGap
	}
	index := make(map[string]int)
	var grouped [][]Message
	for _, m := range msgs {
		i, ok := index[m.ChatIdentifier]
		if !ok {
			i = len(grouped)
			index[m.ChatIdentifier] = i
			grouped = append(grouped, nil)
		}
		grouped[i] = append(grouped[i], m)
	}

	a := Archive{Chats: make([]Chat, 0, len(grouped))}
	for _, g := range grouped {
		convs, err := SplitConversations(g, gap)
		if err != nil {
			return Archive{}, fmt.Errorf("BuildArchive: chat %q: %w", g[0].ChatIdentifier, err)
		}
		a.Chats = append(a.Chats, Chat{
			ChatIdentifier: g[0].ChatIdentifier,
			DisplayName:    g[0].DisplayName,
			IsGroup:        g[0].IsGroup,
			TotalMessages:  len(g),
			Conversations:  convs,
		})
	}
	return a, nil
}

// SplitConversations starts a new conversation whenever the gap to the previous message exceeds gap.
func SplitConversations(msgs []Message, gap time.Duration) ([][]Message, error) {
	if len(msgs) == 0 {
		return nil, nil
	}
	prev, err := ParseDate(msgs[0].Date)
	if err != nil {
		return nil, fmt.Errorf("SplitConversations: rowid %d: %w", msgs[0].RowID, err)
	}
	var convs [][]Message
	cur := []Message{msgs[0]}
	for _, m := range msgs[1:] {
		ts, err := ParseDate(m.Date)
		if err != nil {
			return nil, fmt.Errorf("SplitConversations: rowid %d: %w", m.RowID, err)
		}
		if ts.Sub(prev) > gap {
			convs = append(convs, cur)
			cur = nil
		}
		cur = append(cur, m)
		prev = ts
	}
	return append(convs, cur), nil
}
