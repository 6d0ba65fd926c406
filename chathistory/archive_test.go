package chathistory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func msgAt(id int64, chat string, minute int, fromMe bool) Message {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return Message{
		RowID:          id,
		Text:           "msg",
		IsFromMe:       fromMe,
		Date:           FormatDate(base.Add(time.Duration(minute) * time.Minute)),
		ChatIdentifier: chat,
	}
}

func TestSplitConversations_GapBoundary(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		msgAt(1, "a", 0, true),
		msgAt(2, "a", 60, false),  // exactly 60 minutes: same conversation
		msgAt(3, "a", 121, true),  // 61 minutes: new conversation
		msgAt(4, "a", 125, false), // same
	}
	convs, err := SplitConversations(msgs, DefaultConversationGap)
	if err != nil {
		t.Fatalf("SplitConversations: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("conversations=%d, want 2", len(convs))
	}
	if len(convs[0]) != 2 || len(convs[1]) != 2 {
		t.Fatalf("sizes=%d,%d, want 2,2", len(convs[0]), len(convs[1]))
	}
	if convs[1][0].RowID != 3 {
		t.Fatalf("second conversation starts at rowid %d, want 3", convs[1][0].RowID)
	}
}

func TestSplitConversations_BadDate(t *testing.T) {
	t.Parallel()

	msgs := []Message{msgAt(1, "a", 0, true), {RowID: 2, Date: "yesterday"}}
	if _, err := SplitConversations(msgs, time.Hour); err == nil {
		t.Fatalf("expected error for unparseable date")
	}
}

func TestBuildArchive_FirstSeenOrder(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		msgAt(1, "zed", 0, true),
		msgAt(2, "amy", 1, false),
		msgAt(3, "zed", 2, false),
	}
	msgs[0].DisplayName = "Zed"
	a, err := BuildArchive(msgs, 0)
	if err != nil {
		t.Fatalf("BuildArchive: %v", err)
	}
	if len(a.Chats) != 2 {
		t.Fatalf("chats=%d, want 2", len(a.Chats))
	}
	if a.Chats[0].ChatIdentifier != "zed" || a.Chats[1].ChatIdentifier != "amy" {
		t.Fatalf("order=%q,%q, want zed,amy", a.Chats[0].ChatIdentifier, a.Chats[1].ChatIdentifier)
	}
	if a.Chats[0].TotalMessages != 2 || a.Chats[0].DisplayName != "Zed" {
		t.Fatalf("zed chat=%+v", a.Chats[0])
	}
}

func TestArchive_RoundTripKeepsOrder(t *testing.T) {
	t.Parallel()

	a, err := BuildArchive([]Message{
		msgAt(1, "iMessage;-;+15550001", 0, true),
		msgAt(2, "chat123", 1, false),
		msgAt(3, "iMessage;-;bob@example.com", 2, true),
	}, 0)
	if err != nil {
		t.Fatalf("BuildArchive: %v", err)
	}

	path := filepath.Join(t.TempDir(), "conversations.json")
	if err := WriteArchive(path, a, true); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	got, err := LoadArchive(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadArchive: %v", err)
	}
	if len(got.Chats) != 3 {
		t.Fatalf("chats=%d, want 3", len(got.Chats))
	}
	for i := range a.Chats {
		if got.Chats[i].ChatIdentifier != a.Chats[i].ChatIdentifier {
			t.Fatalf("chat %d=%q, want %q", i, got.Chats[i].ChatIdentifier, a.Chats[i].ChatIdentifier)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(b, &generic); err != nil {
		t.Fatalf("archive is not a JSON object: %v", err)
	}
	if _, ok := generic["chat123"]; !ok {
		t.Fatalf("missing chat123 key in %s", b)
	}
	if !strings.Contains(string(b), `"is_from_me": true`) {
		t.Fatalf("expected snake_case message fields, got %s", b)
	}
}

func TestLoadArchive_KeyFallsBackToIdentifier(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "conversations.json")
	doc := `{"chat9": {"display_name": "Nine", "is_group": false, "total_messages": 0, "conversations": []}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	a, err := LoadArchive(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadArchive: %v", err)
	}
	if a.Chats[0].ChatIdentifier != "chat9" {
		t.Fatalf("ChatIdentifier=%q, want chat9", a.Chats[0].ChatIdentifier)
	}
}

func TestLoadArchive_RejectsArray(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "conversations.json")
	if err := os.WriteFile(path, []byte(`[]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadArchive(context.Background(), path); err == nil {
		t.Fatalf("expected error for top-level array")
	}
}

func TestChat_ContactID(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"iMessage;-;+15551234567": "+15551234567",
		"SMS;-;bob@example.com":   "bob@example.com",
		"chat1234":                "chat1234",
	}
	for in, want := range cases {
		if got := (Chat{ChatIdentifier: in}).ContactID(); got != want {
			t.Fatalf("ContactID(%q)=%q, want %q", in, got, want)
		}
	}
}
