package chathistory

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

const chatDBSchema = `
CREATE TABLE handle (ROWID INTEGER PRIMARY KEY, id TEXT);
CREATE TABLE chat (ROWID INTEGER PRIMARY KEY, chat_identifier TEXT, display_name TEXT, style INTEGER);
CREATE TABLE message (
	ROWID INTEGER PRIMARY KEY,
	text TEXT,
	is_from_me INTEGER,
	date INTEGER,
	handle_id INTEGER,
	cache_has_attachments INTEGER
);
CREATE TABLE chat_message_join (chat_id INTEGER, message_id INTEGER);
`

func writeChatDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	// 2024-01-01T00:00:00Z is 725760000 seconds after the Cocoa epoch.
	const jan1 = int64(725760000) * int64(time.Second)
	stmts := []string{
		chatDBSchema,
		`INSERT INTO handle VALUES (1, '+15551234567'), (2, 'grp@example.com')`,
		`INSERT INTO chat VALUES (1, 'iMessage;-;+15551234567', NULL, 45), (2, 'chat777', 'Crew', 43)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	rows := []struct {
		id       int64
		text     any
		fromMe   int
		date     any
		handle   int
		attach   int
		chatRow  int
		minAfter int64
	}{
		{1, "  hey there  ", 1, nil, 0, 0, 1, 0},
		{2, "yo", 0, nil, 1, 1, 1, 5},
		{3, "", 1, nil, 0, 0, 1, 6},      // empty text: dropped
		{4, nil, 0, nil, 1, 0, 1, 7},     // NULL text: dropped
		{5, "no date", 1, 0, 0, 0, 1, 0}, // zero date: skipped
		{6, "group hi", 0, nil, 2, 0, 2, 2},
	}
	for _, r := range rows {
		date := r.date
		if date == nil {
			date = jan1 + r.minAfter*int64(time.Minute)
		}
		if _, err := db.Exec(`INSERT INTO message VALUES (?, ?, ?, ?, ?, ?)`, r.id, r.text, r.fromMe, date, r.handle, r.attach); err != nil {
			t.Fatalf("insert message %d: %v", r.id, err)
		}
		if _, err := db.Exec(`INSERT INTO chat_message_join VALUES (?, ?)`, r.chatRow, r.id); err != nil {
			t.Fatalf("insert join %d: %v", r.id, err)
		}
	}
	return path
}

func TestReadChatDB(t *testing.T) {
	t.Parallel()

	path := writeChatDB(t)
	res, err := ReadChatDB(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadChatDB: %v", err)
	}
	if res.SkippedNoDate != 1 {
		t.Fatalf("SkippedNoDate=%d, want 1", res.SkippedNoDate)
	}
	if len(res.Messages) != 3 {
		t.Fatalf("messages=%d, want 3: %+v", len(res.Messages), res.Messages)
	}

	first := res.Messages[0]
	if first.RowID != 1 || first.Text != "hey there" || !first.IsFromMe {
		t.Fatalf("first=%+v", first)
	}
	if first.Date != "2024-01-01T00:00:00+00:00" {
		t.Fatalf("Date=%q, want 2024-01-01T00:00:00+00:00", first.Date)
	}
	if first.HandleID != "" || first.DisplayName != "" || first.IsGroup {
		t.Fatalf("first handle/display/group=%q/%q/%v", first.HandleID, first.DisplayName, first.IsGroup)
	}

	group := res.Messages[1]
	if group.RowID != 6 || !group.IsGroup || group.DisplayName != "Crew" {
		t.Fatalf("group=%+v", group)
	}

	reply := res.Messages[2]
	if reply.HandleID != "+15551234567" || !reply.HasAttachment || reply.IsFromMe {
		t.Fatalf("reply=%+v", reply)
	}
}

func TestReadChatDB_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := ReadChatDB(context.Background(), filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Fatalf("expected error for missing database")
	}
}

func TestCocoaTime(t *testing.T) {
	t.Parallel()

	ns := CocoaTime(725760000 * int64(time.Second))
	if !ns.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("nanosecond value=%v", ns)
	}
	secs := CocoaTime(725760000)
	if !secs.Equal(ns) {
		t.Fatalf("seconds value=%v, want %v", secs, ns)
	}
}

func TestFormatDate(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)
	if got := FormatDate(ts); got != "2024-05-06T07:08:09.123456+00:00" {
		t.Fatalf("FormatDate=%q", got)
	}
	back, err := ParseDate(FormatDate(ts))
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !back.Equal(ts.Truncate(time.Microsecond)) {
		t.Fatalf("round trip=%v", back)
	}
	if _, err := ParseDate("2024-05-06T07:08:09"); err != nil {
		t.Fatalf("naive date: %v", err)
	}
}
