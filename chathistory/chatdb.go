package chathistory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// groupChatStyle is chat.style for group threads; direct chats use 45.
const groupChatStyle = 43

// cocoaEpoch is the Core Data reference date.
var cocoaEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// Pre-High Sierra databases store seconds rather than nanoseconds; no nanosecond value after 2001-01-01
// 00:01:40 is below this.
const cocoaSecondsCutoff = 1e11

const chatDBQuery = `
SELECT
	m.ROWID,
	m.text,
	m.is_from_me,
	m.date,
	m.cache_has_attachments,
	c.chat_identifier,
	c.display_name,
	c.style,
	h.id
FROM message m
JOIN chat_message_join cmj ON m.ROWID = cmj.message_id
JOIN chat c ON cmj.chat_id = c.ROWID
LEFT JOIN handle h ON m.handle_id = h.ROWID
WHERE m.text IS NOT NULL AND m.text != ''
ORDER BY m.date ASC`

// ReadChatResult is what ReadChatDB returns alongside the messages.
type ReadChatResult struct {
	Messages []Message
	// SkippedNoDate counts rows with a zero or NULL date.
	SkippedNoDate int
}

// ReadChatDB reads every non-empty text message from a macOS Messages database, oldest first.
// The database is opened read-only.
func ReadChatDB(ctx context.Context, path string) (ReadChatResult, error) {
	if ctx == nil {
		return ReadChatResult{}, errors.New("ReadChatDB: ctx is nil")
	}
	if path == "" {
		return ReadChatResult{}, errors.New("ReadChatDB: path is empty")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return ReadChatResult{}, fmt.Errorf("ReadChatDB: resolve path: %w", err)
	}
	dsn := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return ReadChatResult{}, fmt.Errorf("ReadChatDB: open: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, chatDBQuery)
	if err != nil {
		return ReadChatResult{}, fmt.Errorf("ReadChatDB: query: %w", err)
	}
	defer rows.Close()

	var res ReadChatResult
	for rows.Next() {
		var (
			m           Message
			text        string
			isFromMe    sql.NullInt64
			date        sql.NullInt64
			attachments sql.NullInt64
			chatID      sql.NullString
			displayName sql.NullString
			style       sql.NullInt64
			handle      sql.NullString
		)
		if err := rows.Scan(&m.RowID, &text, &isFromMe, &date, &attachments, &chatID, &displayName, &style, &handle); err != nil {
			return ReadChatResult{}, fmt.Errorf("ReadChatDB: scan: %w", err)
		}
		if !date.Valid || date.Int64 == 0 {
			res.SkippedNoDate++
			continue
		}
		m.Text = strings.TrimSpace(text)
		m.IsFromMe = isFromMe.Int64 != 0
		m.Date = FormatDate(CocoaTime(date.Int64))
		m.HasAttachment = attachments.Int64 != 0
		m.ChatIdentifier = chatID.String
		m.DisplayName = displayName.String
		m.IsGroup = style.Valid && style.Int64 == groupChatStyle
		m.HandleID = handle.String
		res.Messages = append(res.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return ReadChatResult{}, fmt.Errorf("ReadChatDB: rows: %w", err)
	}
	return res, nil
}

// CocoaTime converts a chat.db date (nanoseconds, or seconds on old databases, since 2001-01-01 UTC).
func CocoaTime(v int64) time.Time {
	if v > -cocoaSecondsCutoff && v < cocoaSecondsCutoff {
		return cocoaEpoch.Add(time.Duration(v) * time.Second)
	}
	return cocoaEpoch.Add(time.Duration(v))
}

// FormatDate renders t as ISO-8601 with a numeric offset, microsecond precision, and no fraction when
// the microseconds are zero.
func FormatDate(t time.Time) string {
	t = t.Truncate(time.Microsecond)
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05-07:00")
	}
	return t.Format("2006-01-02T15:04:05.000000-07:00")
}

var naiveDateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseDate parses a Message.Date; offset-less values are taken as UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	for _, layout := range naiveDateLayouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
}
