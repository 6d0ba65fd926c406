package styleprofile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/theimaginaryfoundation/style-o-bot/chathistory"
	"github.com/theimaginaryfoundation/style-o-bot/chathistory/fileutils"
)

// DefaultRelationshipTier is written into every new profile; users edit it by hand.
const DefaultRelationshipTier = "friend"

// ContactProfile is the per-contact output document.
type ContactProfile struct {
	// Key is the sanitized file stem, unique within one run.
	Key              string  `json:"-"`
	Contact          string  `json:"contact"`
	Phone            *string `json:"phone"`
	RelationshipTier string  `json:"relationship_tier"`
	StyleProfile
}

// FromHistory converts extracted chat messages into engine messages.
func FromHistory(msgs []chathistory.Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = Message{
			ID:       m.RowID,
			Text:     m.Text,
			IsFromMe: m.IsFromMe,
			Date:     m.Date,
			IsGroup:  m.IsGroup,
		}
	}
	return out
}

// ContactOptions controls ProfileContacts.
type ContactOptions struct {
	// Concurrency bounds the number of contacts analysed at once (default 1).
	Concurrency int
	// MinCorpusMessages skips contacts with fewer messages in both directions (default MinCorpusMessages).
	MinCorpusMessages int
	Logger            *slog.Logger
}

// ContactResult lists the profiles produced, in archive order, and why other chats were skipped.
type ContactResult struct {
	Profiles         []ContactProfile
	SkippedGroup     int
	SkippedSmall     int
	SkippedNoSubject int
	// SkippedTimestamps sums StyleProfile.SkippedTimestamps over the returned profiles.
	SkippedTimestamps int
}

type contactJob struct {
	key     string
	contact string
	id      string
	msgs    []Message
}

// ProfileContacts analyses every direct chat in the archive. Keys are assigned in archive order before any
// work starts, so a repeated key always gets the same "_2", "_3" suffix regardless of scheduling. A suffixed
// key never collides with a key another contact already holds.
func (e *Engine) ProfileContacts(ctx context.Context, a chathistory.Archive, opts ContactOptions) (ContactResult, error) {
	if ctx == nil {
		return ContactResult{}, errors.New("ProfileContacts: ctx is nil")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MinCorpusMessages <= 0 {
		opts.MinCorpusMessages = MinCorpusMessages
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var res ContactResult
	var jobs []contactJob
	seen := make(map[string]bool)
	for _, c := range a.Chats {
		if c.IsGroup {
			res.SkippedGroup++
			continue
		}
		msgs := chathistory.ContactMessages(c)
		if len(msgs) < opts.MinCorpusMessages {
			res.SkippedSmall++
			logger.Debug("skip contact", "chat", c.ChatIdentifier, "messages", len(msgs), "reason", "small corpus")
			continue
		}
		id := c.ContactID()
		contact := c.DisplayName
		if contact == "" {
			contact = id
		}
		key := SanitizeKey(contact, id)
		if seen[key] {
			base := key
			for n := 2; seen[key]; n++ {
				key = fmt.Sprintf("%s_%d", base, n)
			}
		}
		seen[key] = true
		jobs = append(jobs, contactJob{key: key, contact: contact, id: id, msgs: FromHistory(msgs)})
	}

	profiles := make([]*ContactProfile, len(jobs))
	sem := make(chan struct{}, opts.Concurrency)
	errCh := make(chan error, len(jobs))
	wg := sync.WaitGroup{}
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job contactJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			p, err := e.Analyze(job.msgs)
			if errors.Is(err, ErrInsufficientData) {
				logger.Debug("skip contact", "key", job.key, "reason", err.Error())
				return
			}
			if err != nil {
				errCh <- fmt.Errorf("analyze %s: %w", job.key, err)
				return
			}
			cp := &ContactProfile{
				Key:              job.key,
				Contact:          job.contact,
				RelationshipTier: DefaultRelationshipTier,
				StyleProfile:     *p,
			}
			if strings.HasPrefix(job.id, "+") {
				phone := job.id
				cp.Phone = &phone
			}
			profiles[i] = cp
			if p.SkippedTimestamps > 0 {
				logger.Warn("unparseable timestamps skipped", "key", job.key, "count", p.SkippedTimestamps)
			}
			logger.Info("profiled contact", "key", job.key, "subject_messages", p.MessageStats.TotalMessagesFromYou)
		}(i, job)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return ContactResult{}, fmt.Errorf("ProfileContacts: %w", err)
		}
	}
	for _, p := range profiles {
		if p == nil {
			res.SkippedNoSubject++
			continue
		}
		res.SkippedTimestamps += p.SkippedTimestamps
		res.Profiles = append(res.Profiles, *p)
	}
	return res, nil
}

// WriteProfiles writes each profile to dir/<key>.json. Existing files are an error unless overwrite is set.
func WriteProfiles(dir string, profiles []ContactProfile, overwrite bool) (int, error) {
	if dir == "" {
		return 0, errors.New("WriteProfiles: dir is empty")
	}
	written := 0
	for _, p := range profiles {
		path := filepath.Join(dir, p.Key+".json")
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				return written, fmt.Errorf("WriteProfiles: output file already exists: %s", path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return written, fmt.Errorf("WriteProfiles: stat output file: %w", err)
			}
		}
		if err := fileutils.WriteJSONFileAtomic(path, p, true); err != nil {
			return written, fmt.Errorf("WriteProfiles: %s: %w", p.Key, err)
		}
		written++
	}
	return written, nil
}
