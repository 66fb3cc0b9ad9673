package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"homework-forwarder/internal/entities"
)

// ForwardArchive mirrors forward log entries to durable storage. The in-memory
// store works without one; archive failures are logged, never propagated.
type ForwardArchive interface {
	SaveEntry(ctx context.Context, entry entities.ForwardLogEntry) error
	Close() error
}

// ActivityStore keeps the append-only forward log and the last-seen-per-sender
// map. All state is in memory; an optional archive receives a copy of every
// appended entry.
type ActivityStore struct {
	mu      sync.Mutex
	entries []entities.ForwardLogEntry
	senders map[int64]entities.SenderActivity

	archive ForwardArchive
}

func NewActivityStore(archive ForwardArchive) *ActivityStore {
	return &ActivityStore{
		senders: make(map[int64]entities.SenderActivity),
		archive: archive,
	}
}

// Append records a successful forward. The archive write happens outside the
// lock; it must not stall concurrent readers.
func (s *ActivityStore) Append(entry entities.ForwardLogEntry) {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	if s.archive != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.archive.SaveEntry(ctx, entry); err != nil {
			log.Warn().Err(err).Msg("forward archive write failed")
		}
	}
}

// QuerySince returns entries newer than now minus the given window, oldest
// first.
func (s *ActivityStore) QuerySince(window time.Duration) []entities.ForwardLogEntry {
	cutoff := time.Now().Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.ForwardLogEntry, 0)
	for _, e := range s.entries {
		if e.Timestamp.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops the in-memory forward log. The archive keeps its copy.
func (s *ActivityStore) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// Count returns the number of in-memory log entries.
func (s *ActivityStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// UpsertSender overwrites the activity record for a sender. Called on every
// inbound message, whatever the pipeline outcome.
func (s *ActivityStore) UpsertSender(senderID int64, name, snippet string, seen time.Time) {
	s.mu.Lock()
	s.senders[senderID] = entities.SenderActivity{
		SenderID: senderID,
		Name:     name,
		Snippet:  snippet,
		LastSeen: seen,
	}
	s.mu.Unlock()
}

// ListSenders returns all sender activity records, most recent first.
func (s *ActivityStore) ListSenders() []entities.SenderActivity {
	s.mu.Lock()
	out := make([]entities.SenderActivity, 0, len(s.senders))
	for _, a := range s.senders {
		out = append(out, a)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out
}

// ClearSenders drops all sender activity records.
func (s *ActivityStore) ClearSenders() {
	s.mu.Lock()
	s.senders = make(map[int64]entities.SenderActivity)
	s.mu.Unlock()
}
