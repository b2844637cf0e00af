package leave

import (
	"iter"
	"sort"
	"time"
)

// NewDiscussionEntry validates a message and stamps it. When postedAt is zero
// the server clock wins; client-supplied timestamps are kept so imported
// threads preserve their history.
func NewDiscussionEntry(actor ActorContext, authorName, message string, postedAt, now time.Time) (DiscussionEntry, error) {
	if blank(message) {
		return DiscussionEntry{}, ErrValidation
	}
	if postedAt.IsZero() {
		postedAt = now
	}
	return DiscussionEntry{
		AuthorID:   actor.ID,
		AuthorName: authorName,
		AuthorRole: actor.Role,
		Message:    message,
		PostedAt:   postedAt,
	}, nil
}

// SortDiscussions orders entries by posted time, ties broken by insertion
// order. The sort is stable so equal timestamps never swap.
func SortDiscussions(entries []DiscussionEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PostedAt.Before(entries[j].PostedAt)
	})
}

// Thread is a read-only, ordered view over a request's discussion entries.
// There is no delete or edit operation; the thread is a durable audit log.
type Thread struct {
	entries []DiscussionEntry
}

// ThreadOf copies and orders the record's discussion entries.
func ThreadOf(rec RequestRecord) Thread {
	entries := append([]DiscussionEntry(nil), rec.Discussions...)
	SortDiscussions(entries)
	return Thread{entries: entries}
}

// Len reports the number of entries.
func (t Thread) Len() int {
	return len(t.entries)
}

// All yields entries oldest first. The sequence is restartable: each range
// starts again from the first entry.
func (t Thread) All() iter.Seq[DiscussionEntry] {
	return func(yield func(DiscussionEntry) bool) {
		for _, e := range t.entries {
			if !yield(e) {
				return
			}
		}
	}
}
