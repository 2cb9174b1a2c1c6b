package history

import (
	"errors"
	"strings"
	"time"

	"go.klb.dev/clipstash/internal/entry"
)

// ErrEmptyContent is returned when empty content is submitted; it never
// becomes an entry.
var ErrEmptyContent = errors.New("history: empty content")

// Mutation describes what a write operation did, so the caller can record
// persistence deltas.
type Mutation struct {
	Entry      *entry.Entry // the inserted or promoted entry
	Inserted   bool         // false means promoted
	EvictedIDs []string     // unpinned entries dropped to stay within capacity
}

// Store is the ordered, partitioned history. Unpinned and pinned entries each
// form a timestamp-descending sequence (front = newest); pinned entries are
// exempt from capacity trimming. The store performs no locking of its own.
type Store struct {
	maxItems  int
	maxPinned int

	dedup    *DedupIndex
	pinned   []*entry.Entry
	unpinned []*entry.Entry
	byID     map[string]*entry.Entry
}

// NewStore returns an empty store with the given caps. Both caps are
// at least 1.
func NewStore(maxItems, maxPinned int, dedup *DedupIndex) *Store {
	if maxItems < 1 {
		maxItems = 1
	}
	if maxPinned < 1 {
		maxPinned = 1
	}
	return &Store{
		maxItems:  maxItems,
		maxPinned: maxPinned,
		dedup:     dedup,
		byID:      make(map[string]*entry.Entry),
	}
}

// InsertOrPromote records content as of now. Known content is promoted: its
// timestamp advances, it moves to the front of its partition, and unless
// preserveMeta is set its provenance is overwritten. New content becomes an
// unpinned entry at the front, evicting the oldest unpinned entries beyond
// the capacity cap.
func (s *Store) InsertOrPromote(content string, info entry.AppInfo, fromEditor, preserveMeta bool, now time.Time) (Mutation, error) {
	if content == "" {
		return Mutation{}, ErrEmptyContent
	}

	fp := entry.Fingerprint(content)
	if id, ok := s.dedup.Lookup(fp); ok {
		e := s.byID[id]
		e.Timestamp = now
		if !preserveMeta {
			e.SetProvenance(info, fromEditor)
		}
		s.moveToFront(e)
		return Mutation{Entry: e}, nil
	}

	e := entry.New(content, info, fromEditor, now)
	s.unpinned = append([]*entry.Entry{e}, s.unpinned...)
	s.byID[e.ID] = e
	s.dedup.Register(fp, e.ID)

	evicted := s.trimUnpinned()
	return Mutation{Entry: e, Inserted: true, EvictedIDs: evicted}, nil
}

// TogglePin flips the pin state of the entry with id. Pinning fails without
// mutation when the pinned partition is full; unpinning always succeeds. The
// entry keeps its timestamp either way.
func (s *Store) TogglePin(id string) (pinned, ok bool) {
	e, exists := s.byID[id]
	if !exists {
		return false, false
	}
	if e.Pinned {
		s.pinned = remove(s.pinned, id)
		e.Pinned = false
		s.unpinned = insertByTimestamp(s.unpinned, e)
		return false, true
	}
	if len(s.pinned) >= s.maxPinned {
		return false, false
	}
	s.unpinned = remove(s.unpinned, id)
	e.Pinned = true
	s.pinned = insertByTimestamp(s.pinned, e)
	return true, true
}

// Delete removes the entry with id from whichever partition holds it and
// releases its fingerprint. Reports whether an entry was removed.
func (s *Store) Delete(id string) bool {
	e, exists := s.byID[id]
	if !exists {
		return false
	}
	if e.Pinned {
		s.pinned = remove(s.pinned, id)
	} else {
		s.unpinned = remove(s.unpinned, id)
	}
	delete(s.byID, id)
	s.dedup.Release(entry.Fingerprint(e.Content))
	return true
}

// Clear removes history entries, keeping the pinned partition when keepPinned
// is set. Returns the ids of all removed entries.
func (s *Store) Clear(keepPinned bool) []string {
	var removed []string
	for _, e := range s.unpinned {
		removed = append(removed, e.ID)
		delete(s.byID, e.ID)
		s.dedup.Release(entry.Fingerprint(e.Content))
	}
	s.unpinned = nil

	if !keepPinned {
		for _, e := range s.pinned {
			removed = append(removed, e.ID)
			delete(s.byID, e.ID)
		}
		s.pinned = nil
		s.dedup.Reset()
	}
	return removed
}

// Seed loads entries in bulk, typically from the repository in
// most-recent-first order. Duplicated content keeps the first occurrence.
// Capacity is not enforced here; call Trim once seeding is complete.
func (s *Store) Seed(entries []*entry.Entry) {
	for _, e := range entries {
		if e.Content == "" {
			continue
		}
		fp := entry.Fingerprint(e.Content)
		if _, dup := s.dedup.Lookup(fp); dup {
			continue
		}
		if _, dup := s.byID[e.ID]; dup {
			continue
		}
		if e.Pinned {
			s.pinned = append(s.pinned, e)
		} else {
			s.unpinned = append(s.unpinned, e)
		}
		s.byID[e.ID] = e
		s.dedup.Register(fp, e.ID)
	}
	sortByTimestamp(s.pinned)
	sortByTimestamp(s.unpinned)
}

// Trim enforces the unpinned capacity cap, releasing the fingerprints of the
// evicted entries. Pinned entries are never trimmed, even when the repository
// returned more than the configured pin cap.
func (s *Store) Trim() []string {
	return s.trimUnpinned()
}

// Get returns a copy of the entry with id.
func (s *Store) Get(id string) (entry.Entry, bool) {
	e, ok := s.byID[id]
	if !ok {
		return entry.Entry{}, false
	}
	return *e, true
}

// Snapshot returns copies of all entries, pinned partition first, each
// partition newest-first.
func (s *Store) Snapshot() []entry.Entry {
	out := make([]entry.Entry, 0, len(s.pinned)+len(s.unpinned))
	for _, e := range s.pinned {
		out = append(out, *e)
	}
	for _, e := range s.unpinned {
		out = append(out, *e)
	}
	return out
}

// Search returns copies of entries whose content or source application
// contains q, case-insensitively, in Snapshot order.
func (s *Store) Search(q string) []entry.Entry {
	q = strings.ToLower(q)
	var out []entry.Entry
	for _, e := range s.Snapshot() {
		if strings.Contains(strings.ToLower(e.Content), q) ||
			strings.Contains(strings.ToLower(e.SourceApp), q) {
			out = append(out, e)
		}
	}
	return out
}

// Len reports the total number of entries.
func (s *Store) Len() int { return len(s.pinned) + len(s.unpinned) }

// PinnedCount reports the number of pinned entries.
func (s *Store) PinnedCount() int { return len(s.pinned) }

// UnpinnedCount reports the number of unpinned entries.
func (s *Store) UnpinnedCount() int { return len(s.unpinned) }

func (s *Store) trimUnpinned() []string {
	var evicted []string
	for len(s.unpinned) > s.maxItems {
		oldest := s.unpinned[len(s.unpinned)-1]
		s.unpinned = s.unpinned[:len(s.unpinned)-1]
		delete(s.byID, oldest.ID)
		s.dedup.Release(entry.Fingerprint(oldest.Content))
		evicted = append(evicted, oldest.ID)
	}
	return evicted
}

// moveToFront repositions a promoted entry at the head of its partition.
// Promotion never changes pin state.
func (s *Store) moveToFront(e *entry.Entry) {
	if e.Pinned {
		s.pinned = append([]*entry.Entry{e}, remove(s.pinned, e.ID)...)
	} else {
		s.unpinned = append([]*entry.Entry{e}, remove(s.unpinned, e.ID)...)
	}
}

func remove(list []*entry.Entry, id string) []*entry.Entry {
	for i, e := range list {
		if e.ID == id {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// insertByTimestamp places e in its timestamp-descending position. Equal
// timestamps keep existing entries first, preserving stable order.
func insertByTimestamp(list []*entry.Entry, e *entry.Entry) []*entry.Entry {
	i := 0
	for i < len(list) && !list[i].Timestamp.Before(e.Timestamp) {
		i++
	}
	out := append(list[:i:i], e)
	return append(out, list[i:]...)
}

func sortByTimestamp(list []*entry.Entry) {
	// Insertion sort keeps equal-timestamp entries in arrival order; the
	// repository already returns near-sorted data.
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && list[j].Timestamp.After(list[j-1].Timestamp); j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
}
