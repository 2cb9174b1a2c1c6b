// Package entry defines the clipboard history item and its content
// classification. Entries are promoted, never edited: identity and kind are
// fixed at creation, only the timestamp, pin state, and provenance change.
package entry

import (
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// AppInfo is the provenance of a copy: which application owned the frontmost
// window when the clipboard changed. Zero values mean "unknown", never a
// default.
type AppInfo struct {
	Name        string `json:"name,omitempty"`
	BundleID    string `json:"bundle_id,omitempty"`
	WindowTitle string `json:"window_title,omitempty"`
	PID         int32  `json:"pid,omitempty"`
}

// Entry is one recorded clipboard history item.
type Entry struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"` // last promotion, drives ordering
	Pinned    bool      `json:"pinned"`
	Kind      Kind      `json:"kind"`

	SourceApp   string `json:"source_app,omitempty"`
	WindowTitle string `json:"window_title,omitempty"`
	BundleID    string `json:"bundle_id,omitempty"`
	PID         int32  `json:"pid,omitempty"`
	FromEditor  bool   `json:"from_editor,omitempty"`
}

// New creates an unpinned Entry for content with a fresh identity.
// The caller guarantees content is non-empty.
func New(content string, info AppInfo, fromEditor bool, now time.Time) *Entry {
	return &Entry{
		ID:          uuid.NewString(),
		Content:     content,
		Timestamp:   now,
		Kind:        ClassifyKind(content),
		SourceApp:   info.Name,
		WindowTitle: info.WindowTitle,
		BundleID:    info.BundleID,
		PID:         info.PID,
		FromEditor:  fromEditor,
	}
}

// SetProvenance overwrites the entry's provenance metadata. Used on promotion
// of an externally re-copied entry; recopy-from-history skips it.
func (e *Entry) SetProvenance(info AppInfo, fromEditor bool) {
	e.SourceApp = info.Name
	e.WindowTitle = info.WindowTitle
	e.BundleID = info.BundleID
	e.PID = info.PID
	e.FromEditor = fromEditor
}

// Fingerprint is the deduplication key for content: exact-match semantics,
// no normalization beyond the raw bytes.
func Fingerprint(content string) uint64 {
	return xxhash.Sum64String(content)
}
