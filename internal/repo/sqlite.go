package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"go.klb.dev/clipstash/internal/entry"
)

// record is the SQLite row shape. Provenance is a JSON blob so the table
// schema stays stable while the metadata evolves; a row whose blob no longer
// decodes is treated as corrupted and quarantined on load.
type record struct {
	ID        string `gorm:"primaryKey"`
	Content   string
	Timestamp int64  `gorm:"index"`
	Pinned    bool   `gorm:"index"`
	Kind      string
	Meta      string
}

func (record) TableName() string { return "entries" }

type meta struct {
	SourceApp   string `json:"source_app,omitempty"`
	WindowTitle string `json:"window_title,omitempty"`
	BundleID    string `json:"bundle_id,omitempty"`
	PID         int32  `json:"pid,omitempty"`
	FromEditor  bool   `json:"from_editor,omitempty"`
}

// SQLite is the Repository backed by a single-file SQLite database.
type SQLite struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) dir/history.db and migrates the
// entries table.
func OpenSQLite(dir string) (*SQLite, error) {
	if dir == "" {
		return nil, fmt.Errorf("repo: database directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("repo: create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "history.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("repo: open database: %w", err)
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("repo: migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, entries []entry.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	recs := make([]record, 0, len(entries))
	for _, e := range entries {
		recs = append(recs, encode(e))
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&recs).Error
	if err != nil {
		return fmt.Errorf("repo: save: %w", err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, limit int) ([]*entry.Entry, error) {
	var recs []record
	q := s.db.WithContext(ctx).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("repo: load: %w", err)
	}
	return s.decodeAll(ctx, recs), nil
}

func (s *SQLite) LoadAll(ctx context.Context) ([]*entry.Entry, error) {
	return s.Load(ctx, 0)
}

func (s *SQLite) LoadPinned(ctx context.Context, limit int) ([]*entry.Entry, error) {
	var recs []record
	q := s.db.WithContext(ctx).Where("pinned = ?", true).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("repo: load pinned: %w", err)
	}
	return s.decodeAll(ctx, recs), nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&record{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("repo: delete: %w", err)
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context, keepPinned bool) error {
	q := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	if keepPinned {
		q = q.Where("pinned = ?", false)
	}
	if err := q.Delete(&record{}).Error; err != nil {
		return fmt.Errorf("repo: clear: %w", err)
	}
	return nil
}

func (s *SQLite) ApplyChanges(ctx context.Context, inserted, updated []entry.Entry, removedIDs []string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upserts := make([]record, 0, len(inserted)+len(updated))
		for _, e := range inserted {
			upserts = append(upserts, encode(e))
		}
		for _, e := range updated {
			upserts = append(upserts, encode(e))
		}
		if len(upserts) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&upserts).Error; err != nil {
				return err
			}
		}
		if len(removedIDs) > 0 {
			if err := tx.Delete(&record{}, "id IN ?", removedIDs).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo: apply changes: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// decodeAll converts rows to entries, quarantining corrupted rows: a row
// that fails to decode is deleted so it cannot fail every future load, and
// the healthy remainder is returned.
func (s *SQLite) decodeAll(ctx context.Context, recs []record) []*entry.Entry {
	out := make([]*entry.Entry, 0, len(recs))
	var corrupt []string
	for _, r := range recs {
		e, err := decode(r)
		if err != nil {
			slog.Warn("quarantining corrupted history row", "id", r.ID, "err", err)
			corrupt = append(corrupt, r.ID)
			continue
		}
		out = append(out, e)
	}
	if len(corrupt) > 0 {
		if err := s.db.WithContext(ctx).Delete(&record{}, "id IN ?", corrupt).Error; err != nil {
			slog.Error("failed to delete corrupted rows", "err", err)
		}
	}
	return out
}

func encode(e entry.Entry) record {
	m, _ := json.Marshal(meta{
		SourceApp:   e.SourceApp,
		WindowTitle: e.WindowTitle,
		BundleID:    e.BundleID,
		PID:         e.PID,
		FromEditor:  e.FromEditor,
	})
	return record{
		ID:        e.ID,
		Content:   e.Content,
		Timestamp: e.Timestamp.UnixNano(),
		Pinned:    e.Pinned,
		Kind:      string(e.Kind),
		Meta:      string(m),
	}
}

func decode(r record) (*entry.Entry, error) {
	if r.ID == "" || r.Content == "" {
		return nil, fmt.Errorf("missing id or content")
	}
	var m meta
	if err := json.Unmarshal([]byte(r.Meta), &m); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	return &entry.Entry{
		ID:          r.ID,
		Content:     r.Content,
		Timestamp:   time.Unix(0, r.Timestamp).UTC(),
		Pinned:      r.Pinned,
		Kind:        entry.Kind(r.Kind),
		SourceApp:   m.SourceApp,
		WindowTitle: m.WindowTitle,
		BundleID:    m.BundleID,
		PID:         m.PID,
		FromEditor:  m.FromEditor,
	}, nil
}
