// Package store persists sitemaps and scraped records in Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"scrapemap/internal/selector"
	"scrapemap/internal/sitemap"
)

// Store wraps access to the database via a shared *sql.DB.
type Store struct {
	DB *sql.DB
}

// New creates a new Store that uses a shared *sql.DB with pooling.
func New(database *sql.DB) *Store {
	return &Store{DB: database}
}

// SaveSitemap upserts a sitemap definition keyed by its id.
func (s *Store) SaveSitemap(ctx context.Context, m *sitemap.Sitemap) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal sitemap %q: %w", m.ID, err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO sitemaps (id, definition, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET definition = EXCLUDED.definition, updated_at = now()
	`, m.ID, payload)
	if err != nil {
		return fmt.Errorf("save sitemap %q: %w", m.ID, err)
	}
	return nil
}

// GetSitemap loads one sitemap definition by id.
func (s *Store) GetSitemap(ctx context.Context, id string) (*sitemap.Sitemap, error) {
	var payload []byte
	err := s.DB.QueryRowContext(ctx, `SELECT definition FROM sitemaps WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("sitemap %q not found", id)
		}
		return nil, fmt.Errorf("get sitemap %q: %w", id, err)
	}

	m, err := sitemap.Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("decode sitemap %q: %w", id, err)
	}
	return m, nil
}

// ListSitemaps returns the ids of all stored sitemaps.
func (s *Store) ListSitemaps(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id FROM sitemaps ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sitemaps: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteSitemap removes a sitemap and all of its records.
func (s *Store) DeleteSitemap(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM sitemaps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sitemap %q: %w", id, err)
	}
	return nil
}

// SaveRecord stores one scraped record. Control fields (keys starting
// with an underscore) never leave the engine; they are stripped before
// the row is written.
func (s *Store) SaveRecord(ctx context.Context, sitemapID string, rec selector.Record) error {
	clean := make(map[string]any, len(rec))
	for k, v := range rec {
		if strings.HasPrefix(k, "_") {
			continue
		}
		clean[k] = v
	}

	payload, err := json.Marshal(clean)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO records (id, sitemap_id, data)
		VALUES ($1, $2, $3)
	`, newID(), sitemapID, payload)
	if err != nil {
		return fmt.Errorf("save record for %q: %w", sitemapID, err)
	}
	return nil
}

// ListRecords returns all records for a sitemap in insertion order.
func (s *Store) ListRecords(ctx context.Context, sitemapID string) ([]selector.Record, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT data FROM records WHERE sitemap_id = $1 ORDER BY created_at, id
	`, sitemapID)
	if err != nil {
		return nil, fmt.Errorf("list records for %q: %w", sitemapID, err)
	}
	defer rows.Close()

	var records []selector.Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec selector.Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode record for %q: %w", sitemapID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ResetRecords deletes all records for a sitemap ahead of a rescrape.
func (s *Store) ResetRecords(ctx context.Context, sitemapID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM records WHERE sitemap_id = $1`, sitemapID)
	if err != nil {
		return fmt.Errorf("reset records for %q: %w", sitemapID, err)
	}
	return nil
}

// newID prefers UUIDv7 for time-ordered ids, falling back to v4.
func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
