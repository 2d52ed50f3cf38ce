package guidance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/naflume/internal/db"
)

// Store persists guidance entries in SQLite. It implements Repository.
type Store struct {
	db *db.DB
}

// NewStore creates a new guidance store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const entryColumns = `id, source, reference, text, translation, secondary_translation,
	commentary_reference, commentary, secondary_commentary, type, themes, priority, created_at`

const entryOrder = ` ORDER BY priority DESC, created_at DESC, id ASC`

// Upsert inserts e or replaces the entry with the same id.
func (s *Store) Upsert(ctx context.Context, e Entry) error {
	e.Themes = normalizeThemes(e.Themes)
	if err := e.Validate(); err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	themes, err := json.Marshal(e.Themes)
	if err != nil {
		return fmt.Errorf("encoding themes: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO guidance_entries (`+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   source = excluded.source, reference = excluded.reference, text = excluded.text,
		   translation = excluded.translation, secondary_translation = excluded.secondary_translation,
		   commentary_reference = excluded.commentary_reference, commentary = excluded.commentary,
		   secondary_commentary = excluded.secondary_commentary, type = excluded.type,
		   themes = excluded.themes, priority = excluded.priority, created_at = excluded.created_at`,
		e.ID, e.Source, e.Reference, e.Text, e.Translation, e.SecondaryTranslation,
		e.Commentary.Reference, e.Commentary.Text, e.Commentary.SecondaryText,
		e.Type, string(themes), e.Priority, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upserting entry %s: %w", e.ID, err)
	}
	return nil
}

// List returns one keyset page.
func (s *Store) List(ctx context.Context, f Filter, limit int, after *Cursor) ([]Entry, error) {
	where, args := filterClause(f)
	if after != nil {
		where = append(where, `(priority < ? OR (priority = ? AND created_at < ?)
			OR (priority = ? AND created_at = ? AND id > ?))`)
		args = append(args, after.Priority, after.Priority, after.CreatedAt,
			after.Priority, after.CreatedAt, after.ID)
	}
	query := `SELECT ` + entryColumns + ` FROM guidance_entries` + whereSQL(where) + entryOrder + ` LIMIT ?`
	args = append(args, limit)
	return s.query(ctx, query, args...)
}

// All returns every matching entry in listing order.
func (s *Store) All(ctx context.Context, f Filter) ([]Entry, error) {
	where, args := filterClause(f)
	return s.query(ctx, `SELECT `+entryColumns+` FROM guidance_entries`+whereSQL(where)+entryOrder, args...)
}

// GetByReference looks up an entry by its exact reference string.
func (s *Store) GetByReference(ctx context.Context, ref string) (*Entry, error) {
	entries, err := s.query(ctx,
		`SELECT `+entryColumns+` FROM guidance_entries WHERE reference = ?`+entryOrder+` LIMIT 1`, ref)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return &entries[0], nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM guidance_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

func filterClause(f Filter) ([]string, []any) {
	var where []string
	var args []any
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, f.Source)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.Theme != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(guidance_entries.themes) WHERE json_each.value = ?)")
		args = append(args, strings.ToLower(strings.TrimSpace(f.Theme)))
	}
	return where, args
}

func whereSQL(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var themes string
	var created int64
	err := rows.Scan(&e.ID, &e.Source, &e.Reference, &e.Text, &e.Translation, &e.SecondaryTranslation,
		&e.Commentary.Reference, &e.Commentary.Text, &e.Commentary.SecondaryText,
		&e.Type, &themes, &e.Priority, &created)
	if err != nil {
		return e, fmt.Errorf("scanning entry: %w", err)
	}
	// A malformed themes column degrades to no themes rather than failing
	// the whole listing.
	if err := json.Unmarshal([]byte(themes), &e.Themes); err != nil {
		e.Themes = nil
	}
	e.CreatedAt = time.UnixMilli(created).UTC()
	return e, nil
}

func normalizeThemes(themes []string) []string {
	out := make([]string, 0, len(themes))
	seen := make(map[string]bool, len(themes))
	for _, t := range themes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
