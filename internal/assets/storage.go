package assets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ziadkadry99/naflume/internal/db"
)

// Storage holds named buckets of cached responses, one bucket per build.
type Storage struct {
	db *db.DB
}

// NewStorage creates a new asset storage.
func NewStorage(database *db.DB) *Storage {
	return &Storage{db: database}
}

// Buckets lists every bucket name that holds at least one response.
func (s *Storage) Buckets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT bucket FROM asset_cache ORDER BY bucket`)
	if err != nil {
		return nil, fmt.Errorf("listing buckets: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scanning bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Match returns the cached response for path in bucket, or nil.
func (s *Storage) Match(ctx context.Context, bucket, urlPath string) (*Response, error) {
	var status int
	var header string
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT status, header, body FROM asset_cache WHERE bucket = ? AND path = ?`, bucket, urlPath,
	).Scan(&status, &header, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("matching %s: %w", urlPath, err)
	}

	resp := &Response{Status: status, Header: http.Header{}, Body: body}
	if err := json.Unmarshal([]byte(header), &resp.Header); err != nil {
		resp.Header = http.Header{}
	}
	return resp, nil
}

// Put stores resp under path in bucket, replacing any previous copy.
func (s *Storage) Put(ctx context.Context, bucket, urlPath string, resp *Response) error {
	header, err := json.Marshal(resp.Header)
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	body := resp.Body
	if body == nil {
		body = []byte{}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO asset_cache (bucket, path, status, header, body, stored_at)
		 VALUES (?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT(bucket, path) DO UPDATE SET
		   status = excluded.status, header = excluded.header,
		   body = excluded.body, stored_at = excluded.stored_at`,
		bucket, urlPath, resp.Status, string(header), body,
	)
	if err != nil {
		return fmt.Errorf("caching %s: %w", urlPath, err)
	}
	return nil
}

// DeleteBucket drops every response in bucket and reports whether any
// existed.
func (s *Storage) DeleteBucket(ctx context.Context, bucket string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM asset_cache WHERE bucket = ?`, bucket)
	if err != nil {
		return false, fmt.Errorf("deleting bucket %s: %w", bucket, err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}
