package deeds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/naflume/internal/db"
	"github.com/ziadkadry99/naflume/internal/guidance"
)

// Store manages persistence of deeds. It implements guidance.HistorySource.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a new deed store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Create records a new deed. An empty Day means today (UTC).
func (s *Store) Create(ctx context.Context, d Deed) (*Deed, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.UserID = strings.TrimSpace(d.UserID)
	d.Title = strings.TrimSpace(d.Title)
	if d.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidDeed)
	}
	if d.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidDeed)
	}
	if d.Kind != KindGood && d.Kind != KindBad {
		return nil, ErrInvalidKind
	}
	now := s.now().UTC()
	if d.Day == "" {
		d.Day = now.Format(DayLayout)
	} else if _, err := time.Parse(DayLayout, d.Day); err != nil {
		return nil, ErrInvalidDay
	}
	d.CreatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deeds (id, user_id, kind, title, notes, day, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.Kind, d.Title, d.Notes, d.Day, d.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting deed: %w", err)
	}
	return &d, nil
}

// Get retrieves a deed by its ID.
func (s *Store) Get(ctx context.Context, id string) (*Deed, error) {
	var d Deed
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, kind, title, notes, day, created_at FROM deeds WHERE id = ?`, id,
	).Scan(&d.ID, &d.UserID, &d.Kind, &d.Title, &d.Notes, &d.Day, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting deed: %w", err)
	}
	return &d, nil
}

// ListByUser returns a user's deeds on or after since, newest day first.
func (s *Store) ListByUser(ctx context.Context, userID string, since time.Time) ([]Deed, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, kind, title, notes, day, created_at FROM deeds
		 WHERE user_id = ? AND day >= ?
		 ORDER BY day DESC, created_at DESC`,
		userID, since.UTC().Format(DayLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("listing deeds: %w", err)
	}
	defer rows.Close()

	var out []Deed
	for rows.Next() {
		var d Deed
		if err := rows.Scan(&d.ID, &d.UserID, &d.Kind, &d.Title, &d.Notes, &d.Day, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning deed: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Delete removes a deed.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM deeds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting deed: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecentActivity reduces a user's deeds since the given day to what
// personalization needs. Rows with an unparseable day are skipped.
func (s *Store) RecentActivity(ctx context.Context, userID string, since time.Time) ([]guidance.Activity, error) {
	deeds, err := s.ListByUser(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	out := make([]guidance.Activity, 0, len(deeds))
	for _, d := range deeds {
		day, err := time.Parse(DayLayout, d.Day)
		if err != nil {
			continue
		}
		out = append(out, guidance.Activity{Good: d.Kind == KindGood, Day: day})
	}
	return out, nil
}

// Summarize tallies a user's deeds over the trailing window of days
// calendar days ending today.
func (s *Store) Summarize(ctx context.Context, userID string, days int) (*Summary, error) {
	since := s.now().UTC().AddDate(0, 0, -(days - 1))
	deeds, err := s.ListByUser(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	sum := &Summary{UserID: userID, Since: since.Format(DayLayout), Days: days}
	for _, d := range deeds {
		if d.Kind == KindGood {
			sum.Good++
		} else {
			sum.Bad++
		}
	}
	return sum, nil
}
