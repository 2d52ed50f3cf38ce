package guidance

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Source is where an entry comes from.
type Source string

const (
	SourceQuran  Source = "quran"
	SourceHadith Source = "hadith"
)

// Type is the content category personalization chooses between.
type Type string

const (
	TypeMotivation Type = "motivation" // positive reinforcement
	TypeGuidance   Type = "guidance"   // correction and counsel
)

var (
	ErrNotFound        = errors.New("guidance entry not found")
	ErrInvalidPageSize = errors.New("page size must be a positive integer")
	ErrInvalidCursor   = errors.New("invalid cursor")
)

// Commentary is a tafsir or explanatory note attached to an entry.
type Commentary struct {
	Reference     string `json:"reference,omitempty" yaml:"reference"`
	Text          string `json:"text,omitempty" yaml:"text"`
	SecondaryText string `json:"secondary_text,omitempty" yaml:"secondary_text"`
}

// Entry is one unit of devotional content. Entries are immutable once
// created; the service only filters and copies them.
type Entry struct {
	ID                   string     `json:"id" yaml:"id"`
	Source               Source     `json:"source" yaml:"source"`
	Reference            string     `json:"reference" yaml:"reference"`
	Text                 string     `json:"text" yaml:"text"`
	Translation          string     `json:"translation" yaml:"translation"`
	SecondaryTranslation string     `json:"secondary_translation" yaml:"secondary_translation"`
	Commentary           Commentary `json:"commentary" yaml:"commentary"`
	Type                 Type       `json:"type" yaml:"type"`
	Themes               []string   `json:"themes" yaml:"themes"`
	Priority             int        `json:"priority" yaml:"priority"`
	CreatedAt            time.Time  `json:"created_at" yaml:"created_at"`
}

// Validate checks the invariants every stored entry must hold.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("entry id is required")
	}
	switch e.Source {
	case SourceQuran, SourceHadith:
	default:
		return fmt.Errorf("entry %s: unknown source %q", e.ID, e.Source)
	}
	switch e.Type {
	case TypeMotivation, TypeGuidance:
	default:
		return fmt.Errorf("entry %s: unknown type %q", e.ID, e.Type)
	}
	if len(e.Themes) == 0 {
		return fmt.Errorf("entry %s: at least one theme is required", e.ID)
	}
	if e.Priority <= 0 {
		return fmt.Errorf("entry %s: priority must be positive, got %d", e.ID, e.Priority)
	}
	return nil
}

// HasTheme reports whether the entry is tagged with theme (case-insensitive).
func (e Entry) HasTheme(theme string) bool {
	for _, t := range e.Themes {
		if strings.EqualFold(t, theme) {
			return true
		}
	}
	return false
}

// Filter narrows a listing. Empty fields match everything; set fields
// combine with AND.
type Filter struct {
	Source Source `json:"source,omitempty"`
	Type   Type   `json:"type,omitempty"`
	Theme  string `json:"theme,omitempty"`
}

// Matches reports whether e passes every set field of f.
func (f Filter) Matches(e Entry) bool {
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Theme != "" && !e.HasTheme(f.Theme) {
		return false
	}
	return true
}

func (f Filter) key() string {
	return string(f.Source) + "/" + string(f.Type) + "/" + strings.ToLower(f.Theme)
}

// Cursor marks the last entry of a page by its sort key.
type Cursor struct {
	Priority  int    `json:"p"`
	CreatedAt int64  `json:"t"` // unix millis
	ID        string `json:"id"`
}

// CursorAfter builds the cursor that continues after e.
func CursorAfter(e Entry) *Cursor {
	return &Cursor{Priority: e.Priority, CreatedAt: e.CreatedAt.UnixMilli(), ID: e.ID}
}

// Encode renders the cursor as an opaque URL-safe token.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses a token produced by Encode. An empty token is the
// first page and yields nil.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.ID == "" {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

// Page is one slice of an ordered listing. HasMore is true iff the page is
// full; a full last page still reports more.
type Page struct {
	Items   []Entry `json:"items"`
	Cursor  string  `json:"cursor,omitempty"`
	HasMore bool    `json:"has_more"`
}

// SearchResult is an offset-sliced window over every matching entry.
type SearchResult struct {
	Items []Entry `json:"items"`
	Total int     `json:"total"`
}

// Activity is one deed in a user's history, reduced to what
// personalization needs.
type Activity struct {
	Good bool      `json:"good"`
	Day  time.Time `json:"day"`
}

// HistorySource supplies a user's recent deeds.
type HistorySource interface {
	RecentActivity(ctx context.Context, userID string, since time.Time) ([]Activity, error)
}

// Repository is the backing store of guidance entries.
type Repository interface {
	// List returns up to limit entries matching f, ordered by priority
	// desc, created_at desc, id asc, starting after cursor.
	List(ctx context.Context, f Filter, limit int, after *Cursor) ([]Entry, error)
	// All returns every entry matching f in listing order.
	All(ctx context.Context, f Filter) ([]Entry, error)
	// GetByReference returns ErrNotFound when no entry has ref.
	GetByReference(ctx context.Context, ref string) (*Entry, error)
	Count(ctx context.Context) (int, error)
	Upsert(ctx context.Context, e Entry) error
}
