package deeds

import (
	"errors"
	"time"
)

// DayLayout is the calendar-day format deeds are recorded under.
const DayLayout = "2006-01-02"

// Kind says whether a deed was good or bad.
type Kind string

const (
	KindGood Kind = "good"
	KindBad  Kind = "bad"
)

var (
	ErrNotFound    = errors.New("deed not found")
	ErrInvalidDeed = errors.New("invalid deed")
	ErrInvalidKind = errors.New("kind must be good or bad")
	ErrInvalidDay  = errors.New("day must be a YYYY-MM-DD date")
)

// Deed is one recorded action of a user.
type Deed struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes,omitempty"`
	Day       string    `json:"day"` // calendar day, YYYY-MM-DD (UTC)
	CreatedAt time.Time `json:"created_at"`
}

// Summary tallies a user's deeds over a trailing window.
type Summary struct {
	UserID string `json:"user_id"`
	Since  string `json:"since"`
	Days   int    `json:"days"`
	Good   int    `json:"good"`
	Bad    int    `json:"bad"`
}
