package guidance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ziadkadry99/naflume/internal/cache"
	"github.com/ziadkadry99/naflume/internal/logger"
	"github.com/ziadkadry99/naflume/internal/quran"
)

// SupplementaryThemes are offered by Themes even before any stored entry
// carries them.
var SupplementaryThemes = []string{
	"charity", "family", "forgiveness", "gratitude", "hope", "humility",
	"justice", "knowledge", "mercy", "patience", "prayer", "repentance",
	"remembrance", "sincerity", "trust",
}

// VerseSource is the part of the verse gateway the service blends into
// thematic results. *quran.Gateway implements it.
type VerseSource interface {
	VersesByTheme(ctx context.Context, theme string, limit int) []quran.Verse
	RandomVerse(ctx context.Context, translations []string) *quran.Verse
	VerseOfTheDay(ctx context.Context) *quran.Verse
}

// Options configures a Service.
type Options struct {
	CacheTTL   time.Duration
	WindowDays int
	// DefaultPageSize applies when an HTTP caller gives no page size;
	// MaxPageSize caps what callers may ask for.
	DefaultPageSize int
	MaxPageSize     int
	// PrimaryEdition and SecondaryEdition map gateway translations onto
	// Entry.Translation and Entry.SecondaryTranslation.
	PrimaryEdition   string
	SecondaryEdition string
	Clock            cache.Clock
}

// Service is the single access point to devotional content. Listing,
// search and theme results are cached for CacheTTL with no invalidation;
// staleness up to the TTL is accepted.
type Service struct {
	repo    Repository
	verses  VerseSource
	history HistorySource
	opts    Options
	log     *logger.Logger
	now     cache.Clock

	pages   *cache.TTL[string, Page]
	entries *cache.TTL[string, []Entry]
	themes  *cache.TTL[string, []string]
}

// NewService creates a Service. verses and history may be nil: dynamic
// paths then return nothing and PersonalizedFor sees an empty history.
func NewService(repo Repository, verses VerseSource, history HistorySource, opts Options, log *logger.Logger) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 7
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 10
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = max(50, opts.DefaultPageSize)
	}
	if opts.PrimaryEdition == "" {
		opts.PrimaryEdition = "en.sahih"
	}
	if opts.SecondaryEdition == "" {
		opts.SecondaryEdition = "id.indonesian"
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    repo,
		verses:  verses,
		history: history,
		opts:    opts,
		log:     log.With("component", "guidance"),
		now:     opts.Clock,
		pages:   cache.NewTTL[string, Page](opts.CacheTTL, opts.Clock),
		entries: cache.NewTTL[string, []Entry](opts.CacheTTL, opts.Clock),
		themes:  cache.NewTTL[string, []string](opts.CacheTTL, opts.Clock),
	}
}

// List returns one page of entries matching f, ordered by priority desc
// then creation time desc. An empty cursor requests the first page.
func (s *Service) List(ctx context.Context, f Filter, pageSize int, cursor string) (Page, error) {
	if pageSize <= 0 {
		return Page{}, ErrInvalidPageSize
	}
	after, err := DecodeCursor(cursor)
	if err != nil {
		return Page{}, err
	}

	key := cache.Key("list", f.key(), strconv.Itoa(pageSize), cursor)
	if p, ok := s.pages.Get(key); ok {
		return p, nil
	}

	items, err := s.repo.List(ctx, f, pageSize, after)
	if err != nil {
		s.log.Error("list failed", "filter", f.key(), "error", err)
		return Page{}, fmt.Errorf("listing guidance: %w", err)
	}
	if items == nil {
		items = []Entry{}
	}
	p := Page{Items: items, HasMore: len(items) == pageSize}
	if len(items) > 0 {
		p.Cursor = CursorAfter(items[len(items)-1]).Encode()
	}
	s.pages.Set(key, p)
	return p, nil
}

// ChooseType picks the content type for a deed history: motivation when
// good deeds in the window are at least as many as bad ones, guidance
// otherwise. The window is windowDays calendar days (UTC) ending today.
func ChooseType(history []Activity, now time.Time, windowDays int) Type {
	today := startOfDay(now)
	start := today.AddDate(0, 0, -(windowDays - 1))
	var good, bad int
	for _, a := range history {
		d := startOfDay(a.Day)
		if d.Before(start) || d.After(today) {
			continue
		}
		if a.Good {
			good++
		} else {
			bad++
		}
	}
	if good >= bad {
		return TypeMotivation
	}
	return TypeGuidance
}

// Personalized returns a first page of count entries whose type follows
// the caller-supplied deed history.
func (s *Service) Personalized(ctx context.Context, history []Activity, count int) (Page, error) {
	t := ChooseType(history, s.now(), s.opts.WindowDays)
	return s.List(ctx, Filter{Type: t}, count, "")
}

// PersonalizedFor loads userID's recent deeds from the history source and
// delegates to Personalized.
func (s *Service) PersonalizedFor(ctx context.Context, userID string, count int) (Page, error) {
	var history []Activity
	if s.history != nil && userID != "" {
		since := startOfDay(s.now()).AddDate(0, 0, -(s.opts.WindowDays - 1))
		var err error
		history, err = s.history.RecentActivity(ctx, userID, since)
		if err != nil {
			s.log.Error("loading deed history failed", "user", userID, "error", err)
			return Page{}, fmt.Errorf("loading deed history: %w", err)
		}
	}
	return s.Personalized(ctx, history, count)
}

// VerseOfTheDay selects one stored entry by the number of days since the
// Unix epoch (UTC) modulo the entry count, over entries sorted by ID. Every
// call on the same UTC day returns the same entry. With an empty store it
// falls back to the gateway's verse of the day.
func (s *Service) VerseOfTheDay(ctx context.Context) (*Entry, error) {
	all, err := s.all(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		if s.verses != nil {
			if v := s.verses.VerseOfTheDay(ctx); v != nil {
				e := s.fromVerse(*v)
				return &e, nil
			}
		}
		return nil, ErrNotFound
	}

	sorted := make([]Entry, len(all))
	copy(sorted, all)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	e := sorted[daysSinceEpoch(s.now())%int64(len(sorted))]
	return &e, nil
}

// Search matches query as a case-insensitive substring of the text, both
// translations and every theme tag, then slices [offset, offset+limit) out
// of the full filtered result. limit <= 0 returns everything after offset.
func (s *Service) Search(ctx context.Context, query string, f Filter, offset, limit int) (SearchResult, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	key := cache.Key("search", q, f.key())

	matches, ok := s.entries.Get(key)
	if !ok {
		all, err := s.all(ctx, f)
		if err != nil {
			return SearchResult{}, err
		}
		matches = []Entry{}
		for _, e := range all {
			if entryContains(e, q) {
				matches = append(matches, e)
			}
		}
		s.entries.Set(key, matches)
	}

	total := len(matches)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return SearchResult{Items: matches[offset:end:end], Total: total}, nil
}

func entryContains(e Entry, q string) bool {
	if q == "" {
		return true
	}
	for _, field := range []string{e.Text, e.Translation, e.SecondaryTranslation} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, t := range e.Themes {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Themes returns the sorted union of every stored theme tag and
// SupplementaryThemes.
func (s *Service) Themes(ctx context.Context) ([]string, error) {
	const key = "themes"
	if ts, ok := s.themes.Get(key); ok {
		return ts, nil
	}
	all, err := s.all(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	for _, t := range SupplementaryThemes {
		set[t] = true
	}
	for _, e := range all {
		for _, t := range e.Themes {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				set[t] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	s.themes.Set(key, out)
	return out, nil
}

// ByReference looks up a single entry by its exact reference string.
func (s *Service) ByReference(ctx context.Context, ref string) (*Entry, error) {
	e, err := s.repo.GetByReference(ctx, strings.TrimSpace(ref))
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		s.log.Error("reference lookup failed", "reference", ref, "error", err)
		return nil, fmt.Errorf("looking up %q: %w", ref, err)
	}
	return e, nil
}

// DynamicVersesByTheme fetches verses about theme from the gateway and
// converts them to entries. It never fails; the result may be empty.
func (s *Service) DynamicVersesByTheme(ctx context.Context, theme string, limit int) []Entry {
	if s.verses == nil || limit <= 0 {
		return []Entry{}
	}
	vs := s.verses.VersesByTheme(ctx, theme, limit)
	out := make([]Entry, 0, len(vs))
	for _, v := range vs {
		out = append(out, s.fromVerse(v))
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RandomDynamicVerse returns a random gateway verse as an entry, or nil.
func (s *Service) RandomDynamicVerse(ctx context.Context) *Entry {
	if s.verses == nil {
		return nil
	}
	v := s.verses.RandomVerse(ctx, []string{s.opts.PrimaryEdition, s.opts.SecondaryEdition})
	if v == nil {
		s.log.Debug("random verse unavailable")
		return nil
	}
	e := s.fromVerse(*v)
	return &e
}

// ThemeContent lists stored entries tagged theme, then tops the result up
// with dynamic verses whose chapter:verse is not already present, up to
// limit.
func (s *Service) ThemeContent(ctx context.Context, theme string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, ErrInvalidPageSize
	}
	stored, err := s.all(ctx, Filter{Theme: theme})
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, limit)
	seen := make(map[string]bool)
	for _, e := range stored {
		if len(out) == limit {
			return out, nil
		}
		out = append(out, e)
		if e.Source == SourceQuran {
			if k := verseKey(e.Reference); k != "" {
				seen[k] = true
			}
		}
	}

	for _, e := range s.DynamicVersesByTheme(ctx, theme, limit) {
		if len(out) == limit {
			break
		}
		k := verseKey(e.Reference)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out, nil
}

// all returns every entry matching f through the cache.
func (s *Service) all(ctx context.Context, f Filter) ([]Entry, error) {
	key := cache.Key("all", f.key())
	if es, ok := s.entries.Get(key); ok {
		return es, nil
	}
	es, err := s.repo.All(ctx, f)
	if err != nil {
		s.log.Error("loading entries failed", "filter", f.key(), "error", err)
		return nil, fmt.Errorf("loading guidance: %w", err)
	}
	s.entries.Set(key, es)
	return es, nil
}

func (s *Service) fromVerse(v quran.Verse) Entry {
	return FromVerse(v, s.opts.PrimaryEdition, s.opts.SecondaryEdition, s.now())
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysSinceEpoch(t time.Time) int64 {
	return startOfDay(t).Unix() / 86400
}
