package quran

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/naflume/internal/cache"
	"github.com/ziadkadry99/naflume/internal/logger"
)

const defaultBaseURL = "https://api.alquran.cloud/v1"

// Options configures a Gateway. Zero values fall back to the public API
// and the editions used by the app.
type Options struct {
	BaseURL          string
	SourceEdition    string
	Translations     []string
	SearchEdition    string
	SecondaryEdition string
	Timeout          time.Duration
	CacheTTL         time.Duration
	MaxConcurrency   int

	// Redis, when set, replaces the in-process caches with a shared tier.
	Redis       *goredis.Client
	RedisPrefix string

	HTTPClient *http.Client
	Clock      cache.Clock
	// Intn returns a uniform integer in [0, n). Defaults to math/rand.
	Intn func(n int) int
}

// Gateway is a client of the AlQuran Cloud REST API. None of its lookups
// return errors: upstream failures are logged and surface as nil or empty
// results, since every caller treats verses as optional enrichment.
type Gateway struct {
	opts   Options
	http   *http.Client
	log    *logger.Logger
	now    cache.Clock
	intn   func(n int) int
	verses cache.Store[Verse]
	lists  cache.Store[[]Verse]
	surahs cache.Store[[]Surah]
}

// New creates a Gateway.
func New(opts Options, log *logger.Logger) *Gateway {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.SourceEdition == "" {
		opts.SourceEdition = "quran-uthmani"
	}
	if opts.SearchEdition == "" {
		opts.SearchEdition = "en.sahih"
	}
	if opts.SecondaryEdition == "" {
		opts.SecondaryEdition = "id.indonesian"
	}
	if len(opts.Translations) == 0 {
		opts.Translations = []string{opts.SearchEdition, opts.SecondaryEdition}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 4
	}
	if log == nil {
		log = logger.Nop()
	}

	g := &Gateway{
		opts: opts,
		http: opts.HTTPClient,
		log:  log.With("component", "quran_gateway"),
		now:  opts.Clock,
		intn: opts.Intn,
	}
	if g.http == nil {
		g.http = &http.Client{Timeout: opts.Timeout}
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.intn == nil {
		g.intn = rand.IntN
	}

	if opts.Redis != nil {
		g.verses = cache.NewRedis[Verse](opts.Redis, opts.RedisPrefix+"verse:", opts.CacheTTL, log)
		g.lists = cache.NewRedis[[]Verse](opts.Redis, opts.RedisPrefix+"verses:", opts.CacheTTL, log)
		g.surahs = cache.NewRedis[[]Surah](opts.Redis, opts.RedisPrefix+"surahs:", opts.CacheTTL, log)
	} else {
		g.verses = cache.NewTTL[string, Verse](opts.CacheTTL, g.now)
		g.lists = cache.NewTTL[string, []Verse](opts.CacheTTL, g.now)
		g.surahs = cache.NewTTL[string, []Surah](opts.CacheTTL, g.now)
	}
	return g
}

// Translations returns the default translation editions.
func (g *Gateway) Translations() []string { return g.opts.Translations }

// SearchEdition is the edition queries are matched against.
func (g *Gateway) SearchEdition() string { return g.opts.SearchEdition }

// SecondaryEdition is the edition fetched for every search match.
func (g *Gateway) SecondaryEdition() string { return g.opts.SecondaryEdition }

// Verse fetches surah:ayah in the source edition plus each translation.
// It returns nil when the source text cannot be fetched; a failed
// translation only leaves that edition out.
func (g *Gateway) Verse(ctx context.Context, surah, ayah int, translations []string) *Verse {
	if surah < 1 || surah > TotalSurahs || ayah < 1 {
		return nil
	}
	if translations == nil {
		translations = g.opts.Translations
	}
	ref := fmt.Sprintf("%d:%d", surah, ayah)
	key := cache.Key("verse", ref, strings.Join(translations, ","))
	if v, ok := g.verses.Get(key); ok {
		return &v
	}

	v := g.fetchMerged(ctx, ref, translations)
	if v == nil {
		return nil
	}
	g.verses.Set(key, *v)
	return v
}

// RandomVerse picks a uniformly random ayah. Random picks are not cached.
func (g *Gateway) RandomVerse(ctx context.Context, translations []string) *Verse {
	if translations == nil {
		translations = g.opts.Translations
	}
	n := g.intn(TotalAyahs) + 1
	return g.fetchMerged(ctx, strconv.Itoa(n), translations)
}

// fetchMerged requests the source edition and every translation of ref
// concurrently and merges them into one Verse.
func (g *Gateway) fetchMerged(ctx context.Context, ref string, translations []string) *Verse {
	editions := append([]string{g.opts.SourceEdition}, translations...)
	ayahs := make([]*apiAyah, len(editions))

	var eg errgroup.Group
	eg.SetLimit(g.opts.MaxConcurrency)
	for i, ed := range editions {
		eg.Go(func() error {
			var a apiAyah
			if err := g.get(ctx, "/ayah/"+ref+"/"+url.PathEscape(ed), &a); err != nil {
				g.log.Warn("ayah fetch failed", "ref", ref, "edition", ed, "error", err)
				return nil
			}
			ayahs[i] = &a
			return nil
		})
	}
	_ = eg.Wait()

	src := ayahs[0]
	if src == nil {
		return nil
	}
	v := src.toVerse()
	v.Text = src.Text
	for i, ed := range translations {
		if a := ayahs[i+1]; a != nil {
			v.Translations[ed] = a.Text
		}
	}
	return &v
}

// Search finds verses whose search-edition text contains query, then
// fetches each match in the given translation editions. Because the
// matched text is already in the search edition, that edition is never
// re-fetched; a nil set means the secondary edition only.
func (g *Gateway) Search(ctx context.Context, query string, translations []string) []Verse {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Verse{}
	}
	if translations == nil {
		translations = []string{g.opts.SecondaryEdition}
	}
	key := cache.Key("search", strings.ToLower(query), strings.Join(translations, ","))
	if vs, ok := g.lists.Get(key); ok {
		return vs
	}

	var res apiSearch
	path := "/search/" + url.PathEscape(query) + "/all/" + url.PathEscape(g.opts.SearchEdition)
	if err := g.get(ctx, path, &res); err != nil {
		g.log.Warn("search failed", "query", query, "error", err)
		return []Verse{}
	}

	verses := make([]Verse, len(res.Matches))
	var extra []string
	for _, ed := range translations {
		if ed != g.opts.SearchEdition {
			extra = append(extra, ed)
		}
	}
	texts := make([][]string, len(res.Matches))

	var eg errgroup.Group
	eg.SetLimit(g.opts.MaxConcurrency)
	for i, m := range res.Matches {
		verses[i] = m.toVerse()
		verses[i].Translations[g.opts.SearchEdition] = m.Text
		texts[i] = make([]string, len(extra))
		for j, ed := range extra {
			eg.Go(func() error {
				var a apiAyah
				ref := strconv.Itoa(m.Number)
				if err := g.get(ctx, "/ayah/"+ref+"/"+url.PathEscape(ed), &a); err != nil {
					g.log.Warn("match translation failed", "ref", ref, "edition", ed, "error", err)
					return nil
				}
				texts[i][j] = a.Text
				return nil
			})
		}
	}
	_ = eg.Wait()

	for i := range verses {
		for j, ed := range extra {
			if texts[i][j] != "" {
				verses[i].Translations[ed] = texts[i][j]
			}
		}
	}

	g.lists.Set(key, verses)
	return verses
}

// VersesByTheme searches once per keyword of theme, concatenates the
// matches in order, drops duplicate coordinates and truncates to limit.
func (g *Gateway) VersesByTheme(ctx context.Context, theme string, limit int) []Verse {
	if limit <= 0 {
		return []Verse{}
	}
	seen := make(map[string]bool)
	out := make([]Verse, 0, limit)
	for _, kw := range Keywords(theme) {
		for _, v := range g.Search(ctx, kw, nil) {
			if seen[v.Key()] {
				continue
			}
			seen[v.Key()] = true
			out = append(out, v)
		}
		if len(out) >= limit {
			break
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DayCoordinates derives the verse of the day from the ordinal day of the
// year: chapter d mod 114, verse d mod 10 (both 1-based). The cycle
// repeats every year.
func DayCoordinates(t time.Time) (surah, ayah int) {
	d := t.UTC().YearDay()
	return d%TotalSurahs + 1, d%10 + 1
}

// VerseOfTheDay returns today's verse. When the chosen chapter is shorter
// than the chosen verse number, the number wraps around the chapter's
// length (using the surah list); if the list is unavailable the raw
// coordinates are tried and verse 1 is the last resort.
func (g *Gateway) VerseOfTheDay(ctx context.Context) *Verse {
	surah, ayah := DayCoordinates(g.now())
	if surahs := g.Surahs(ctx); len(surahs) >= surah {
		if n := surahs[surah-1].NumberOfAyahs; n > 0 {
			ayah = (ayah-1)%n + 1
		}
	}
	if v := g.Verse(ctx, surah, ayah, nil); v != nil {
		return v
	}
	if ayah != 1 {
		return g.Verse(ctx, surah, 1, nil)
	}
	return nil
}

// Surahs lists every chapter.
func (g *Gateway) Surahs(ctx context.Context) []Surah {
	const key = "surahs"
	if ss, ok := g.surahs.Get(key); ok {
		return ss
	}
	var raw []apiSurah
	if err := g.get(ctx, "/surah", &raw); err != nil {
		g.log.Warn("surah list failed", "error", err)
		return []Surah{}
	}
	out := make([]Surah, len(raw))
	for i, s := range raw {
		out[i] = s.toSurah()
	}
	g.surahs.Set(key, out)
	return out
}

// get performs a GET against the API and decodes the envelope's data into
// dst. Non-200 HTTP statuses and envelope codes are errors.
func (g *Gateway) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Code != http.StatusOK {
		return fmt.Errorf("api code %d: %s", env.Code, env.Status)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
