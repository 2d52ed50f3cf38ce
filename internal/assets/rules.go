package assets

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Strategy is how a request path is served.
type Strategy int

const (
	// CacheFirst serves a cached copy when present, otherwise fetches and
	// caches.
	CacheFirst Strategy = iota
	// NetworkFirst always fetches; the cached copy is only a fallback when
	// the network is unreachable.
	NetworkFirst
	// StaleWhileRevalidate serves a cached copy immediately and refreshes
	// it in the background.
	StaleWhileRevalidate
)

func (s Strategy) String() string {
	switch s {
	case NetworkFirst:
		return "network-first"
	case StaleWhileRevalidate:
		return "stale-while-revalidate"
	default:
		return "cache-first"
	}
}

// Rules classifies request paths with doublestar patterns. Always-fresh
// patterns win over long-lived ones.
type Rules struct {
	alwaysFresh []string
	longLived   []string
}

// NewRules validates the patterns and builds Rules.
func NewRules(alwaysFresh, longLived []string) (*Rules, error) {
	for _, p := range append(append([]string{}, alwaysFresh...), longLived...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid asset pattern %q", p)
		}
	}
	return &Rules{alwaysFresh: alwaysFresh, longLived: longLived}, nil
}

// Classify returns the strategy for urlPath.
func (r *Rules) Classify(urlPath string) Strategy {
	if matchAny(r.alwaysFresh, urlPath) {
		return NetworkFirst
	}
	if matchAny(r.longLived, urlPath) {
		return StaleWhileRevalidate
	}
	return CacheFirst
}

func matchAny(patterns []string, urlPath string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, urlPath); ok {
			return true
		}
	}
	return false
}
