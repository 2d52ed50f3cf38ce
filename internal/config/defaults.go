package config

import "time"

// DefaultAlwaysFresh are the app-shell paths that must never be served
// stale while the network is reachable.
var DefaultAlwaysFresh = []string{
	"/",
	"/index.html",
	"/manifest.json",
	"/sw.js",
	"/version.json",
}

// DefaultLongLived are fingerprinted or rarely-changing assets served
// stale-while-revalidate.
var DefaultLongLived = []string{
	"/static/**",
	"/assets/**",
	"/icons/**",
	"/**/*.{png,jpg,svg,ico,webp,woff,woff2}",
}

// DefaultConfig returns a Config with sensible defaults. Slices are
// copied so decoding a file into the result leaves the package vars intact.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: ".naflume/naflume.db",
		},
		LogMode:     LogModeDev,
		SeedOnStart: true,
		Guidance: GuidanceConfig{
			CacheTTL:           5 * time.Minute,
			DefaultPageSize:    10,
			MaxPageSize:        50,
			PersonalWindowDays: 7,
		},
		Quran: QuranConfig{
			BaseURL:          "https://api.alquran.cloud/v1",
			SourceEdition:    "quran-uthmani",
			Translations:     []string{"en.sahih", "id.indonesian"},
			SearchEdition:    "en.sahih",
			SecondaryEdition: "id.indonesian",
			Timeout:          15 * time.Second,
			CacheTTL:         30 * time.Minute,
			MaxConcurrency:   4,
		},
		Cache: CacheConfig{
			RedisPrefix: "naflume:",
		},
		Assets: AssetsConfig{
			StaticDir:   "web/dist",
			CachePrefix: "naflume",
			AlwaysFresh: append([]string(nil), DefaultAlwaysFresh...),
			LongLived:   append([]string(nil), DefaultLongLived...),
		},
	}
}
