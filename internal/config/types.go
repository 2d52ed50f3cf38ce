package config

import "time"

// LogMode selects the logger output format.
type LogMode string

const (
	LogModeDev  LogMode = "dev"
	LogModeProd LogMode = "prod"
)

// Config is the top-level naflume configuration, corresponding to .naflume.yml.
type Config struct {
	Server      ServerConfig   `yaml:"server" koanf:"server"`
	Database    DatabaseConfig `yaml:"database" koanf:"database"`
	LogMode     LogMode        `yaml:"log_mode" koanf:"log_mode"`
	SeedOnStart bool           `yaml:"seed_on_start" koanf:"seed_on_start"`
	Guidance    GuidanceConfig `yaml:"guidance" koanf:"guidance"`
	Quran       QuranConfig    `yaml:"quran" koanf:"quran"`
	Cache       CacheConfig    `yaml:"cache" koanf:"cache"`
	Assets      AssetsConfig   `yaml:"assets" koanf:"assets"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// DatabaseConfig locates the SQLite content store.
type DatabaseConfig struct {
	Path string `yaml:"path" koanf:"path"`
}

// GuidanceConfig tunes the content service.
type GuidanceConfig struct {
	CacheTTL           time.Duration `yaml:"cache_ttl" koanf:"cache_ttl"`
	DefaultPageSize    int           `yaml:"default_page_size" koanf:"default_page_size"`
	MaxPageSize        int           `yaml:"max_page_size" koanf:"max_page_size"`
	PersonalWindowDays int           `yaml:"personal_window_days" koanf:"personal_window_days"`
}

// QuranConfig points the verse gateway at an AlQuran Cloud compatible API.
type QuranConfig struct {
	BaseURL          string        `yaml:"base_url" koanf:"base_url"`
	SourceEdition    string        `yaml:"source_edition" koanf:"source_edition"`
	Translations     []string      `yaml:"translations" koanf:"translations"`
	SearchEdition    string        `yaml:"search_edition" koanf:"search_edition"`
	SecondaryEdition string        `yaml:"secondary_edition" koanf:"secondary_edition"`
	Timeout          time.Duration `yaml:"timeout" koanf:"timeout"`
	CacheTTL         time.Duration `yaml:"cache_ttl" koanf:"cache_ttl"`
	MaxConcurrency   int           `yaml:"max_concurrency" koanf:"max_concurrency"`
}

// CacheConfig enables the shared Redis tier for gateway lookups. An empty
// address keeps everything in process.
type CacheConfig struct {
	RedisAddr   string `yaml:"redis_addr" koanf:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix" koanf:"redis_prefix"`
}

// AssetsConfig controls how the built web app is served and cached.
type AssetsConfig struct {
	StaticDir   string   `yaml:"static_dir" koanf:"static_dir"`
	OriginURL   string   `yaml:"origin_url" koanf:"origin_url"`
	CachePrefix string   `yaml:"cache_prefix" koanf:"cache_prefix"`
	AlwaysFresh []string `yaml:"always_fresh" koanf:"always_fresh"`
	LongLived   []string `yaml:"long_lived" koanf:"long_lived"`
}
