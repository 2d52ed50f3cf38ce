package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides. Nested keys are joined
// with a double underscore: NAFLUME_QURAN__BASE_URL -> quran.base_url.
const EnvPrefix = "NAFLUME_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (NAFLUME_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// MarshalYAML writes CacheTTL as a duration string such as "5m0s".
func (g GuidanceConfig) MarshalYAML() (any, error) {
	return struct {
		CacheTTL           string `yaml:"cache_ttl"`
		DefaultPageSize    int    `yaml:"default_page_size"`
		MaxPageSize        int    `yaml:"max_page_size"`
		PersonalWindowDays int    `yaml:"personal_window_days"`
	}{g.CacheTTL.String(), g.DefaultPageSize, g.MaxPageSize, g.PersonalWindowDays}, nil
}

// MarshalYAML writes Timeout and CacheTTL as duration strings.
func (q QuranConfig) MarshalYAML() (any, error) {
	return struct {
		BaseURL          string   `yaml:"base_url"`
		SourceEdition    string   `yaml:"source_edition"`
		Translations     []string `yaml:"translations"`
		SearchEdition    string   `yaml:"search_edition"`
		SecondaryEdition string   `yaml:"secondary_edition"`
		Timeout          string   `yaml:"timeout"`
		CacheTTL         string   `yaml:"cache_ttl"`
		MaxConcurrency   int      `yaml:"max_concurrency"`
	}{
		q.BaseURL, q.SourceEdition, q.Translations, q.SearchEdition, q.SecondaryEdition,
		q.Timeout.String(), q.CacheTTL.String(), q.MaxConcurrency,
	}, nil
}

var validLogModes = map[LogMode]bool{
	LogModeDev:  true,
	LogModeProd: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if !validLogModes[c.LogMode] {
		return fmt.Errorf("invalid log_mode %q: must be one of dev, prod", c.LogMode)
	}

	g := c.Guidance
	if g.CacheTTL <= 0 {
		return fmt.Errorf("guidance.cache_ttl must be positive")
	}
	if g.DefaultPageSize <= 0 {
		return fmt.Errorf("guidance.default_page_size must be positive")
	}
	if g.MaxPageSize < g.DefaultPageSize {
		return fmt.Errorf("guidance.max_page_size must be at least default_page_size")
	}
	if g.PersonalWindowDays <= 0 {
		return fmt.Errorf("guidance.personal_window_days must be positive")
	}

	q := c.Quran
	if u, err := url.Parse(q.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("quran.base_url %q is not an absolute URL", q.BaseURL)
	}
	if q.SourceEdition == "" || q.SearchEdition == "" {
		return fmt.Errorf("quran.source_edition and quran.search_edition are required")
	}
	if q.Timeout <= 0 || q.CacheTTL <= 0 {
		return fmt.Errorf("quran.timeout and quran.cache_ttl must be positive")
	}
	if q.MaxConcurrency < 1 {
		return fmt.Errorf("quran.max_concurrency must be at least 1")
	}

	if c.Assets.OriginURL != "" {
		if u, err := url.Parse(c.Assets.OriginURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("assets.origin_url %q is not an absolute URL", c.Assets.OriginURL)
		}
	}
	if c.Assets.CachePrefix == "" {
		return fmt.Errorf("assets.cache_prefix is required")
	}

	return nil
}
