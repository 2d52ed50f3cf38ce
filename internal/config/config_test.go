package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Guidance.CacheTTL != 5*time.Minute {
		t.Errorf("expected guidance cache ttl 5m, got %s", cfg.Guidance.CacheTTL)
	}
	if cfg.Quran.CacheTTL != 30*time.Minute {
		t.Errorf("expected quran cache ttl 30m, got %s", cfg.Quran.CacheTTL)
	}
	if cfg.Guidance.PersonalWindowDays != 7 {
		t.Errorf("expected 7 day window, got %d", cfg.Guidance.PersonalWindowDays)
	}
	if cfg.LogMode != LogModeDev {
		t.Errorf("expected default log mode %q, got %q", LogModeDev, cfg.LogMode)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.naflume.yml")

	original := DefaultConfig()
	original.Server.Port = 9090
	original.Database.Path = "data/content.db"
	original.Guidance.CacheTTL = 2 * time.Minute
	original.Quran.Translations = []string{"en.sahih", "ms.basmeih"}
	original.Assets.OriginURL = "http://localhost:5173"

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Server.Port != 9090 {
		t.Errorf("port: got %d, want 9090", loaded.Server.Port)
	}
	if loaded.Database.Path != original.Database.Path {
		t.Errorf("database path: got %q, want %q", loaded.Database.Path, original.Database.Path)
	}
	if loaded.Guidance.CacheTTL != 2*time.Minute {
		t.Errorf("guidance cache ttl: got %s, want 2m", loaded.Guidance.CacheTTL)
	}
	if loaded.Assets.OriginURL != original.Assets.OriginURL {
		t.Errorf("origin url: got %q, want %q", loaded.Assets.OriginURL, original.Assets.OriginURL)
	}
	if len(loaded.Quran.Translations) != 2 || loaded.Quran.Translations[1] != "ms.basmeih" {
		t.Errorf("translations: got %v", loaded.Quran.Translations)
	}
}

func TestSaveWritesDurationStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "durations.yml")
	cfg := DefaultConfig()
	cfg.Quran.Timeout = 1500 * time.Millisecond
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"cache_ttl: 5m0s", "cache_ttl: 30m0s", "timeout: 1.5s"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("saved config missing %q:\n%s", want, data)
		}
	}
	if strings.Contains(string(data), "300000000000") {
		t.Errorf("saved config has nanosecond durations:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Quran.Timeout != 1500*time.Millisecond || loaded.Guidance.CacheTTL != 5*time.Minute {
		t.Errorf("durations did not round-trip: %s, %s", loaded.Quran.Timeout, loaded.Guidance.CacheTTL)
	}
}

func TestLoadKeepsDefaultPathLists(t *testing.T) {
	wantFresh := append([]string(nil), DefaultAlwaysFresh...)
	wantLong := append([]string(nil), DefaultLongLived...)

	path := filepath.Join(t.TempDir(), "paths.yml")
	yml := "assets:\n  always_fresh: [\"/x\"]\n  long_lived: [\"/a/**\", \"/b/**\"]\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(loaded.Assets.AlwaysFresh, []string{"/x"}) {
		t.Errorf("always_fresh: got %v", loaded.Assets.AlwaysFresh)
	}
	if !reflect.DeepEqual(loaded.Assets.LongLived, []string{"/a/**", "/b/**"}) {
		t.Errorf("long_lived: got %v", loaded.Assets.LongLived)
	}
	if !reflect.DeepEqual(DefaultAlwaysFresh, wantFresh) {
		t.Errorf("DefaultAlwaysFresh changed: %v", DefaultAlwaysFresh)
	}
	if !reflect.DeepEqual(DefaultLongLived, wantLong) {
		t.Errorf("DefaultLongLived changed: %v", DefaultLongLived)
	}
	if got := DefaultConfig().Assets.AlwaysFresh[0]; got != "/" {
		t.Errorf("DefaultConfig always_fresh starts with %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("NAFLUME_LOG_MODE", "prod")
	t.Setenv("NAFLUME_QURAN__BASE_URL", "http://quran.internal/v1")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LogMode != LogModeProd {
		t.Errorf("env override failed: got %q, want %q", loaded.LogMode, LogModeProd)
	}
	if loaded.Quran.BaseURL != "http://quran.internal/v1" {
		t.Errorf("nested env override failed: got %q", loaded.Quran.BaseURL)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"huge port", func(c *Config) { c.Server.Port = 70000 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"bad log mode", func(c *Config) { c.LogMode = "verbose" }},
		{"zero guidance ttl", func(c *Config) { c.Guidance.CacheTTL = 0 }},
		{"zero page size", func(c *Config) { c.Guidance.DefaultPageSize = 0 }},
		{"max below default", func(c *Config) { c.Guidance.MaxPageSize = 5 }},
		{"zero window", func(c *Config) { c.Guidance.PersonalWindowDays = 0 }},
		{"relative base url", func(c *Config) { c.Quran.BaseURL = "api/v1" }},
		{"no source edition", func(c *Config) { c.Quran.SourceEdition = "" }},
		{"zero timeout", func(c *Config) { c.Quran.Timeout = 0 }},
		{"zero concurrency", func(c *Config) { c.Quran.MaxConcurrency = 0 }},
		{"relative origin", func(c *Config) { c.Assets.OriginURL = "localhost:5173" }},
		{"empty cache prefix", func(c *Config) { c.Assets.CachePrefix = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"NAFLUME_LOG_MODE", "log_mode"},
		{"NAFLUME_SERVER__PORT", "server.port"},
		{"NAFLUME_CACHE__REDIS_ADDR", "cache.redis_addr"},
	}
	for _, tt := range tests {
		if got := envKey(tt.input); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidatePort(t *testing.T) {
	if err := validatePort("8080"); err != nil {
		t.Errorf("8080 should be valid: %v", err)
	}
	for _, bad := range []string{"", "abc", "0", "99999"} {
		if err := validatePort(bad); err == nil {
			t.Errorf("validatePort(%q) should fail", bad)
		}
	}
}
