package cmd

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/naflume/internal/cache"
	"github.com/ziadkadry99/naflume/internal/config"
	"github.com/ziadkadry99/naflume/internal/db"
	"github.com/ziadkadry99/naflume/internal/guidance"
	"github.com/ziadkadry99/naflume/internal/logger"
	"github.com/ziadkadry99/naflume/internal/progress"
	"github.com/ziadkadry99/naflume/internal/quran"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `naflume init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the logger for cfg. --verbose forces debug output.
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	mode := string(cfg.LogMode)
	if verbose {
		mode = string(config.LogModeDev)
	}
	return logger.New(mode)
}

// newGateway creates the verse gateway. When cache.redis_addr is set the
// gateway shares a Redis cache tier; the returned func releases it.
func newGateway(ctx context.Context, cfg *config.Config, log *logger.Logger) (*quran.Gateway, func(), error) {
	opts := quran.Options{
		BaseURL:          cfg.Quran.BaseURL,
		SourceEdition:    cfg.Quran.SourceEdition,
		Translations:     cfg.Quran.Translations,
		SearchEdition:    cfg.Quran.SearchEdition,
		SecondaryEdition: cfg.Quran.SecondaryEdition,
		Timeout:          cfg.Quran.Timeout,
		CacheTTL:         cfg.Quran.CacheTTL,
		MaxConcurrency:   cfg.Quran.MaxConcurrency,
	}
	release := func() {}

	if cfg.Cache.RedisAddr != "" {
		rdb, err := cache.DialRedis(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		opts.Redis = rdb
		opts.RedisPrefix = cfg.Cache.RedisPrefix
		release = func() { rdb.Close() }
		log.Info("using redis verse cache", "addr", cfg.Cache.RedisAddr)
	}

	return quran.New(opts, log), release, nil
}

// newGuidanceService wires the content service over the SQLite store.
func newGuidanceService(database *db.DB, verses guidance.VerseSource, history guidance.HistorySource, cfg *config.Config, log *logger.Logger) *guidance.Service {
	return guidance.NewService(guidance.NewStore(database), verses, history, guidance.Options{
		CacheTTL:         cfg.Guidance.CacheTTL,
		WindowDays:       cfg.Guidance.PersonalWindowDays,
		DefaultPageSize:  cfg.Guidance.DefaultPageSize,
		MaxPageSize:      cfg.Guidance.MaxPageSize,
		PrimaryEdition:   cfg.Quran.SearchEdition,
		SecondaryEdition: cfg.Quran.SecondaryEdition,
	}, log)
}

// seedBundle loads the embedded content bundle into the store.
func seedBundle(ctx context.Context, database *db.DB, reporter progress.Reporter) (int, error) {
	entries, err := guidance.LoadBundle()
	if err != nil {
		return 0, err
	}
	return guidance.Seed(ctx, guidance.NewStore(database), entries, reporter)
}
