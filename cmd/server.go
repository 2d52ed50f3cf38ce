package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/naflume/internal/assets"
	"github.com/ziadkadry99/naflume/internal/config"
	"github.com/ziadkadry99/naflume/internal/db"
	"github.com/ziadkadry99/naflume/internal/deeds"
	"github.com/ziadkadry99/naflume/internal/guidance"
	"github.com/ziadkadry99/naflume/internal/logger"
	"github.com/ziadkadry99/naflume/internal/progress"
	"github.com/ziadkadry99/naflume/internal/quran"
	"github.com/ziadkadry99/naflume/internal/server"
	"github.com/ziadkadry99/naflume/internal/version"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the naflume HTTP server",
	Long: `Starts the content API (guidance, Quran, deeds) and serves the built web
app through the versioned asset cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}

		log, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		if cfg.SeedOnStart {
			if err := seedIfEmpty(ctx, database, log); err != nil {
				return err
			}
		}

		gateway, release, err := newGateway(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer release()

		controller, err := newAssetController(cfg, database, log)
		if err != nil {
			return err
		}
		defer controller.Close()
		if err := controller.Install(ctx); err != nil {
			return fmt.Errorf("installing asset cache: %w", err)
		}

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, log)
		registerAllRoutes(srv, database, gateway, controller, cfg, log)

		log.Info("naflume server starting",
			"version", version.Current().String(),
			"port", cfg.Server.Port,
			"database", database.Path(),
			"cache", controller.CacheName(),
		)
		return srv.Run(ctx)
	},
}

// seedIfEmpty loads the content bundle into a store with no entries.
func seedIfEmpty(ctx context.Context, database *db.DB, log *logger.Logger) error {
	n, err := guidance.NewStore(database).Count(ctx)
	if err != nil {
		return fmt.Errorf("counting entries: %w", err)
	}
	if n > 0 {
		return nil
	}
	seeded, err := seedBundle(ctx, database, progress.Nop{})
	if err != nil {
		return fmt.Errorf("seeding content: %w", err)
	}
	log.Info("content bundle seeded", "entries", seeded)
	return nil
}

// newAssetController serves the built app from assets.static_dir, or
// proxies assets.origin_url when set.
func newAssetController(cfg *config.Config, database *db.DB, log *logger.Logger) (*assets.Controller, error) {
	rules, err := assets.NewRules(cfg.Assets.AlwaysFresh, cfg.Assets.LongLived)
	if err != nil {
		return nil, err
	}
	info := version.Current()

	var fetcher assets.Fetcher
	if cfg.Assets.OriginURL != "" {
		fetcher = assets.NewHTTPFetcher(cfg.Assets.OriginURL, cfg.Quran.Timeout)
	} else {
		fetcher = &assets.DirFetcher{FS: os.DirFS(cfg.Assets.StaticDir), Version: info}
	}

	return assets.NewController(fetcher, assets.NewStorage(database), rules, info, assets.Options{
		CachePrefix: cfg.Assets.CachePrefix,
		Precache:    []string{"/", "/manifest.json"},
	}, log), nil
}

// registerAllRoutes mounts every feature. The asset catch-all goes last.
func registerAllRoutes(srv *server.Server, database *db.DB, gateway *quran.Gateway, controller *assets.Controller, cfg *config.Config, log *logger.Logger) {
	r := srv.Router()

	// Deeds
	deedStore := deeds.NewStore(database)
	deeds.RegisterRoutes(r, deedStore)

	// Guidance, personalized from the deed history
	svc := newGuidanceService(database, gateway, deedStore, cfg, log)
	guidance.RegisterRoutes(r, svc)

	// Quran gateway
	quran.RegisterRoutes(r, gateway)

	// Built web app
	assets.RegisterRoutes(r, controller)
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
