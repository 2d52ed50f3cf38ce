package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/naflume/internal/db"
	"github.com/ziadkadry99/naflume/internal/guidance"
	"github.com/ziadkadry99/naflume/internal/progress"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the embedded content bundle into the database",
	Long: `Upserts every hand-authored Quran and hadith entry of the embedded bundle.
Existing entries with the same ID are replaced, so seeding is repeatable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		n, err := seedBundle(ctx, database, progress.NewReporter("Seeding content"))
		if err != nil {
			return fmt.Errorf("seeding content after %d entries: %w", n, err)
		}

		total, err := guidance.NewStore(database).Count(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d entries into %s (%d stored).\n", n, database.Path(), total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
