package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "naflume",
	Short: "Devotional content service for the Naflume deed tracker",
	Long: `Naflume serves Quran verses, hadith and tafsir to the deed tracker web app.
It paginates and personalizes stored content, merges verses fetched from
the AlQuran Cloud API, records deeds, and serves the built app with
versioned offline caching.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".naflume.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
